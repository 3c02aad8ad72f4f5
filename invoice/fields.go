package invoice

import (
	"fmt"
	"regexp"

	"github.com/antchfx/xpath"
	"github.com/viant/edicheck/document"
)

// UBL 2.1 namespaces used by field paths.
const (
	NamespaceCBC = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NamespaceCAC = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceUBL = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
)

var namespaces = map[string]string{
	"cbc": NamespaceCBC,
	"cac": NamespaceCAC,
	"ubl": NamespaceUBL,
}

// field binds a named path to a slot of the parsed record.
type field struct {
	name    string
	path    string
	numeric bool
	query   *query
	setText func(inv *document.Invoice, v *string)
	setNum  func(inv *document.Invoice, v float64)
}

type lineField struct {
	name    string
	path    string
	numeric bool
	query   *query
	setText func(line *document.LineItem, v *string)
	setNum  func(line *document.LineItem, v float64)
}

var headerFields = []*field{
	{name: "invoice_id", path: "//cbc:ID", setText: func(inv *document.Invoice, v *string) { inv.InvoiceID = v }},
	{name: "issue_date", path: "//cbc:IssueDate", setText: func(inv *document.Invoice, v *string) { inv.IssueDate = v }},
	{name: "currency", path: "//cbc:DocumentCurrencyCode", setText: func(inv *document.Invoice, v *string) { inv.Currency = v }},
	{name: "supplier_name", path: "//cac:AccountingSupplierParty/cac:Party/cac:PartyName/cbc:Name", setText: func(inv *document.Invoice, v *string) { inv.SupplierName = v }},
	{name: "customer_name", path: "//cac:AccountingCustomerParty/cac:Party/cac:PartyName/cbc:Name", setText: func(inv *document.Invoice, v *string) { inv.CustomerName = v }},
	{name: "total_payable", path: "//cac:LegalMonetaryTotal/cbc:PayableAmount", numeric: true, setNum: func(inv *document.Invoice, v float64) { inv.TotalPayable = v }},
	{name: "total_tax_excl", path: "//cac:LegalMonetaryTotal/cbc:TaxExclusiveAmount", numeric: true, setNum: func(inv *document.Invoice, v float64) { inv.TotalTaxExcl = v }},
}

var lineQuery = mustCompile("//cac:InvoiceLine")

var lineFields = []*lineField{
	{name: "line_id", path: "cbc:ID", setText: func(l *document.LineItem, v *string) { l.ID = v }},
	{name: "quantity", path: "cbc:InvoicedQuantity", numeric: true, setNum: func(l *document.LineItem, v float64) { l.Quantity = v }},
	{name: "line_amount", path: "cbc:LineExtensionAmount", numeric: true, setNum: func(l *document.LineItem, v float64) { l.Amount = v }},
	{name: "item_name", path: "cac:Item/cbc:Name", setText: func(l *document.LineItem, v *string) { l.ItemName = v }},
}

func init() {
	for _, f := range headerFields {
		f.query = mustCompile(f.path)
	}
	for _, f := range lineFields {
		f.query = mustCompile(f.path)
	}
}

// query holds a namespace qualified expression and its namespace agnostic twin,
// used when a document omits the UBL namespaces.
type query struct {
	qualified *xpath.Expr
	local     *xpath.Expr
}

var qualifiedStep = regexp.MustCompile(`([A-Za-z][\w]*):([A-Za-z][\w.-]*)`)

// localPath rewrites prefix:Name steps to *[local-name()='Name'].
func localPath(path string) string {
	return qualifiedStep.ReplaceAllString(path, "*[local-name()='$2']")
}

func compile(path string) (*query, error) {
	qualified, err := xpath.CompileWithNS(path, namespaces)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	local, err := xpath.Compile(localPath(path))
	if err != nil {
		return nil, fmt.Errorf("compile local %s: %w", path, err)
	}
	return &query{qualified: qualified, local: local}, nil
}

func mustCompile(path string) *query {
	q, err := compile(path)
	if err != nil {
		panic(err)
	}
	return q
}
