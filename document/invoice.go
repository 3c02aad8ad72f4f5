package document

// Invoice is the record produced by the structural parser.
// Absent text fields are nil, absent amounts are zero.
type Invoice struct {
	InvoiceID       *string    `json:"invoice_id"`
	IssueDate       *string    `json:"issue_date"`
	Currency        *string    `json:"currency"`
	SupplierName    *string    `json:"supplier_name"`
	CustomerName    *string    `json:"customer_name"`
	TotalPayable    float64    `json:"total_payable"`
	TotalTaxExcl    float64    `json:"total_tax_excl"`
	Lines           []LineItem `json:"lines"`
	ValidationError *string    `json:"validation_error"`
}

// LineItem is a single invoice line in document order.
type LineItem struct {
	ID       *string `json:"line_id"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"line_amount"`
	ItemName *string `json:"item_name"`
}

// LineTotal returns the sum of line amounts.
func LineTotal(lines []LineItem) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.Amount
	}
	return total
}
