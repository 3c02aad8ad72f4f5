package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/viant/edicheck/document"
)

var (
	errNoRoot        = errors.New("document has no root element")
	errMultipleRoots = errors.New("document has more than one root element")
	errOutsideRoot   = errors.New("content outside the root element")
)

// Parse extracts the invoice record from UBL markup.
// Malformed markup yields *SyntaxError and no record. Exactly one log event
// is emitted per call, correlation attributes come from logger.
func Parse(logger *slog.Logger, markup string) (*document.Invoice, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inv, resolved, err := parse(markup)
	if err != nil {
		logger.Error("invoice parse failed", "error", err.Error())
		return nil, err
	}
	invoiceID := ""
	if inv.InvoiceID != nil {
		invoiceID = *inv.InvoiceID
	}
	logger.Info("invoice parsed", "invoiceId", invoiceID, "fieldCount", resolved, "lineCount", len(inv.Lines))
	return inv, nil
}

func parse(markup string) (*document.Invoice, int, error) {
	root, err := xmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, 0, &SyntaxError{Err: err}
	}
	if err := checkSingleRoot(root); err != nil {
		return nil, 0, &SyntaxError{Err: err}
	}
	inv := &document.Invoice{Lines: []document.LineItem{}}
	resolved := 0
	for _, f := range headerFields {
		node := f.query.selectOne(root)
		if node != nil {
			resolved++
		}
		if f.numeric {
			v, err := amount(node)
			if err != nil {
				return nil, 0, &SyntaxError{Field: f.name, Err: err}
			}
			f.setNum(inv, v)
			continue
		}
		f.setText(inv, text(node))
	}
	for _, lineNode := range lineQuery.selectAll(root) {
		var line document.LineItem
		for _, f := range lineFields {
			node := f.query.selectOne(lineNode)
			if f.numeric {
				v, err := amount(node)
				if err != nil {
					return nil, 0, &SyntaxError{Field: f.name, Err: err}
				}
				f.setNum(&line, v)
				continue
			}
			f.setText(&line, text(node))
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, resolved, nil
}

func (q *query) selectOne(top *xmlquery.Node) *xmlquery.Node {
	if node := xmlquery.QuerySelector(top, q.qualified); node != nil {
		return node
	}
	return xmlquery.QuerySelector(top, q.local)
}

func (q *query) selectAll(top *xmlquery.Node) []*xmlquery.Node {
	if nodes := xmlquery.QuerySelectorAll(top, q.qualified); len(nodes) > 0 {
		return nodes
	}
	return xmlquery.QuerySelectorAll(top, q.local)
}

// checkSingleRoot rejects fragments: a well-formed document has exactly one
// top level element and no character data around it.
func checkSingleRoot(doc *xmlquery.Node) error {
	elements := 0
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			elements++
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(child.Data) != "" {
				return errOutsideRoot
			}
		}
	}
	switch {
	case elements == 0:
		return errNoRoot
	case elements > 1:
		return errMultipleRoots
	}
	return nil
}

func text(node *xmlquery.Node) *string {
	if node == nil {
		return nil
	}
	v := strings.TrimSpace(node.InnerText())
	return &v
}

// amount converts node text to a number, absent or blank text is zero.
func amount(node *xmlquery.Node) (float64, error) {
	if node == nil {
		return 0, nil
	}
	v := strings.TrimSpace(node.InnerText())
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite amount %q", v)
	}
	return f, nil
}
