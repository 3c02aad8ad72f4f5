package invoice

import (
	"math"

	"github.com/viant/edicheck/document"
)

// Tolerance is the largest accepted absolute difference between the line sum
// and the declared total.
const Tolerance = 0.01

// CheckTotals compares the sum of line amounts with the declared tax exclusive
// total. It returns nil when they agree within Tolerance.
func CheckTotals(lines []document.LineItem, declared float64) *ArithmeticMismatch {
	computed := document.LineTotal(lines)
	if math.Abs(computed-declared) > Tolerance {
		return &ArithmeticMismatch{Computed: computed, Declared: declared}
	}
	return nil
}

// ApplyTotals runs CheckTotals and records the outcome on the invoice's
// validation error field.
func ApplyTotals(inv *document.Invoice) *ArithmeticMismatch {
	mismatch := CheckTotals(inv.Lines, inv.TotalTaxExcl)
	if mismatch == nil {
		inv.ValidationError = nil
		return nil
	}
	msg := mismatch.Error()
	inv.ValidationError = &msg
	return mismatch
}
