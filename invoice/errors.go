package invoice

import (
	"fmt"
)

// SyntaxError reports markup that cannot be parsed into an invoice record.
type SyntaxError struct {
	Field string // set when a present value has the wrong shape
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s value: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid XML: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// ArithmeticMismatch reports line amounts that do not add up to the declared
// tax exclusive total.
type ArithmeticMismatch struct {
	Computed float64
	Declared float64
}

func (e *ArithmeticMismatch) Error() string {
	return fmt.Sprintf("sum of line amounts (%.2f) does not match tax exclusive total (%.2f)", e.Computed, e.Declared)
}
