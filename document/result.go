package document

import "time"

// AnalysisResult is one generated analysis for a document. A document may
// accumulate several results when it is analyzed more than once.
type AnalysisResult struct {
	ID           int64     `json:"id"`
	DocumentID   int64     `json:"documentId"`
	Response     string    `json:"response"`
	IsHelpful    *bool     `json:"isHelpful,omitempty"`
	AdminComment *string   `json:"adminComment,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Feedback is a reviewer verdict on an analysis result.
type Feedback struct {
	Helpful bool
	Comment string
}
