// Package archive stores committed analysis results outside the database.
package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/edicheck/document"
)

// Record is the archived form of an analysis result.
type Record struct {
	DocumentID int64           `json:"documentId"`
	ResultID   int64           `json:"resultId"`
	Filename   string          `json:"filename,omitempty"`
	Status     document.Status `json:"status"`
	Diagnostic string          `json:"diagnostic,omitempty"`
	Response   string          `json:"response"`
	AnalyzedAt time.Time       `json:"analyzedAt"`
	ArchivedAt time.Time       `json:"archivedAt"`
}

func newRecord(doc *document.Document, result *document.AnalysisResult) *Record {
	return &Record{
		DocumentID: doc.ID,
		ResultID:   result.ID,
		Filename:   doc.Filename,
		Status:     document.StatusAnalyzed,
		Diagnostic: doc.Diagnostic,
		Response:   result.Response,
		AnalyzedAt: result.CreatedAt,
		ArchivedAt: time.Now().UTC(),
	}
}

// ObjectName returns the archive path of a result relative to the archive root.
func ObjectName(documentID, resultID int64) string {
	return fmt.Sprintf("%d/%d.json", documentID, resultID)
}

func encode(doc *document.Document, result *document.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(newRecord(doc, result), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode archive record: %w", err)
	}
	return data, nil
}
