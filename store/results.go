package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viant/edicheck/document"
)

// InsertResult appends an analysis result for a document.
func InsertResult(ctx context.Context, q Queryer, documentID int64, response string) (*document.AnalysisResult, error) {
	result := &document.AnalysisResult{DocumentID: documentID, Response: response, CreatedAt: time.Now().UTC()}
	err := q.QueryRowContext(ctx, `INSERT INTO analysis_result(document_id, response, created_at) VALUES(?,?,?) RETURNING id`,
		documentID, response, result.CreatedAt).Scan(&result.ID)
	if err != nil {
		return nil, fmt.Errorf("insert analysis result: %w", err)
	}
	return result, nil
}

// ListResults returns all analysis results of a document in creation order.
func ListResults(ctx context.Context, q Queryer, documentID int64) ([]*document.AnalysisResult, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, document_id, response, is_helpful, admin_comment, created_at
FROM analysis_result WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list analysis results: %w", err)
	}
	defer rows.Close()
	var out []*document.AnalysisResult
	for rows.Next() {
		var (
			r       document.AnalysisResult
			helpful sql.NullInt64
			comment sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Response, &helpful, &comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		if helpful.Valid {
			v := helpful.Int64 != 0
			r.IsHelpful = &v
		}
		if comment.Valid {
			r.AdminComment = &comment.String
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// SetFeedback records a reviewer verdict on an analysis result.
func SetFeedback(ctx context.Context, q Queryer, resultID int64, feedback document.Feedback) error {
	var comment any
	if feedback.Comment != "" {
		comment = feedback.Comment
	}
	res, err := q.ExecContext(ctx, `UPDATE analysis_result SET is_helpful = ?, admin_comment = ? WHERE id = ?`,
		boolInt(feedback.Helpful), comment, resultID)
	if err != nil {
		return fmt.Errorf("update analysis result %d: %w", resultID, err)
	}
	return expectRow(res, "analysis result", resultID)
}
