package knowledge

import (
	"fmt"
	"time"
)

// Status is the review state of a knowledge entry.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusReview, StatusApproved:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown knowledge status %q", s)
}

// Entry is a remediation rule with its embedding.
type Entry struct {
	ID        int64
	Topic     string
	RuleText  string
	Status    Status
	Embedding []float32
	CreatedAt time.Time
}

// Match is an entry returned by similarity search.
type Match struct {
	Entry    *Entry
	Distance float64
}
