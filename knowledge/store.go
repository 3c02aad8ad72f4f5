package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/store"
	"github.com/viant/sqlite-vec/vector"
)

// Store persists knowledge entries and answers similarity queries.
type Store struct {
	store    *store.Store
	embedder embeddings.Embedder
}

func NewStore(s *store.Store, embedder embeddings.Embedder) *Store {
	return &Store{store: s, embedder: embedder}
}

// Add embeds ruleText and stores it as an approved entry.
func (s *Store) Add(ctx context.Context, topic, ruleText string) (*Entry, error) {
	return s.AddWithStatus(ctx, topic, ruleText, StatusApproved)
}

// AddWithStatus embeds ruleText and stores it with the given status.
func (s *Store) AddWithStatus(ctx context.Context, topic, ruleText string, status Status) (*Entry, error) {
	ruleText = strings.TrimSpace(ruleText)
	if ruleText == "" {
		return nil, fmt.Errorf("rule text required")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	vec, err := s.embedder.EmbedQuery(ctx, ruleText)
	if err != nil {
		return nil, fmt.Errorf("embed rule: %w", err)
	}
	return s.Insert(ctx, &Entry{Topic: topic, RuleText: ruleText, Status: status, Embedding: vec})
}

// Insert stores a pre-embedded entry. All entries must share one dimension.
func (s *Store) Insert(ctx context.Context, entry *Entry) (*Entry, error) {
	if len(entry.Embedding) == 0 {
		return nil, fmt.Errorf("embedding required")
	}
	if _, err := ParseStatus(string(entry.Status)); err != nil {
		return nil, err
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return nil, err
	}
	if dim > 0 && dim != len(entry.Embedding) {
		return nil, fmt.Errorf("embedding dimension %d does not match store dimension %d", len(entry.Embedding), dim)
	}
	blob, err := vector.EncodeEmbedding(entry.Embedding)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	entry.CreatedAt = time.Now().UTC()
	err = s.store.QueryRowContext(ctx, `INSERT INTO knowledge_entry(topic, rule_text, status, embedding, dimension, created_at)
VALUES(?,?,?,?,?,?) RETURNING id`, entry.Topic, entry.RuleText, string(entry.Status), blob, len(entry.Embedding), entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("insert knowledge entry: %w", err)
	}
	return entry, nil
}

// SetStatus moves an entry to another review state.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := s.store.ExecContext(ctx, `UPDATE knowledge_entry SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update knowledge entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("knowledge entry %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// Count returns the number of entries in any status.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.store.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entry`).Scan(&n)
	return n, err
}

// Search returns up to k approved entries closest to query by L2 distance,
// ordered by distance with ties broken by ascending id.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	rows, err := s.store.QueryContext(ctx, `SELECT id, topic, rule_text, status, embedding, created_at
FROM knowledge_entry WHERE status = ? ORDER BY id`, string(StatusApproved))
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var (
			entry  Entry
			status string
			blob   []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Topic, &entry.RuleText, &status, &blob, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Status = Status(status)
		if entry.Embedding, err = vector.DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("decode knowledge entry %d: %w", entry.ID, err)
		}
		distance, err := L2(query, entry.Embedding)
		if err != nil {
			return nil, fmt.Errorf("knowledge entry %d: %w", entry.ID, err)
		}
		matches = append(matches, Match{Entry: &entry, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rank(matches, k), nil
}

// SearchRules returns the rule texts of Search in rank order.
func (s *Store) SearchRules(ctx context.Context, query []float32, k int) ([]string, error) {
	matches, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	rules := make([]string, 0, len(matches))
	for _, m := range matches {
		rules = append(rules, m.Entry.RuleText)
	}
	return rules, nil
}

func (s *Store) dimension(ctx context.Context) (int, error) {
	var dim int
	err := s.store.QueryRowContext(ctx, `SELECT COALESCE(MAX(dimension), 0) FROM knowledge_entry`).Scan(&dim)
	if err != nil {
		return 0, fmt.Errorf("knowledge dimension: %w", err)
	}
	return dim, nil
}
