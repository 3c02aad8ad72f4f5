// Package queue dispatches document analysis tasks to workers with
// at-least-once delivery.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue closed")
	// ErrMalformed marks a payload that does not decode into a Message.
	ErrMalformed = errors.New("malformed message")
)

// Message is a single analysis task.
type Message struct {
	ID         string    `json:"id"`
	DocumentID int64     `json:"documentId"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`

	raw string
}

// NewMessage creates a first attempt task for a document.
func NewMessage(documentID int64) *Message {
	return &Message{ID: uuid.NewString(), DocumentID: documentID, EnqueuedAt: time.Now().UTC()}
}

func (m *Message) retry() *Message {
	return &Message{ID: m.ID, DocumentID: m.DocumentID, Attempt: m.Attempt + 1, EnqueuedAt: time.Now().UTC()}
}

func (m *Message) encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMessage(raw string) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m.raw = raw
	return m, nil
}

// Queue is a task queue. Dequeued messages stay in flight until they are
// acknowledged or negatively acknowledged; Nack requeues the message with
// its attempt counter incremented.
type Queue interface {
	Enqueue(ctx context.Context, documentID int64) (*Message, error)
	Dequeue(ctx context.Context) (*Message, error)
	Ack(ctx context.Context, msg *Message) error
	Nack(ctx context.Context, msg *Message) error
	Close() error
}
