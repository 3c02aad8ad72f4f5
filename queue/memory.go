package queue

import (
	"context"
	"sync"
)

// Memory is an in-process queue.
type Memory struct {
	mu       sync.Mutex
	pending  []*Message
	inflight map[string]*Message
	notify   chan struct{}
	done     chan struct{}
	closed   bool
}

func NewMemory() *Memory {
	return &Memory{
		inflight: map[string]*Message{},
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (q *Memory) Enqueue(ctx context.Context, documentID int64) (*Message, error) {
	msg := NewMessage(documentID)
	if err := q.push(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (q *Memory) push(msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, msg)
	q.signal()
	return nil
}

func (q *Memory) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Dequeue blocks until a message is available, the context ends or the
// queue is closed.
func (q *Memory) Dequeue(ctx context.Context) (*Message, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		if len(q.pending) > 0 {
			msg := q.pending[0]
			q.pending = q.pending[1:]
			q.inflight[msg.ID] = msg
			if len(q.pending) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return msg, nil
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
			return nil, ErrClosed
		case <-q.notify:
		}
	}
}

func (q *Memory) Ack(ctx context.Context, msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, msg.ID)
	return nil
}

func (q *Memory) Nack(ctx context.Context, msg *Message) error {
	q.mu.Lock()
	delete(q.inflight, msg.ID)
	q.mu.Unlock()
	return q.push(msg.retry())
}

// Len returns the number of pending and in flight messages.
func (q *Memory) Len() (pending, inflight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.inflight)
}

func (q *Memory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
