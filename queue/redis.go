package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPollTimeout = 5 * time.Second

// Redis is a reliable list queue: dequeued messages move atomically from the
// pending list to a processing list and are removed from it on Ack.
type Redis struct {
	client      *redis.Client
	pending     string
	processing  string
	pollTimeout time.Duration
	logger      *slog.Logger
}

// NewRedis creates a queue storing its lists under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "edicheck:analysis"
	}
	return &Redis{
		client:      client,
		pending:     prefix + ":pending",
		processing:  prefix + ":processing",
		pollTimeout: defaultPollTimeout,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger reporting dropped payloads.
func (q *Redis) WithLogger(logger *slog.Logger) *Redis {
	if logger != nil {
		q.logger = logger
	}
	return q
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedis(client, prefix), nil
}

func (q *Redis) Enqueue(ctx context.Context, documentID int64) (*Message, error) {
	msg := NewMessage(documentID)
	raw, err := msg.encode()
	if err != nil {
		return nil, err
	}
	if err := q.client.LPush(ctx, q.pending, raw).Err(); err != nil {
		return nil, fmt.Errorf("enqueue document %d: %w", documentID, err)
	}
	return msg, nil
}

func (q *Redis) Dequeue(ctx context.Context) (*Message, error) {
	for {
		raw, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", q.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue: %w", err)
		}
		msg, err := decodeMessage(raw)
		if err != nil {
			// unreadable payloads are dropped so they cannot block the list
			if rmErr := q.client.LRem(ctx, q.processing, 1, raw).Err(); rmErr != nil {
				q.logger.Error("drop malformed message failed", "error", rmErr)
			}
			q.logger.Warn("dropped malformed message", "error", err, "payload", truncate(raw, 256))
			continue
		}
		return msg, nil
	}
}

func (q *Redis) Ack(ctx context.Context, msg *Message) error {
	if err := q.client.LRem(ctx, q.processing, 1, msg.raw).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", msg.ID, err)
	}
	return nil
}

func (q *Redis) Nack(ctx context.Context, msg *Message) error {
	raw, err := msg.retry().encode()
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, msg.raw)
		pipe.LPush(ctx, q.pending, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("nack %s: %w", msg.ID, err)
	}
	return nil
}

// Recover moves messages abandoned in the processing list back to pending.
// Call it before starting workers, when no other consumer is running.
func (q *Redis) Recover(ctx context.Context) (int, error) {
	count := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.pending, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("recover: %w", err)
		}
		count++
	}
}

// Len returns the pending and processing list lengths.
func (q *Redis) Len(ctx context.Context) (pending, processing int64, err error) {
	if pending, err = q.client.LLen(ctx, q.pending).Result(); err != nil {
		return 0, 0, err
	}
	processing, err = q.client.LLen(ctx, q.processing).Result()
	return pending, processing, err
}

func (q *Redis) Close() error {
	return q.client.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
