package dispatch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/pkg/platform/sentinel"
)

// RedisDispatcher appends each command to a Redis stream.
type RedisDispatcher struct {
	client *redis.Client
	stream string
	maxLen int64
}

type RedisOption func(*RedisDispatcher)

// WithMaxLen caps the stream length (approximate trimming). Zero disables it.
func WithMaxLen(n int64) RedisOption {
	return func(d *RedisDispatcher) {
		d.maxLen = n
	}
}

func NewRedis(client *redis.Client, stream string, opts ...RedisOption) *RedisDispatcher {
	d := &RedisDispatcher{client: client, stream: stream}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, _ models.Credential, cmd models.DispatchCommand) error {
	payload, err := Encode(cmd)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]any{
			"payload":          payload,
			"operation":        string(cmd.Operation),
			"target_reference": cmd.TargetReference,
		},
	}
	if d.maxLen > 0 {
		args.MaxLen = d.maxLen
		args.Approx = true
	}
	if err := d.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("append %s for case %s: %w: %w", cmd.Operation, cmd.TargetReference, sentinel.ErrUnavailable, err)
	}
	return nil
}
