package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/okrs/internal/domain"
)

// PubSub announces committed objective changes over Redis channels.
type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// PublishObjectiveEvent sends ev as JSON to the objective's own channel and
// to the channel of its scope in one round trip.
func (ps *PubSub) PublishObjectiveEvent(ctx context.Context, ev domain.ObjectiveEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishObjectiveEvent: marshal: %w", err)
	}

	_, err = ps.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, ObjectiveChannel(ev.ObjectiveID), payload)
		pipe.Publish(ctx, ScopeChannel(ev.Scope), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishObjectiveEvent: %w", err)
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// ObjectiveChannel returns the Redis channel name for a single objective.
func ObjectiveChannel(objectiveID uuid.UUID) string {
	return "objective:" + objectiveID.String()
}

// ScopeChannel returns the Redis channel name for all objectives of a scope.
func ScopeChannel(scope domain.Scope) string {
	return "objectives:" + string(scope)
}
