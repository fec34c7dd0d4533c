package store

//go:generate go run go.uber.org/mock/mockgen -source=./store.go -destination=./mocks/store_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"medibook/infras/otel"
	"medibook/internal/domains/queue/model"
	"medibook/shared/constant"
	"medibook/shared/timezone"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "queue:"
	channelPrefix = "queue:events:"

	fieldPosition  = "position"
	fieldLive      = "live"
	fieldUpdatedAt = "updated_at"
)

// Counter holds the live queue position in Redis. Increments use the store's
// native atomic counter so concurrent staff clicks never lose an update.
// Every mutation is published so stream subscribers see it immediately.
type Counter interface {
	Increment(ctx context.Context, slug string) (model.State, error)
	Decrement(ctx context.Context, slug string) (model.State, error)
	Reset(ctx context.Context, slug string) (model.State, error)
	Get(ctx context.Context, slug string) (model.State, error)
	Watch(ctx context.Context, slug string) (<-chan model.State, func())
}

type counterImpl struct {
	client *goRedis.Client
	otel   otel.Otel
}

func New(client *goRedis.Client, otel otel.Otel) Counter {
	return &counterImpl{
		client: client,
		otel:   otel,
	}
}

func (c *counterImpl) Increment(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Increment")
	defer scope.End()
	defer scope.TraceIfError(err)

	return c.shift(ctx, slug, 1)
}

func (c *counterImpl) Decrement(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Decrement")
	defer scope.End()
	defer scope.TraceIfError(err)

	return c.shift(ctx, slug, -1)
}

// shift applies the delta with HIncrBy and republishes the new state. A
// negative result is snapped back to zero; the service refuses decrements at
// zero before they reach here, this only guards racing decrements.
func (c *counterImpl) shift(ctx context.Context, slug string, delta int64) (model.State, error) {
	now := timezone.Now()
	key := keyPrefix + slug

	pipe := c.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, fieldPosition, delta)
	pipe.HSet(ctx, key, fieldLive, "1", fieldUpdatedAt, now.Format(time.RFC3339Nano))

	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to shift queue position")

		return model.State{}, fmt.Errorf("failed to shift queue position: %w", err)
	}

	position := incr.Val()
	if position < 0 {
		position = 0

		if err := c.client.HSet(ctx, key, fieldPosition, "0").Err(); err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("failed to clamp queue position")

			return model.State{}, fmt.Errorf("failed to clamp queue position: %w", err)
		}
	}

	state := model.State{
		DoctorSlug: slug,
		Position:   position,
		Live:       true,
		UpdatedAt:  now,
	}

	c.publish(ctx, state)

	return state, nil
}

// Reset clears the counter at the end of a session. Position drops to zero
// and the queue goes off-live; the appointment ledger is untouched.
func (c *counterImpl) Reset(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Reset")
	defer scope.End()
	defer scope.TraceIfError(err)

	now := timezone.Now()
	key := keyPrefix + slug

	err = c.client.HSet(ctx, key,
		fieldPosition, "0",
		fieldLive, "0",
		fieldUpdatedAt, now.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to reset queue")

		return model.State{}, fmt.Errorf("failed to reset queue: %w", err)
	}

	state := model.State{
		DoctorSlug: slug,
		Position:   0,
		Live:       false,
		UpdatedAt:  now,
	}

	c.publish(ctx, state)

	return state, nil
}

func (c *counterImpl) Get(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	fields, err := c.client.HGetAll(ctx, keyPrefix+slug).Result()
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to get queue state")

		return model.State{}, fmt.Errorf("failed to get queue state: %w", err)
	}

	state := model.State{DoctorSlug: slug}

	if raw, ok := fields[fieldPosition]; ok {
		if position, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			state.Position = position
		}
	}

	state.Live = fields[fieldLive] == "1"

	if raw, ok := fields[fieldUpdatedAt]; ok {
		if updatedAt, convErr := time.Parse(time.RFC3339Nano, raw); convErr == nil {
			state.UpdatedAt = updatedAt
		}
	}

	return state, nil
}

// Watch subscribes to queue updates for one doctor. The returned cancel
// function must be called to release the subscription.
func (c *counterImpl) Watch(ctx context.Context, slug string) (<-chan model.State, func()) {
	sub := c.client.Subscribe(ctx, channelPrefix+slug)
	states := make(chan model.State, 8)

	go func() {
		defer close(states)

		for msg := range sub.Channel() {
			var state model.State

			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				log.Error().Err(err).Str("slug", slug).Msg("failed to decode queue event")

				continue
			}

			select {
			case states <- state:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("failed to close queue subscription")
		}
	}

	return states, cancel
}

func (c *counterImpl) publish(ctx context.Context, state model.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Str("slug", state.DoctorSlug).Msg("failed to encode queue event")

		return
	}

	if err := c.client.Publish(ctx, channelPrefix+state.DoctorSlug, payload).Err(); err != nil {
		log.Error().Err(err).Str("slug", state.DoctorSlug).Msg("failed to publish queue event")
	}
}
