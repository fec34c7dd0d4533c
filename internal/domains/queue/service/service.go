package service

import (
	"context"
	"fmt"

	"medibook/infras/otel"
	doctorModel "medibook/internal/domains/doctor/model"
	doctorRepo "medibook/internal/domains/doctor/repository"
	"medibook/internal/domains/queue/model"
	"medibook/internal/domains/queue/store"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"

	"github.com/rs/zerolog/log"
)

type Queue interface {
	Increment(ctx context.Context, slug string) (model.State, error)
	Decrement(ctx context.Context, slug string, currentPosition int64) (model.State, error)
	Reset(ctx context.Context, slug string) (model.State, error)
	Get(ctx context.Context, slug string) (model.State, error)
	Watch(ctx context.Context, slug string) (<-chan model.State, func(), error)
}

type serviceImpl struct {
	counter    store.Counter
	doctorRepo doctorRepo.Doctor
	otel       otel.Otel
}

func New(counter store.Counter, docRepo doctorRepo.Doctor, otel otel.Otel) Queue {
	return &serviceImpl{
		counter:    counter,
		doctorRepo: docRepo,
		otel:       otel,
	}
}

func (s *serviceImpl) Increment(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".queue.Increment")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.verifyDoctor(ctx, slug); err != nil {
		return res, err
	}

	res, err = s.counter.Increment(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to increment queue")

		return res, fmt.Errorf("failed to increment queue: %w", err)
	}

	return res, nil
}

// Decrement steps the queue back one position. The zero floor is checked
// against the position the caller already holds, so a device showing zero
// never mutates the store; the current state is read back for the response.
func (s *serviceImpl) Decrement(ctx context.Context, slug string, currentPosition int64) (res model.State, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".queue.Decrement")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.verifyDoctor(ctx, slug); err != nil {
		return res, err
	}

	if currentPosition == 0 {
		res, err = s.counter.Get(ctx, slug)
		if err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("failed to get queue state")

			return res, fmt.Errorf("failed to get queue state: %w", err)
		}

		return res, nil
	}

	res, err = s.counter.Decrement(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to decrement queue")

		return res, fmt.Errorf("failed to decrement queue: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) Reset(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".queue.Reset")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.verifyDoctor(ctx, slug); err != nil {
		return res, err
	}

	res, err = s.counter.Reset(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to reset queue")

		return res, fmt.Errorf("failed to reset queue: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, slug string) (res model.State, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".queue.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.counter.Get(ctx, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to get queue state")

		return res, fmt.Errorf("failed to get queue state: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) Watch(ctx context.Context, slug string) (<-chan model.State, func(), error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".queue.Watch")
	defer scope.End()

	if err := s.verifyDoctor(ctx, slug); err != nil {
		scope.TraceError(err)

		return nil, nil, err
	}

	states, cancel := s.counter.Watch(ctx, slug)

	return states, cancel, nil
}

func (s *serviceImpl) verifyDoctor(ctx context.Context, slug string) error {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    doctorModel.TableName,
				Field:    doctorModel.FieldSlug,
				Operator: gDto.FilterOperatorEq,
				Value:    slug,
			},
		},
	}

	exist, err := s.doctorRepo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to check if doctor exists")

		return fmt.Errorf("failed to check if doctor exists: %w", err)
	}

	if !exist {
		return failure.NotFound("doctor not found") // nolint:wrapcheck
	}

	return nil
}
