package service

import (
	"context"
	"fmt"

	"medibook/config"
	"medibook/infras/otel"
	"medibook/internal/domains/doctor/model"
	"medibook/internal/domains/doctor/model/dto"
	"medibook/internal/domains/doctor/repository"
	scheduleService "medibook/internal/domains/schedule/service"
	"medibook/shared"
	"medibook/shared/cache"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllDoctor    = "doctor:gets"
	cacheCountDoctor     = "doctor:count"
	cacheGetAvailability = "doctor:availability"
)

type Doctor interface {
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetDoctorsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	GetAvailability(ctx context.Context, slug string) (dto.AvailabilityResponse, error)
	ReplaceWindows(ctx context.Context, slug string, req dto.ReplaceWindowsRequest) error
}

type serviceImpl struct {
	repo         repository.Doctor
	locationRepo repository.Location
	windowRepo   repository.Window
	schedule     scheduleService.Schedule
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(
	repo repository.Doctor,
	locationRepo repository.Location,
	windowRepo repository.Window,
	schedule scheduleService.Schedule,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Doctor {
	return &serviceImpl{
		repo:         repo,
		locationRepo: locationRepo,
		windowRepo:   windowRepo,
		schedule:     schedule,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetDoctorsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllDoctor, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for doctors")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count doctors")

		return res, fmt.Errorf("failed to count doctors: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctors")

		return res, fmt.Errorf("failed to get doctors: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save doctors to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountDoctor, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for doctor count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count doctors")

		return res, fmt.Errorf("failed to count doctors: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save doctor count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAvailability(ctx context.Context, slug string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetAvailability, slug)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for doctor availability")

		return res, nil
	}

	doctor, err := s.repo.Get(ctx, filterBySlug(slug))
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctor")

		return res, fmt.Errorf("failed to get doctor: %w", err)
	}

	if doctor.ID == constant.Empty {
		return res, failure.NotFound("doctor not found") // nolint:wrapcheck
	}

	locations, err := s.locationRepo.GetAll(ctx, gDto.QueryParams{}, filterByDoctorID(doctor.ID, model.LocationTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctor locations")

		return res, fmt.Errorf("failed to get doctor locations: %w", err)
	}

	windows, err := s.windowRepo.GetAll(ctx, gDto.QueryParams{}, filterByDoctorID(doctor.ID, model.WindowTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get availability windows")

		return res, fmt.Errorf("failed to get availability windows: %w", err)
	}

	res.FromModels(doctor, locations, windows)

	if next, ok := s.schedule.DefaultDate(model.Weekdays(windows)); ok {
		res.NextAvailableDate = next.Format(constant.DateOnlyFormat)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save doctor availability to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) ReplaceWindows(ctx context.Context, slug string, req dto.ReplaceWindowsRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReplaceWindows")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	doctor, err := s.repo.Get(ctx, filterBySlug(slug))
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctor")

		return fmt.Errorf("failed to get doctor: %w", err)
	}

	if doctor.ID == constant.Empty {
		return failure.NotFound("doctor not found") // nolint:wrapcheck
	}

	locations, err := s.locationRepo.GetAll(ctx, gDto.QueryParams{}, filterByDoctorID(doctor.ID, model.LocationTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctor locations")

		return fmt.Errorf("failed to get doctor locations: %w", err)
	}

	ownLocations := map[string]bool{}
	for _, location := range locations {
		ownLocations[location.ID] = true
	}

	windows := make([]model.AvailabilityWindow, len(req.Windows))

	for i, windowReq := range req.Windows {
		start, end, minErr := windowReq.Minutes()
		if minErr != nil {
			return failure.BadRequestFromString(fmt.Sprintf("window %d: invalid clock format: %v", i, minErr)) // nolint:wrapcheck
		}

		if start >= end {
			return failure.BadRequestFromString(fmt.Sprintf("window %d: start %s must be before end %s", i, windowReq.Start, windowReq.End)) // nolint:wrapcheck
		}

		if !ownLocations[windowReq.LocationID] {
			return failure.BadRequestFromString(fmt.Sprintf("window %d: location %s does not belong to this doctor", i, windowReq.LocationID)) // nolint:wrapcheck
		}

		window, modErr := windowReq.ToModel(doctor.ID, user)
		if modErr != nil {
			return failure.BadRequestFromString(fmt.Sprintf("window %d: invalid clock format: %v", i, modErr)) // nolint:wrapcheck
		}

		windows[i] = window
	}

	if err = s.windowRepo.ReplaceForDoctor(ctx, doctor.ID, windows); err != nil {
		log.Error().Err(err).Msg("failed to replace availability windows")

		return fmt.Errorf("failed to replace availability windows: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetAvailability, slug)); err != nil {
			log.Error().Err(err).Msg("failed to delete doctor availability from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllDoctor)
	}()

	return nil
}

func filterBySlug(slug string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldSlug,
				Operator: gDto.FilterOperatorEq,
				Value:    slug,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
			},
		},
	}
}

func filterByDoctorID(doctorID, table string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    table,
				Field:    model.FieldDoctorID,
				Operator: gDto.FilterOperatorEq,
				Value:    doctorID,
			},
		},
	}
}
