package service

import (
	"context"
	"fmt"
	"time"

	"medibook/config"
	"medibook/infras/kafka"
	"medibook/infras/otel"
	"medibook/internal/domains/appointment/model"
	"medibook/internal/domains/appointment/model/dto"
	"medibook/internal/domains/appointment/repository"
	doctorModel "medibook/internal/domains/doctor/model"
	doctorRepo "medibook/internal/domains/doctor/repository"
	scheduleModel "medibook/internal/domains/schedule/model"
	scheduleService "medibook/internal/domains/schedule/service"
	"medibook/shared"
	"medibook/shared/cache"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"
	"medibook/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAppointment    = "appointment:get"
	cacheGetAllAppointment = "appointment:gets"
	cacheCountAppointment  = "appointment:count"
	cacheGetSlots          = "appointment:slots"
)

type Appointment interface {
	Slots(ctx context.Context, slug, date, consultationType, locationID string) (dto.SlotsResponse, error)
	Create(ctx context.Context, req dto.CreateAppointmentRequest) (dto.AppointmentResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetAppointmentsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.AppointmentResponse, error)
	GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetAppointmentsResponse, error)
	Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) error
	Cancel(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo         repository.Appointment
	doctorRepo   doctorRepo.Doctor
	locationRepo doctorRepo.Location
	windowRepo   doctorRepo.Window
	schedule     scheduleService.Schedule
	broker       kafka.Client
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(
	repo repository.Appointment,
	docRepo doctorRepo.Doctor,
	locationRepo doctorRepo.Location,
	windowRepo doctorRepo.Window,
	schedule scheduleService.Schedule,
	broker kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Appointment {
	return &serviceImpl{
		repo:         repo,
		doctorRepo:   docRepo,
		locationRepo: locationRepo,
		windowRepo:   windowRepo,
		schedule:     schedule,
		broker:       broker,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

// Slots resolves the bookable slots for a doctor on one date. When no date is
// given, the first sitting date on or after today is used.
func (s *serviceImpl) Slots(ctx context.Context, slug, date, consultationType, locationID string) (res dto.SlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Slots")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetSlots, slug, date, consultationType, locationID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slots")

		return res, nil
	}

	doctor, windows, err := s.doctorWindows(ctx, slug)
	if err != nil {
		return res, err
	}

	days := doctorModel.Weekdays(windows)

	selected, err := s.selectDate(date, days)
	if err != nil {
		return res, err
	}

	slots, err := s.schedule.ResolveSlots(windows, selected, consultationType, locationID)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	res = dto.SlotsResponse{
		Slug:  doctor.Slug,
		Date:  selected.Format(constant.DateOnlyFormat),
		Type:  consultationType,
		Slots: slots,
	}

	if next, ok := s.schedule.NextAfter(selected, days); ok {
		res.NextDate = next.Format(constant.DateOnlyFormat)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slots to cache")
		}
	}()

	return res, nil
}

// Create books an appointment. The requested slot must resolve from the
// doctor's windows for the requested date; the serial number comes back from
// the allocation transaction. The booked event is published best-effort and
// never fails the booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAppointmentRequest) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	doctor, windows, err := s.doctorWindows(ctx, req.DoctorSlug)
	if err != nil {
		return res, err
	}

	date, err := timezone.Parse(constant.DateOnlyFormat, req.Date)
	if err != nil {
		return res, failure.BadRequestFromString("invalid date format, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	slots, err := s.schedule.ResolveSlots(windows, date, req.Type, req.LocationID)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	slot, found := findSlot(slots, req.SlotLabel)
	if !found {
		return res, failure.BadRequestFromString(fmt.Sprintf("slot %q is not available on %s", req.SlotLabel, req.Date)) // nolint:wrapcheck
	}

	fee, err := s.slotFee(ctx, slot)
	if err != nil {
		return res, err
	}

	appointment := req.ToModel(doctor.ID, slot, date, fee, user)

	created, err := s.repo.CreateWithSerial(ctx, appointment)
	if err != nil {
		log.Error().Err(err).Msg("failed to create appointment")

		if failure.IsTransient(err) {
			return res, err // nolint:wrapcheck
		}

		return res, fmt.Errorf("failed to create appointment: %w", err)
	}

	go s.publishBooked(ctx, doctor, created)

	res.FromModel(created)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetAppointmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllAppointment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointments")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments")

		return res, fmt.Errorf("failed to count appointments: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointments")

		return res, fmt.Errorf("failed to get appointments: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountAppointment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointment count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments")

		return res, fmt.Errorf("failed to count appointments: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointment count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetAppointment, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointment")

		return res, nil
	}

	appointment, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment")

		return res, fmt.Errorf("failed to get appointment: %w", err)
	}

	if appointment.ID == constant.Empty {
		return res, failure.NotFound("appointment not found") // nolint:wrapcheck
	}

	res.FromModel(appointment)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointment to cache")
		}
	}()

	return res, nil
}

// GetMine lists the caller's own appointments.
func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (res dto.GetAppointmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		return res, failure.Unauthorized("missing user identity") // nolint:wrapcheck
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldPatientID,
				Operator: gDto.FilterOperatorEq,
				Value:    user,
			},
		},
	}

	return s.GetAll(ctx, req, filter)
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateAppointmentRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if appointment exists")

		return fmt.Errorf("failed to check if appointment exists: %w", err)
	}

	if !exist {
		return failure.NotFound("appointment not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update appointment")

		return fmt.Errorf("failed to update appointment: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// Cancel flips the appointment to cancelled. Patients may only cancel their
// own bookings; staff may cancel any.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	appointment, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment")

		return fmt.Errorf("failed to get appointment: %w", err)
	}

	if appointment.ID == constant.Empty {
		return failure.NotFound("appointment not found") // nolint:wrapcheck
	}

	if role == constant.RolePatient && appointment.PatientID != user {
		return failure.Forbidden("you can only cancel your own appointments") // nolint:wrapcheck
	}

	if appointment.Status == model.StatusCancelled {
		return nil
	}

	updatedFields := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to cancel appointment")

		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) doctorWindows(ctx context.Context, slug string) (doctorModel.Doctor, []doctorModel.AvailabilityWindow, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    doctorModel.TableName,
				Field:    doctorModel.FieldSlug,
				Operator: gDto.FilterOperatorEq,
				Value:    slug,
			},
			gDto.Filter{
				Table:    doctorModel.TableName,
				Field:    doctorModel.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    true,
			},
		},
	}

	doctor, err := s.doctorRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get doctor")

		return doctor, nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	if doctor.ID == constant.Empty {
		return doctor, nil, failure.NotFound("doctor not found") // nolint:wrapcheck
	}

	windowFilter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    doctorModel.WindowTableName,
				Field:    doctorModel.FieldDoctorID,
				Operator: gDto.FilterOperatorEq,
				Value:    doctor.ID,
			},
		},
	}

	windows, err := s.windowRepo.GetAll(ctx, gDto.QueryParams{}, windowFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get availability windows")

		return doctor, nil, fmt.Errorf("failed to get availability windows: %w", err)
	}

	return doctor, windows, nil
}

func (s *serviceImpl) selectDate(date string, days []time.Weekday) (time.Time, error) {
	if date == constant.Empty {
		selected, ok := s.schedule.DefaultDate(days)
		if !ok {
			return time.Time{}, failure.NotFound("doctor has no upcoming availability") // nolint:wrapcheck
		}

		return selected, nil
	}

	selected, err := timezone.Parse(constant.DateOnlyFormat, date)
	if err != nil {
		return time.Time{}, failure.BadRequestFromString("invalid date format, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	return selected, nil
}

func (s *serviceImpl) slotFee(ctx context.Context, slot scheduleModel.Slot) (int64, error) {
	if slot.LocationID == constant.Empty {
		return 0, nil
	}

	location, err := s.locationRepo.Get(ctx, shared.FilterByID(slot.LocationID, doctorModel.FieldID, doctorModel.LocationTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get location fee")

		return 0, fmt.Errorf("failed to get location fee: %w", err)
	}

	return location.ConsultationFee, nil
}

func (s *serviceImpl) publishBooked(ctx context.Context, doctor doctorModel.Doctor, appointment model.Appointment) {
	c := context.WithoutCancel(ctx)

	event := dto.AppointmentBookedEvent{
		AppointmentID: appointment.ID,
		DoctorID:      appointment.DoctorID,
		DoctorSlug:    doctor.Slug,
		PatientName:   appointment.PatientName,
		PatientPhone:  appointment.PatientPhone,
		Date:          appointment.Date.Format(constant.DateOnlyFormat),
		SlotLabel:     appointment.SlotLabel,
		SerialNo:      appointment.SerialNo,
		Type:          appointment.Type,
	}

	err := s.broker.SendMessages(c, s.cfg.Kafka.Topics.AppointmentBooked, kafka.Message{
		Key:   appointment.ID,
		Value: event,
	})
	if err != nil {
		log.Error().Err(err).Str("appointmentID", appointment.ID).Msg("failed to publish booked event")
	}

	s.invalidate(c, appointment.ID)
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetAppointment, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete appointment from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllAppointment)
		shared.InvalidateCaches(c, s.cache, cacheCountAppointment)
	}()
}

func findSlot(slots []scheduleModel.Slot, label string) (scheduleModel.Slot, bool) {
	for _, slot := range slots {
		if slot.Label == label {
			return slot, true
		}
	}

	return scheduleModel.Slot{}, false
}
