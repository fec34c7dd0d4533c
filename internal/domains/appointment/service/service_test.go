package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"medibook/config"
	"medibook/infras/kafka"
	kafkaMocks "medibook/infras/kafka/mocks"
	"medibook/infras/otel/mocks"
	appointmentMocks "medibook/internal/domains/appointment/mocks"
	"medibook/internal/domains/appointment/model"
	"medibook/internal/domains/appointment/model/dto"
	"medibook/internal/domains/appointment/service"
	doctorMocks "medibook/internal/domains/doctor/mocks"
	doctorModel "medibook/internal/domains/doctor/model"
	scheduleModel "medibook/internal/domains/schedule/model"
	scheduleService "medibook/internal/domains/schedule/service"
	cacheMocks "medibook/shared/cache/mocks"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"
)

type appointmentFixture struct {
	repo         *appointmentMocks.MockAppointment
	doctorRepo   *doctorMocks.MockDoctor
	locationRepo *doctorMocks.MockLocation
	windowRepo   *doctorMocks.MockWindow
	broker       *kafkaMocks.MockClient
	cache        *cacheMocks.MockRedisCache
	svc          service.Appointment
}

func newAppointmentFixture(ctrl *gomock.Controller) *appointmentFixture {
	f := &appointmentFixture{
		repo:         appointmentMocks.NewMockAppointment(ctrl),
		doctorRepo:   doctorMocks.NewMockDoctor(ctrl),
		locationRepo: doctorMocks.NewMockLocation(ctrl),
		windowRepo:   doctorMocks.NewMockWindow(ctrl),
		broker:       kafkaMocks.NewMockClient(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.SearchHorizon = 365
	cfg.Booking.SerialMaxRetries = 2
	cfg.Kafka.Topics.AppointmentBooked = "appointment.booked"

	f.svc = service.New(
		f.repo,
		f.doctorRepo,
		f.locationRepo,
		f.windowRepo,
		scheduleService.New(cfg),
		f.broker,
		cfg,
		f.cache,
		mocks.NewOtel(),
	)

	return f
}

// mondayDate is 2026-03-02, a Monday.
const mondayDate = "2026-03-02"

func mondayWindows() []doctorModel.AvailabilityWindow {
	return []doctorModel.AvailabilityWindow{
		{
			ID:          "win-1",
			DoctorID:    "doc-1",
			LocationID:  "loc-a",
			Weekday:     int(time.Monday),
			StartMinute: 9 * 60,
			EndMinute:   12 * 60,
		},
	}
}

func (f *appointmentFixture) expectDoctorWithWindows() {
	f.doctorRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(doctorModel.Doctor{ID: "doc-1", Slug: "dr-jane", Active: true}, nil)

	f.windowRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(mondayWindows(), nil)
}

func TestAppointmentService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAppointmentFixture(ctrl)

	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	validReq := dto.CreateAppointmentRequest{
		DoctorSlug:  "dr-jane",
		Date:        mondayDate,
		SlotLabel:   "9:00 AM-12:00 PM",
		Type:        scheduleModel.ConsultationOnline,
		PatientName: "John Doe",
	}

	tests := []struct {
		name      string
		req       dto.CreateAppointmentRequest
		setupMock func(published chan struct{})
		wantErr   bool
		wantCode  int
		wantWait  bool
		check     func(t *testing.T, res dto.AppointmentResponse)
	}{
		{
			name: "successful booking publishes event",
			req:  validReq,
			setupMock: func(published chan struct{}) {
				f.expectDoctorWithWindows()

				f.locationRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctorModel.Location{ID: "loc-a", ConsultationFee: 500}, nil)

				f.repo.EXPECT().
					CreateWithSerial(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, appointment model.Appointment) (model.Appointment, error) {
						appointment.SerialNo = 1

						return appointment, nil
					})

				f.broker.EXPECT().
					SendMessages(gomock.Any(), "appointment.booked", gomock.Any()).
					DoAndReturn(func(context.Context, string, ...kafka.Message) error {
						published <- struct{}{}

						return nil
					})
			},
			wantWait: true,
			check: func(t *testing.T, res dto.AppointmentResponse) {
				assert.Equal(t, 1, res.SerialNo)
				assert.Equal(t, "9:00 AM-12:00 PM", res.SlotLabel)
				assert.Equal(t, mondayDate, res.Date)
				assert.Equal(t, model.StatusPending, res.Status)
				assert.Equal(t, int64(500), res.Fee)
			},
		},
		{
			name: "notification failure does not fail the booking",
			req:  validReq,
			setupMock: func(published chan struct{}) {
				f.expectDoctorWithWindows()

				f.locationRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctorModel.Location{ID: "loc-a", ConsultationFee: 500}, nil)

				f.repo.EXPECT().
					CreateWithSerial(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, appointment model.Appointment) (model.Appointment, error) {
						appointment.SerialNo = 2

						return appointment, nil
					})

				f.broker.EXPECT().
					SendMessages(gomock.Any(), "appointment.booked", gomock.Any()).
					DoAndReturn(func(context.Context, string, ...kafka.Message) error {
						published <- struct{}{}

						return errors.New("broker unavailable")
					})
			},
			wantWait: true,
			check: func(t *testing.T, res dto.AppointmentResponse) {
				assert.Equal(t, 2, res.SerialNo)
			},
		},
		{
			name: "slot not available on date",
			req: dto.CreateAppointmentRequest{
				DoctorSlug:  "dr-jane",
				Date:        mondayDate,
				SlotLabel:   "1:00 PM-2:00 PM",
				Type:        scheduleModel.ConsultationOnline,
				PatientName: "John Doe",
			},
			setupMock: func(chan struct{}) {
				f.expectDoctorWithWindows()
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed date",
			req: dto.CreateAppointmentRequest{
				DoctorSlug:  "dr-jane",
				Date:        "03/02/2026",
				SlotLabel:   "9:00 AM-12:00 PM",
				Type:        scheduleModel.ConsultationOnline,
				PatientName: "John Doe",
			},
			setupMock: func(chan struct{}) {
				f.expectDoctorWithWindows()
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown doctor",
			req:  validReq,
			setupMock: func(chan struct{}) {
				f.doctorRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctorModel.Doctor{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "contention surfaces as transient conflict",
			req:  validReq,
			setupMock: func(chan struct{}) {
				f.expectDoctorWithWindows()

				f.locationRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctorModel.Location{ID: "loc-a", ConsultationFee: 500}, nil)

				f.repo.EXPECT().
					CreateWithSerial(gomock.Any(), gomock.Any()).
					Return(model.Appointment{}, failure.Transient("could not complete the booking due to concurrent requests, please try again"))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			published := make(chan struct{}, 1)
			tt.setupMock(published)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "patient-1")
			res, err := f.svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)

			if tt.wantWait {
				select {
				case <-published:
				case <-time.After(time.Second):
					t.Fatal("booked event was never published")
				}
			}

			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestAppointmentService_Slots(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAppointmentFixture(ctrl)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name             string
		date             string
		consultationType string
		locationID       string
		setupMock        func()
		wantErr          bool
		wantCode         int
		check            func(t *testing.T, res dto.SlotsResponse)
	}{
		{
			name:             "slots for an explicit date",
			date:             mondayDate,
			consultationType: scheduleModel.ConsultationOnline,
			setupMock: func() {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.expectDoctorWithWindows()
			},
			check: func(t *testing.T, res dto.SlotsResponse) {
				assert.Equal(t, mondayDate, res.Date)
				assert.Len(t, res.Slots, 1)
				assert.Equal(t, "9:00 AM-12:00 PM", res.Slots[0].Label)
				assert.Equal(t, "2026-03-09", res.NextDate)
			},
		},
		{
			name:             "in-person without location rejected",
			date:             mondayDate,
			consultationType: scheduleModel.ConsultationInPerson,
			setupMock: func() {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.expectDoctorWithWindows()
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:             "doctor without windows has no upcoming availability",
			consultationType: scheduleModel.ConsultationOnline,
			setupMock: func() {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.doctorRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctorModel.Doctor{ID: "doc-1", Slug: "dr-jane", Active: true}, nil)

				f.windowRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]doctorModel.AvailabilityWindow{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := f.svc.Slots(context.Background(), "dr-jane", tt.date, tt.consultationType, tt.locationID)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestAppointmentService_GetMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAppointmentFixture(ctrl)

	t.Run("missing identity rejected", func(t *testing.T) {
		_, err := f.svc.GetMine(context.Background(), gDto.QueryParams{Limit: 10, Page: 1})

		assert.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})

	t.Run("lists own appointments", func(t *testing.T) {
		f.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss")).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		f.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Appointment{{ID: "apt-1", PatientID: "patient-1", SerialNo: 1}}, nil)

		f.cache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "patient-1")
		res, err := f.svc.GetMine(ctx, gDto.QueryParams{Limit: 10, Page: 1})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.TotalData)
		assert.Len(t, res.Appointments, 1)
	})
}

func TestAppointmentService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAppointmentFixture(ctrl)

	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		userID    string
		role      string
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name:   "patient cancels own appointment",
			userID: "patient-1",
			role:   constant.RolePatient,
			setupMock: func() {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Appointment{ID: "apt-1", PatientID: "patient-1", Status: model.StatusPending}, nil)

				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "patient cannot cancel another patient's appointment",
			userID: "patient-2",
			role:   constant.RolePatient,
			setupMock: func() {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Appointment{ID: "apt-1", PatientID: "patient-1", Status: model.StatusPending}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:   "staff cancels any appointment",
			userID: "staff-1",
			role:   constant.RoleStaff,
			setupMock: func() {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Appointment{ID: "apt-1", PatientID: "patient-1", Status: model.StatusConfirmed}, nil)

				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "already cancelled is a no-op",
			userID: "patient-1",
			role:   constant.RolePatient,
			setupMock: func() {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Appointment{ID: "apt-1", PatientID: "patient-1", Status: model.StatusCancelled}, nil)
			},
		},
		{
			name:   "missing appointment",
			userID: "patient-1",
			role:   constant.RolePatient,
			setupMock: func() {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Appointment{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, tt.userID)
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, tt.role)

			err := f.svc.Cancel(ctx, "apt-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAppointmentService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAppointmentFixture(ctrl)

	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	t.Run("empty update rejected", func(t *testing.T) {
		err := f.svc.Update(context.Background(), dto.UpdateAppointmentRequest{}, "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("missing appointment", func(t *testing.T) {
		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := f.svc.Update(context.Background(), dto.UpdateAppointmentRequest{Status: model.StatusConfirmed}, "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("staff corrects serial number", func(t *testing.T) {
		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)
		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, 7, fields[model.FieldSerialNo])

				return nil
			})

		err := f.svc.Update(context.Background(), dto.UpdateAppointmentRequest{SerialNo: 7}, "apt-1")

		assert.NoError(t, err)
	})

	t.Run("serial collision surfaces as conflict", func(t *testing.T) {
		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)
		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(failure.Conflict("serial number is already taken for this doctor and date"))

		err := f.svc.Update(context.Background(), dto.UpdateAppointmentRequest{SerialNo: 2}, "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}
