package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"medibook/config"
	"medibook/infras/otel/mocks"
	doctorMocks "medibook/internal/domains/doctor/mocks"
	"medibook/internal/domains/doctor/model"
	"medibook/internal/domains/doctor/model/dto"
	"medibook/internal/domains/doctor/service"
	scheduleService "medibook/internal/domains/schedule/service"
	cacheMocks "medibook/shared/cache/mocks"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"
	"medibook/shared/timezone"
)

func TestDoctorService_GetAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := doctorMocks.NewMockDoctor(ctrl)
	mockLocationRepo := doctorMocks.NewMockLocation(ctrl)
	mockWindowRepo := doctorMocks.NewMockWindow(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.SearchHorizon = 365

	schedule := scheduleService.New(cfg)

	svc := service.New(mockRepo, mockLocationRepo, mockWindowRepo, schedule, cfg, mockCache, mockOtel)

	doctor := model.Doctor{
		ID:        "doc-1",
		Slug:      "dr-jane",
		Name:      "Dr. Jane",
		Specialty: "Cardiology",
		Active:    true,
	}

	tests := []struct {
		name      string
		slug      string
		setupMock func()
		wantErr   bool
		wantCode  int
		check     func(t *testing.T, res dto.AvailabilityResponse)
	}{
		{
			name: "availability with next date",
			slug: "dr-jane",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(doctor, nil)

				mockLocationRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Location{{ID: "loc-a", DoctorID: "doc-1", Name: "Main Clinic", ConsultationFee: 500, FollowUpFee: 300, FollowUpValidityDays: 14}}, nil)

				windows := []model.AvailabilityWindow{}
				for day := 0; day <= 6; day++ {
					windows = append(windows, model.AvailabilityWindow{
						ID:          "win-1",
						DoctorID:    "doc-1",
						LocationID:  "loc-a",
						Weekday:     day,
						StartMinute: 9 * 60,
						EndMinute:   12 * 60,
					})
				}

				mockWindowRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(windows, nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			check: func(t *testing.T, res dto.AvailabilityResponse) {
				assert.Equal(t, "dr-jane", res.Slug)
				assert.Len(t, res.Locations, 1)
				assert.Len(t, res.Windows, 7)
				assert.Equal(t, timezone.Now().Format(constant.DateOnlyFormat), res.NextAvailableDate)
			},
		},
		{
			name: "doctor not found",
			slug: "nobody",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Doctor{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "repository error",
			slug: "dr-jane",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Doctor{}, errors.New("database error"))
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.GetAvailability(context.Background(), tt.slug)

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

func TestDoctorService_ReplaceWindows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := doctorMocks.NewMockDoctor(ctrl)
	mockLocationRepo := doctorMocks.NewMockLocation(ctrl)
	mockWindowRepo := doctorMocks.NewMockWindow(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.SearchHorizon = 365

	schedule := scheduleService.New(cfg)

	svc := service.New(mockRepo, mockLocationRepo, mockWindowRepo, schedule, cfg, mockCache, mockOtel)

	doctor := model.Doctor{ID: "doc-1", Slug: "dr-jane", Active: true}
	locations := []model.Location{{ID: "loc-a", DoctorID: "doc-1"}}

	expectDoctorWithLocations := func() {
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(doctor, nil)

		mockLocationRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(locations, nil)
	}

	tests := []struct {
		name      string
		req       dto.ReplaceWindowsRequest
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful replace",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-a", Weekday: 1, Start: "09:00", End: "12:00"},
				},
			},
			setupMock: func() {
				expectDoctorWithLocations()

				mockWindowRepo.EXPECT().
					ReplaceForDoctor(gomock.Any(), "doc-1", gomock.Any()).
					Return(nil)

				mockCache.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "start at or after end rejected",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-a", Weekday: 1, Start: "12:00", End: "09:00"},
				},
			},
			setupMock: expectDoctorWithLocations,
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "zero-length window rejected",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-a", Weekday: 1, Start: "09:00", End: "09:00"},
				},
			},
			setupMock: expectDoctorWithLocations,
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "foreign location rejected",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-z", Weekday: 1, Start: "09:00", End: "12:00"},
				},
			},
			setupMock: expectDoctorWithLocations,
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "malformed clock rejected",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-a", Weekday: 1, Start: "9am", End: "12:00"},
				},
			},
			setupMock: expectDoctorWithLocations,
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "doctor not found",
			req: dto.ReplaceWindowsRequest{
				Windows: []dto.WindowRequest{
					{LocationID: "loc-a", Weekday: 1, Start: "09:00", End: "12:00"},
				},
			},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Doctor{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.ReplaceWindows(ctx, "dr-jane", tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDoctorService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := doctorMocks.NewMockDoctor(ctrl)
	mockLocationRepo := doctorMocks.NewMockLocation(ctrl)
	mockWindowRepo := doctorMocks.NewMockWindow(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.SearchHorizon = 365

	schedule := scheduleService.New(cfg)

	svc := service.New(mockRepo, mockLocationRepo, mockWindowRepo, schedule, cfg, mockCache, mockOtel)

	tests := []struct {
		name       string
		params     gDto.QueryParams
		setupMock  func()
		wantErr    bool
		wantResult dto.GetDoctorsResponse
	}{
		{
			name:   "successful get all",
			params: gDto.QueryParams{Limit: 10, Page: 1},
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss")).
					Times(2)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(1, nil)

				mockRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Doctor{{ID: "doc-1", Slug: "dr-jane", Name: "Dr. Jane", Active: true}}, nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantResult: dto.GetDoctorsResponse{TotalData: 1, TotalPage: 1},
		},
		{
			name:   "count error",
			params: gDto.QueryParams{Limit: 10, Page: 1},
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss")).
					Times(2)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, errors.New("count error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := svc.GetAll(context.Background(), tt.params, gDto.FilterGroup{})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantResult.TotalData, result.TotalData)
				assert.Equal(t, tt.wantResult.TotalPage, result.TotalPage)
			}
		})
	}
}
