package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"medibook/infras/otel/mocks"
	doctorMocks "medibook/internal/domains/doctor/mocks"
	"medibook/internal/domains/queue/model"
	"medibook/internal/domains/queue/service"
	storeMocks "medibook/internal/domains/queue/store/mocks"
	"medibook/shared/failure"
)

func TestQueueService_Increment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCounter := storeMocks.NewMockCounter(ctrl)
	mockDoctorRepo := doctorMocks.NewMockDoctor(ctrl)

	svc := service.New(mockCounter, mockDoctorRepo, mocks.NewOtel())

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
		wantCode  int
		wantState model.State
	}{
		{
			name: "successful increment",
			setupMock: func() {
				mockDoctorRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockCounter.EXPECT().
					Increment(gomock.Any(), "dr-jane").
					Return(model.State{DoctorSlug: "dr-jane", Position: 3, Live: true}, nil)
			},
			wantState: model.State{DoctorSlug: "dr-jane", Position: 3, Live: true},
		},
		{
			name: "unknown doctor",
			setupMock: func() {
				mockDoctorRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Increment(context.Background(), "dr-jane")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantState.Position, res.Position)
			assert.Equal(t, tt.wantState.Live, res.Live)
		})
	}
}

func TestQueueService_Decrement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCounter := storeMocks.NewMockCounter(ctrl)
	mockDoctorRepo := doctorMocks.NewMockDoctor(ctrl)

	svc := service.New(mockCounter, mockDoctorRepo, mocks.NewOtel())

	tests := []struct {
		name            string
		currentPosition int64
		setupMock       func()
		wantPosition    int64
	}{
		{
			name:            "steps back one position",
			currentPosition: 2,
			setupMock: func() {
				mockDoctorRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockCounter.EXPECT().
					Decrement(gomock.Any(), "dr-jane").
					Return(model.State{DoctorSlug: "dr-jane", Position: 1, Live: true}, nil)
			},
			wantPosition: 1,
		},
		{
			// A caller at zero never mutates the store.
			name:            "no-op at zero",
			currentPosition: 0,
			setupMock: func() {
				mockDoctorRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockCounter.EXPECT().
					Get(gomock.Any(), "dr-jane").
					Return(model.State{DoctorSlug: "dr-jane", Position: 0}, nil)
			},
			wantPosition: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Decrement(context.Background(), "dr-jane", tt.currentPosition)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantPosition, res.Position)
		})
	}
}

func TestQueueService_Reset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCounter := storeMocks.NewMockCounter(ctrl)
	mockDoctorRepo := doctorMocks.NewMockDoctor(ctrl)

	svc := service.New(mockCounter, mockDoctorRepo, mocks.NewOtel())

	mockDoctorRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)

	mockCounter.EXPECT().
		Reset(gomock.Any(), "dr-jane").
		Return(model.State{DoctorSlug: "dr-jane", Position: 0, Live: false}, nil)

	res, err := svc.Reset(context.Background(), "dr-jane")

	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.Position)
	assert.False(t, res.Live)
}

func TestQueueService_Watch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCounter := storeMocks.NewMockCounter(ctrl)
	mockDoctorRepo := doctorMocks.NewMockDoctor(ctrl)

	svc := service.New(mockCounter, mockDoctorRepo, mocks.NewOtel())

	mockDoctorRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)

	states := make(chan model.State, 1)
	states <- model.State{DoctorSlug: "dr-jane", Position: 5, Live: true}

	cancelled := false
	mockCounter.EXPECT().
		Watch(gomock.Any(), "dr-jane").
		Return((<-chan model.State)(states), func() { cancelled = true })

	got, cancel, err := svc.Watch(context.Background(), "dr-jane")

	assert.NoError(t, err)

	state := <-got
	assert.Equal(t, int64(5), state.Position)

	cancel()
	assert.True(t, cancelled)
}
