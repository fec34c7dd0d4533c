package service_test

import (
	"testing"
	"time"

	"medibook/config"
	doctorModel "medibook/internal/domains/doctor/model"
	"medibook/internal/domains/schedule/model"
	"medibook/internal/domains/schedule/service"

	"github.com/stretchr/testify/assert"
)

func newSchedule() service.Schedule {
	cfg := &config.Config{}
	cfg.Booking.SearchHorizon = 365

	return service.New(cfg)
}

// monday resolves to 2026-03-02, a Monday.
func monday() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

func TestResolveSlots(t *testing.T) {
	morning := doctorModel.AvailabilityWindow{
		DoctorID:    "doc-1",
		LocationID:  "loc-a",
		Weekday:     int(time.Monday),
		StartMinute: 9 * 60,
		EndMinute:   12 * 60,
	}
	evening := doctorModel.AvailabilityWindow{
		DoctorID:    "doc-1",
		LocationID:  "loc-b",
		Weekday:     int(time.Monday),
		StartMinute: 18 * 60,
		EndMinute:   21 * 60,
	}
	tuesday := doctorModel.AvailabilityWindow{
		DoctorID:    "doc-1",
		LocationID:  "loc-a",
		Weekday:     int(time.Tuesday),
		StartMinute: 9 * 60,
		EndMinute:   12 * 60,
	}

	tests := []struct {
		name             string
		windows          []doctorModel.AvailabilityWindow
		date             time.Time
		consultationType string
		locationID       string
		wantLabels       []string
		wantErr          bool
	}{
		{
			name:             "online spans every location",
			windows:          []doctorModel.AvailabilityWindow{morning, evening, tuesday},
			date:             monday(),
			consultationType: model.ConsultationOnline,
			wantLabels:       []string{"9:00 AM-12:00 PM", "6:00 PM-9:00 PM"},
		},
		{
			name:             "in-person pinned to one location",
			windows:          []doctorModel.AvailabilityWindow{morning, evening},
			date:             monday(),
			consultationType: model.ConsultationInPerson,
			locationID:       "loc-a",
			wantLabels:       []string{"9:00 AM-12:00 PM"},
		},
		{
			name:             "in-person never falls back to another location",
			windows:          []doctorModel.AvailabilityWindow{evening},
			date:             monday(),
			consultationType: model.ConsultationInPerson,
			locationID:       "loc-a",
			wantLabels:       []string{},
		},
		{
			name:             "in-person without location rejected",
			windows:          []doctorModel.AvailabilityWindow{morning},
			date:             monday(),
			consultationType: model.ConsultationInPerson,
			wantErr:          true,
		},
		{
			name: "identical windows at two locations collapse into one slot",
			windows: []doctorModel.AvailabilityWindow{
				morning,
				{
					DoctorID:    "doc-1",
					LocationID:  "loc-b",
					Weekday:     int(time.Monday),
					StartMinute: 9 * 60,
					EndMinute:   12 * 60,
				},
			},
			date:             monday(),
			consultationType: model.ConsultationOnline,
			wantLabels:       []string{"9:00 AM-12:00 PM"},
		},
		{
			name:             "non-sitting weekday yields no slots",
			windows:          []doctorModel.AvailabilityWindow{tuesday},
			date:             monday(),
			consultationType: model.ConsultationOnline,
			wantLabels:       []string{},
		},
		{
			name: "degenerate window skipped",
			windows: []doctorModel.AvailabilityWindow{
				{
					DoctorID:    "doc-1",
					LocationID:  "loc-a",
					Weekday:     int(time.Monday),
					StartMinute: 12 * 60,
					EndMinute:   12 * 60,
				},
			},
			date:             monday(),
			consultationType: model.ConsultationOnline,
			wantLabels:       []string{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := newSchedule()

			slots, err := svc.ResolveSlots(test.windows, test.date, test.consultationType, test.locationID)

			if test.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)

			labels := []string{}
			for _, slot := range slots {
				labels = append(labels, slot.Label)
			}
			assert.Equal(t, test.wantLabels, labels)
		})
	}
}

func TestResolveSlotsSortedByStart(t *testing.T) {
	windows := []doctorModel.AvailabilityWindow{
		{DoctorID: "doc-1", LocationID: "loc-a", Weekday: int(time.Monday), StartMinute: 18 * 60, EndMinute: 21 * 60},
		{DoctorID: "doc-1", LocationID: "loc-a", Weekday: int(time.Monday), StartMinute: 9 * 60, EndMinute: 12 * 60},
	}

	svc := newSchedule()

	slots, err := svc.ResolveSlots(windows, monday(), model.ConsultationOnline, "")

	assert.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.Equal(t, "9:00 AM-12:00 PM", slots[0].Label)
	assert.Equal(t, "6:00 PM-9:00 PM", slots[1].Label)
}

func TestNextAvailableDate(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		days     []time.Weekday
		want     time.Time
		wantSome bool
	}{
		{
			name:     "matching day counts as on-or-after",
			from:     monday(),
			days:     []time.Weekday{time.Monday},
			want:     monday(),
			wantSome: true,
		},
		{
			name:     "skips forward to the next sitting day",
			from:     monday(),
			days:     []time.Weekday{time.Thursday},
			want:     monday().AddDate(0, 0, 3),
			wantSome: true,
		},
		{
			name:     "time of day is dropped",
			from:     monday().Add(23 * time.Hour),
			days:     []time.Weekday{time.Monday},
			want:     monday(),
			wantSome: true,
		},
		{
			name: "no sitting days yields nothing",
			from: monday(),
			days: []time.Weekday{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := newSchedule()

			got, ok := svc.NextAvailableDate(test.from, test.days)

			assert.Equal(t, test.wantSome, ok)
			if test.wantSome {
				assert.True(t, test.want.Equal(got))
			}
		})
	}
}

// The search examines exactly SearchHorizon dates starting at from: with a
// horizon of 3, Monday through Wednesday are candidates and Thursday is out.
func TestNextAvailableDateHorizonBound(t *testing.T) {
	cfg := &config.Config{}
	cfg.Booking.SearchHorizon = 3
	svc := service.New(cfg)

	got, ok := svc.NextAvailableDate(monday(), []time.Weekday{time.Wednesday})
	assert.True(t, ok)
	assert.True(t, monday().AddDate(0, 0, 2).Equal(got))

	_, ok = svc.NextAvailableDate(monday(), []time.Weekday{time.Thursday})
	assert.False(t, ok)
}

func TestNextAfterIsStrictlyLater(t *testing.T) {
	svc := newSchedule()

	got, ok := svc.NextAfter(monday(), []time.Weekday{time.Monday})

	assert.True(t, ok)
	assert.True(t, got.After(monday()))
	assert.True(t, monday().AddDate(0, 0, 7).Equal(got))
}

func TestDefaultDateKeepsToday(t *testing.T) {
	svc := newSchedule()

	allDays := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}

	got, ok := svc.DefaultDate(allDays)

	assert.True(t, ok)

	now := time.Now()
	assert.Equal(t, now.Year(), got.Year())
	assert.Equal(t, now.YearDay(), got.YearDay())
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "9:00 AM-12:00 PM", service.SlotLabel(9*60, 12*60))
	assert.Equal(t, "12:00 AM-12:30 PM", service.SlotLabel(0, 12*60+30))
	assert.Equal(t, "6:05 PM-9:00 PM", service.SlotLabel(18*60+5, 21*60))
}
