package service

import (
	"sort"
	"time"

	"medibook/config"
	doctorModel "medibook/internal/domains/doctor/model"
	"medibook/internal/domains/schedule/model"
	"medibook/shared/constant"
	"medibook/shared/failure"
	"medibook/shared/timezone"
)

// Schedule turns a doctor's weekly availability windows into concrete slots
// and dates. It is deliberately free of storage concerns so the same rules
// apply on the booking write path and the read path.
type Schedule interface {
	ResolveSlots(windows []doctorModel.AvailabilityWindow, date time.Time, consultationType, locationID string) ([]model.Slot, error)
	NextAvailableDate(from time.Time, days []time.Weekday) (time.Time, bool)
	NextAfter(selected time.Time, days []time.Weekday) (time.Time, bool)
	DefaultDate(days []time.Weekday) (time.Time, bool)
}

type serviceImpl struct {
	cfg *config.Config
}

func New(cfg *config.Config) Schedule {
	return &serviceImpl{
		cfg: cfg,
	}
}

// ResolveSlots resolves the bookable slots for one calendar date. In-person
// consultations are pinned to a single location and never fall back to
// another one; online consultations span every location the doctor sits at.
// Windows sharing a label collapse into one slot.
func (s *serviceImpl) ResolveSlots(windows []doctorModel.AvailabilityWindow, date time.Time, consultationType, locationID string) ([]model.Slot, error) {
	if consultationType == model.ConsultationInPerson && locationID == constant.Empty {
		return nil, failure.BadRequestFromString("location is required for in-person consultations") // nolint:wrapcheck
	}

	weekday := int(date.Weekday())
	seen := map[string]bool{}
	slots := []model.Slot{}

	for _, window := range windows {
		if window.Weekday != weekday {
			continue
		}

		if window.StartMinute >= window.EndMinute {
			continue
		}

		if consultationType == model.ConsultationInPerson && window.LocationID != locationID {
			continue
		}

		label := SlotLabel(window.StartMinute, window.EndMinute)
		if seen[label] {
			continue
		}

		seen[label] = true
		slots = append(slots, model.Slot{
			Label:       label,
			StartMinute: window.StartMinute,
			EndMinute:   window.EndMinute,
			LocationID:  window.LocationID,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartMinute < slots[j].StartMinute
	})

	return slots, nil
}

// NextAvailableDate returns the first date on or after from that falls on one
// of the given weekdays. The search is bounded by the configured horizon; a
// doctor with no sitting days yields no date rather than an endless scan.
func (s *serviceImpl) NextAvailableDate(from time.Time, days []time.Weekday) (time.Time, bool) {
	if len(days) == 0 {
		return time.Time{}, false
	}

	sits := map[time.Weekday]bool{}
	for _, day := range days {
		sits[day] = true
	}

	// horizon dates inclusive of from itself
	horizon := s.cfg.Booking.SearchHorizon
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	for offset := 0; offset < horizon; offset++ {
		candidate := start.AddDate(0, 0, offset)
		if sits[candidate.Weekday()] {
			return candidate, true
		}
	}

	return time.Time{}, false
}

// NextAfter finds the next sitting date strictly after the selected one.
func (s *serviceImpl) NextAfter(selected time.Time, days []time.Weekday) (time.Time, bool) {
	return s.NextAvailableDate(selected.AddDate(0, 0, 1), days)
}

// DefaultDate picks the initial date shown to a patient. Today counts when
// the doctor sits today.
func (s *serviceImpl) DefaultDate(days []time.Weekday) (time.Time, bool) {
	return s.NextAvailableDate(timezone.Now(), days)
}

// SlotLabel renders the 12-hour clock label a patient books against,
// e.g. "9:00 AM-12:00 PM".
func SlotLabel(startMinute, endMinute int) string {
	return clock12(startMinute) + "-" + clock12(endMinute)
}

func clock12(minute int) string {
	return time.Date(0, 1, 1, minute/60, minute%60, 0, 0, time.UTC).Format(constant.Clock12Format)
}
