package model

import (
	"time"

	"medibook/shared/model"
)

const (
	TableName  = "doctors"
	EntityName = "doctor"

	LocationTableName  = "doctor_locations"
	LocationEntityName = "doctor_location"

	WindowTableName  = "availability_windows"
	WindowEntityName = "availability_window"

	FieldID          = "id"
	FieldSlug        = "slug"
	FieldName        = "name"
	FieldSpecialty   = "specialty"
	FieldActive      = "active"
	FieldDoctorID    = "doctor_id"
	FieldLocationID  = "location_id"
	FieldAddress     = "address"
	FieldWeekday     = "weekday"
	FieldStartMinute = "start_minute"
	FieldEndMinute   = "end_minute"
)

type Doctor struct {
	ID        string `db:"id"`
	Slug      string `db:"slug"`
	Name      string `db:"name"`
	Specialty string `db:"specialty"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Active    bool   `db:"active"`
	model.Metadata
}

// Location is one place a doctor consults at, with its fee schedule. A
// follow-up visit within the validity window is billed at the follow-up fee.
type Location struct {
	ID                   string `db:"id"`
	DoctorID             string `db:"doctor_id"`
	Name                 string `db:"name"`
	Address              string `db:"address"`
	ConsultationFee      int64  `db:"consultation_fee"`
	FollowUpFee          int64  `db:"follow_up_fee"`
	FollowUpValidityDays int    `db:"follow_up_validity_days"`
	Active               bool   `db:"active"`
	model.Metadata
}

// AvailabilityWindow is a recurring weekly window during which a doctor sees
// patients at one location. Weekday follows time.Weekday numbering, Sunday = 0.
// Start and end are minutes since midnight; a window is valid only when start
// is strictly before end.
type AvailabilityWindow struct {
	ID          string `db:"id"`
	DoctorID    string `db:"doctor_id"`
	LocationID  string `db:"location_id"`
	Weekday     int    `db:"weekday"`
	StartMinute int    `db:"start_minute"`
	EndMinute   int    `db:"end_minute"`
	model.Metadata
}

// Weekdays returns the distinct weekdays covered by the given windows.
func Weekdays(windows []AvailabilityWindow) []time.Weekday {
	seen := map[time.Weekday]bool{}
	days := []time.Weekday{}

	for _, window := range windows {
		day := time.Weekday(window.Weekday)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	return days
}
