package model

// Consultation types a slot can be resolved for.
const (
	ConsultationInPerson = "in_person"
	ConsultationOnline   = "online"
)

// Slot is a bookable unit derived from an availability window. One window
// produces exactly one slot; the label doubles as the identity patients pick
// when booking.
type Slot struct {
	Label       string `json:"label"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	LocationID  string `json:"location_id,omitempty"`
}
