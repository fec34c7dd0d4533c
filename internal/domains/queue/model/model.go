package model

import (
	"time"
)

const (
	EntityName = "queue"
)

// State is the live serial position displayed in the waiting room. It moves
// independently of the appointment ledger: calling the next patient never
// touches booked rows, and resetting the counter never cancels bookings.
type State struct {
	DoctorSlug string    `json:"doctor_slug"`
	Position   int64     `json:"position"`
	Live       bool      `json:"live"`
	UpdatedAt  time.Time `json:"updated_at"`
}
