package model

import (
	"time"

	"medibook/shared/model"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID           = "id"
	FieldDoctorID     = "doctor_id"
	FieldLocationID   = "location_id"
	FieldPatientID    = "patient_id"
	FieldPatientName  = "patient_name"
	FieldPatientPhone = "patient_phone"
	FieldDate         = "date"
	FieldSlotLabel    = "slot_label"
	FieldSerialNo     = "serial_no"
	FieldType         = "type"
	FieldStatus       = "status"
	FieldFee          = "fee"
	FieldNotes        = "notes"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment is one booked visit. SerialNo is the patient's position for the
// (doctor, date) pair and is assigned by the repository at insert time, never
// by the caller. Date is stored as midnight UTC so every timezone agrees on
// which partition a booking lands in.
type Appointment struct {
	ID           string    `db:"id"`
	DoctorID     string    `db:"doctor_id"`
	LocationID   string    `db:"location_id"`
	PatientID    string    `db:"patient_id"`
	PatientName  string    `db:"patient_name"`
	PatientPhone string    `db:"patient_phone"`
	Date         time.Time `db:"date"`
	SlotLabel    string    `db:"slot_label"`
	SerialNo     int       `db:"serial_no"`
	Type         string    `db:"type"`
	Status       string    `db:"status"`
	Fee          int64     `db:"fee"`
	Notes        string    `db:"notes"`
	model.Metadata
}
