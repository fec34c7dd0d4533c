package dto

import (
	"time"

	"medibook/internal/domains/appointment/model"
	scheduleModel "medibook/internal/domains/schedule/model"
	"medibook/shared"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	gModel "medibook/shared/model"
	"medibook/shared/timezone"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	DoctorSlug   string `json:"doctor_slug"   validate:"required"`
	Date         string `json:"date"          validate:"required,dateonly"`
	SlotLabel    string `json:"slot_label"    validate:"required"`
	Type         string `json:"type"          validate:"required,oneof=in_person online"`
	LocationID   string `json:"location_id"   validate:"omitempty"`
	PatientName  string `json:"patient_name"  validate:"required,max=100"`
	PatientPhone string `json:"patient_phone" validate:"omitempty,max=20"`
	Notes        string `json:"notes"         validate:"omitempty"`
}

// ToModel builds the appointment to insert. SerialNo stays zero here; the
// repository assigns it inside the allocation transaction.
func (c *CreateAppointmentRequest) ToModel(doctorID string, slot scheduleModel.Slot, date time.Time, fee int64, user string) model.Appointment {
	return model.Appointment{
		ID:           uuid.NewString(),
		DoctorID:     doctorID,
		LocationID:   slot.LocationID,
		PatientID:    user,
		PatientName:  c.PatientName,
		PatientPhone: c.PatientPhone,
		Date:         timezone.CalendarDay(date),
		SlotLabel:    slot.Label,
		Type:         c.Type,
		Status:       model.StatusPending,
		Fee:          fee,
		Notes:        c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateAppointmentRequest lets staff correct a record after the fact,
// including a serial number that was assigned or entered wrongly.
type UpdateAppointmentRequest struct {
	Status   string `db:"status"    json:"status"    validate:"omitempty,oneof=pending confirmed cancelled completed"`
	SerialNo int    `db:"serial_no" json:"serial_no" validate:"omitempty,gte=1"`
	Notes    string `db:"notes"     json:"notes"     validate:"omitempty"`
}

type AppointmentResponse struct {
	ID           string `json:"id"`
	DoctorID     string `json:"doctor_id"`
	LocationID   string `json:"location_id,omitempty"`
	PatientID    string `json:"patient_id"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	Date         string `json:"date"`
	SlotLabel    string `json:"slot_label"`
	SerialNo     int    `json:"serial_no"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Fee          int64  `json:"fee"`
	Notes        string `json:"notes,omitempty"`
	gDto.Metadata
}

func (r *AppointmentResponse) FromModel(appointment model.Appointment) {
	r.ID = appointment.ID
	r.DoctorID = appointment.DoctorID
	r.LocationID = appointment.LocationID
	r.PatientID = appointment.PatientID
	r.PatientName = appointment.PatientName
	r.PatientPhone = appointment.PatientPhone
	r.Date = appointment.Date.Format(constant.DateOnlyFormat)
	r.SlotLabel = appointment.SlotLabel
	r.SerialNo = appointment.SerialNo
	r.Type = appointment.Type
	r.Status = appointment.Status
	r.Fee = appointment.Fee
	r.Notes = appointment.Notes
	r.Metadata.FromModel(appointment.Metadata)
}

type GetAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetAppointmentsResponse) FromModels(models []model.Appointment, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Appointments = make([]AppointmentResponse, len(models))
	for i, mod := range models {
		r.Appointments[i].FromModel(mod)
	}
}

type SlotsResponse struct {
	Slug     string               `json:"slug"`
	Date     string               `json:"date"`
	Type     string               `json:"type"`
	Slots    []scheduleModel.Slot `json:"slots"`
	NextDate string               `json:"next_date,omitempty"`
}

// AppointmentBookedEvent is published after a booking commits so downstream
// consumers (SMS, email) can notify the patient.
type AppointmentBookedEvent struct {
	AppointmentID string `json:"appointment_id"`
	DoctorID      string `json:"doctor_id"`
	DoctorSlug    string `json:"doctor_slug"`
	PatientName   string `json:"patient_name"`
	PatientPhone  string `json:"patient_phone,omitempty"`
	Date          string `json:"date"`
	SlotLabel     string `json:"slot_label"`
	SerialNo      int    `json:"serial_no"`
	Type          string `json:"type"`
}
