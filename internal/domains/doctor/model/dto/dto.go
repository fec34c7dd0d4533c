package dto

import (
	"time"

	"medibook/internal/domains/doctor/model"
	"medibook/shared"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	gModel "medibook/shared/model"
	"medibook/shared/timezone"

	"github.com/google/uuid"
)

type WindowRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	Weekday    int    `json:"weekday"     validate:"gte=0,lte=6"`
	Start      string `json:"start"       validate:"required,clock"`
	End        string `json:"end"         validate:"required,clock"`
}

// Minutes converts the clock strings into minutes since midnight. Format
// errors are caught by validation before this is called.
func (w *WindowRequest) Minutes() (start, end int, err error) {
	startClock, err := time.Parse(constant.ClockFormat, w.Start)
	if err != nil {
		return 0, 0, err
	}

	endClock, err := time.Parse(constant.ClockFormat, w.End)
	if err != nil {
		return 0, 0, err
	}

	return startClock.Hour()*60 + startClock.Minute(), endClock.Hour()*60 + endClock.Minute(), nil
}

func (w *WindowRequest) ToModel(doctorID, user string) (model.AvailabilityWindow, error) {
	start, end, err := w.Minutes()
	if err != nil {
		return model.AvailabilityWindow{}, err
	}

	return model.AvailabilityWindow{
		ID:          uuid.NewString(),
		DoctorID:    doctorID,
		LocationID:  w.LocationID,
		Weekday:     w.Weekday,
		StartMinute: start,
		EndMinute:   end,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type ReplaceWindowsRequest struct {
	Windows []WindowRequest `json:"windows" validate:"required,dive"`
}

type WindowResponse struct {
	LocationID string `json:"location_id"`
	Weekday    int    `json:"weekday"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func (r *WindowResponse) FromModel(window model.AvailabilityWindow) {
	r.LocationID = window.LocationID
	r.Weekday = window.Weekday
	r.Start = clockFromMinute(window.StartMinute)
	r.End = clockFromMinute(window.EndMinute)
}

func clockFromMinute(minute int) string {
	return time.Date(0, 1, 1, minute/60, minute%60, 0, 0, time.UTC).Format(constant.ClockFormat)
}

type LocationResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Address              string `json:"address"`
	ConsultationFee      int64  `json:"consultation_fee"`
	FollowUpFee          int64  `json:"follow_up_fee"`
	FollowUpValidityDays int    `json:"follow_up_validity_days"`
}

func (r *LocationResponse) FromModel(location model.Location) {
	r.ID = location.ID
	r.Name = location.Name
	r.Address = location.Address
	r.ConsultationFee = location.ConsultationFee
	r.FollowUpFee = location.FollowUpFee
	r.FollowUpValidityDays = location.FollowUpValidityDays
}

type AvailabilityResponse struct {
	DoctorID          string             `json:"doctor_id"`
	Slug              string             `json:"slug"`
	Name              string             `json:"name"`
	Specialty         string             `json:"specialty"`
	Locations         []LocationResponse `json:"locations"`
	Windows           []WindowResponse   `json:"windows"`
	NextAvailableDate string             `json:"next_available_date,omitempty"`
}

func (r *AvailabilityResponse) FromModels(doctor model.Doctor, locations []model.Location, windows []model.AvailabilityWindow) {
	r.DoctorID = doctor.ID
	r.Slug = doctor.Slug
	r.Name = doctor.Name
	r.Specialty = doctor.Specialty

	r.Locations = make([]LocationResponse, len(locations))
	for i, location := range locations {
		r.Locations[i].FromModel(location)
	}

	r.Windows = make([]WindowResponse, len(windows))
	for i, window := range windows {
		r.Windows[i].FromModel(window)
	}
}

type DoctorResponse struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Active    bool   `json:"active"`
	gDto.Metadata
}

func (r *DoctorResponse) FromModel(doctor model.Doctor) {
	r.ID = doctor.ID
	r.Slug = doctor.Slug
	r.Name = doctor.Name
	r.Specialty = doctor.Specialty
	r.Email = doctor.Email
	r.Phone = doctor.Phone
	r.Active = doctor.Active
	r.Metadata.FromModel(doctor.Metadata)
}

type GetDoctorsResponse struct {
	Doctors   []DoctorResponse `json:"doctors"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetDoctorsResponse) FromModels(models []model.Doctor, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Doctors = make([]DoctorResponse, len(models))
	for i, mod := range models {
		r.Doctors[i].FromModel(mod)
	}
}
