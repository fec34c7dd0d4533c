package validator_test

import (
	"medibook/shared/validator"
	"strings"
	"testing"
)

type windowTestStruct struct {
	Start   string `validate:"required,clock"    json:"start"`
	End     string `validate:"required,clock"    json:"end"`
	Date    string `validate:"required,dateonly" json:"date"`
	Weekday int    `validate:"gte=0,lte=6"       json:"weekday"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		data        *windowTestStruct
		expectError bool
	}{
		{
			name: "valid struct",
			data: &windowTestStruct{
				Start:   "09:00",
				End:     "12:00",
				Date:    "2026-03-02",
				Weekday: 1,
			},
			expectError: false,
		},
		{
			name: "missing required field",
			data: &windowTestStruct{
				End:     "12:00",
				Date:    "2026-03-02",
				Weekday: 1,
			},
			expectError: true,
		},
		{
			name: "clock with am/pm suffix",
			data: &windowTestStruct{
				Start:   "9:00 AM",
				End:     "12:00",
				Date:    "2026-03-02",
				Weekday: 1,
			},
			expectError: true,
		},
		{
			name: "clock out of range",
			data: &windowTestStruct{
				Start:   "25:00",
				End:     "12:00",
				Date:    "2026-03-02",
				Weekday: 1,
			},
			expectError: true,
		},
		{
			name: "date in wrong order",
			data: &windowTestStruct{
				Start:   "09:00",
				End:     "12:00",
				Date:    "02-03-2026",
				Weekday: 1,
			},
			expectError: true,
		},
		{
			name: "weekday out of range",
			data: &windowTestStruct{
				Start:   "09:00",
				End:     "12:00",
				Date:    "2026-03-02",
				Weekday: 7,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(tt.data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name        string
		field       any
		tag         string
		expectError bool
	}{
		{
			name:        "valid clock",
			field:       "18:30",
			tag:         "clock",
			expectError: false,
		},
		{
			name:        "invalid clock",
			field:       "6:30 pm",
			tag:         "clock",
			expectError: true,
		},
		{
			name:        "valid date",
			field:       "2026-12-31",
			tag:         "dateonly",
			expectError: false,
		},
		{
			name:        "invalid date",
			field:       "31/12/2026",
			tag:         "dateonly",
			expectError: true,
		},
		{
			name:        "valid consultation type",
			field:       "in_person",
			tag:         "oneof=in_person online",
			expectError: false,
		},
		{
			name:        "invalid consultation type",
			field:       "walk_in",
			tag:         "oneof=in_person online",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid body",
			body:        `{"start":"09:00","end":"12:00","date":"2026-03-02","weekday":1}`,
			expectError: false,
		},
		{
			name:        "malformed json",
			body:        `{"start":`,
			expectError: true,
		},
		{
			name:        "invalid field",
			body:        `{"start":"late","end":"12:00","date":"2026-03-02","weekday":1}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data windowTestStruct
			err := validator.Validate(strings.NewReader(tt.body), &data)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}
