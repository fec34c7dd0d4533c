package failure_test

import (
	"errors"
	"fmt"
	"medibook/shared/failure"
	"net/http"
	"testing"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	if f.Error() != "test error message" {
		t.Errorf("expected error message to be 'test error message', got %s", f.Error())
	}
}

func TestPredefinedFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure *failure.Failure
		code    int
		message string
	}{
		{
			name:    "InvalidPageParam",
			failure: failure.InvalidPageParam,
			code:    http.StatusBadRequest,
			message: "invalid page parameter",
		},
		{
			name:    "InvalidLimitParam",
			failure: failure.InvalidLimitParam,
			code:    http.StatusBadRequest,
			message: "invalid limit parameter",
		},
		{
			name:    "ForbiddenError",
			failure: failure.ForbiddenError,
			code:    http.StatusForbidden,
			message: "You don't have the required permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.failure.Code != tt.code {
				t.Errorf("expected code to be %d, got %d", tt.code, tt.failure.Code)
			}
			if tt.failure.Message != tt.message {
				t.Errorf("expected message to be %s, got %s", tt.message, tt.failure.Message)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "BadRequestFromString",
			err:  failure.BadRequestFromString("bad input"),
			code: http.StatusBadRequest,
		},
		{
			name: "Unauthorized",
			err:  failure.Unauthorized("missing token"),
			code: http.StatusUnauthorized,
		},
		{
			name: "Forbidden",
			err:  failure.Forbidden("not yours"),
			code: http.StatusForbidden,
		},
		{
			name: "NotFound",
			err:  failure.NotFound("doctor not found"),
			code: http.StatusNotFound,
		},
		{
			name: "Conflict",
			err:  failure.Conflict("already exists"),
			code: http.StatusConflict,
		},
		{
			name: "Transient",
			err:  failure.Transient("try again"),
			code: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.GetCode(tt.err); got != tt.code {
				t.Errorf("expected code to be %d, got %d", tt.code, got)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := failure.GetCode(errors.New("plain error")); got != http.StatusInternalServerError {
		t.Errorf("expected plain errors to map to %d, got %d", http.StatusInternalServerError, got)
	}

	wrapped := fmt.Errorf("outer: %w", failure.NotFound("missing"))
	if got := failure.GetCode(wrapped); got != http.StatusNotFound {
		t.Errorf("expected wrapped failure code to be %d, got %d", http.StatusNotFound, got)
	}
}

func TestIsTransient(t *testing.T) {
	if !failure.IsTransient(failure.Transient("try again")) {
		t.Error("expected transient failure to be retryable")
	}

	if !failure.IsTransient(fmt.Errorf("outer: %w", failure.Transient("try again"))) {
		t.Error("expected wrapped transient failure to be retryable")
	}

	if failure.IsTransient(failure.NotFound("missing")) {
		t.Error("expected not-found failure to not be retryable")
	}

	if failure.IsTransient(errors.New("plain error")) {
		t.Error("expected plain error to not be retryable")
	}
}
