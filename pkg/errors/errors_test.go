package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorsMapToHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("no identity"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), CodeForbidden, http.StatusForbidden},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithIDCarriesDetails(t *testing.T) {
	err := NotFoundWithID("Booking", "abc123")
	if err.Details["entity"] != "Booking" || err.Details["id"] != "abc123" {
		t.Errorf("Details = %v, want entity/id populated", err.Details)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("storage failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestAsAppErrorPassesThrough(t *testing.T) {
	original := Conflict("slot taken")
	got := AsAppError(original)
	if got != original {
		t.Error("expected the same AppError back")
	}
}

func TestAsAppErrorWrapsUnknown(t *testing.T) {
	got := AsAppError(errors.New("raw driver error"))
	if got.Code != CodeInternal {
		t.Errorf("Code = %q, want %q", got.Code, CodeInternal)
	}
	if got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want 500", got.StatusCode())
	}
}
