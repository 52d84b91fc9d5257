package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"saldo/internal/core"
)

func TestResponseForError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		retryAfter bool
	}{
		{"validation", core.FieldError("amount", core.ErrInvalidAmount), http.StatusUnprocessableEntity, false},
		{"wrapped validation", core.Transient("create", core.FieldError("name", core.ErrEmptyName)), http.StatusUnprocessableEntity, false},
		{"not found", fmt.Errorf("get account: %w", core.ErrNotFound), http.StatusNotFound, false},
		{"transient", core.Transient("create transaction", errors.New("database is locked")), http.StatusServiceUnavailable, true},
		{"missing identity", errMissingIdentity, http.StatusUnauthorized, false},
		{"bad json", &decodeError{err: errors.New("eof")}, http.StatusBadRequest, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ResponseForError(tt.err).Write(rr)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Retry-After") != ""; got != tt.retryAfter {
				t.Fatalf("Retry-After present = %v", got)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Fatalf("content type = %q", rr.Header().Get("Content-Type"))
			}
		})
	}
}

func TestValidationBodyCarriesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	ValidationErrorResponse(map[string]string{"date": "invalid date"}).Write(rr)

	body := decode[ErrorBody](t, rr)
	if body.Error != "validation failed" || body.Fields["date"] != "invalid date" {
		t.Fatalf("body = %+v", body)
	}
}

func TestBuilderWithoutBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Header("X-Test", "1").Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 || rr.Header().Get("X-Test") != "1" {
		t.Fatalf("got %d %q %v", rr.Code, rr.Body.String(), rr.Header())
	}
}

func TestTooManyRequestsMinimumRetry(t *testing.T) {
	rr := httptest.NewRecorder()
	TooManyRequestsError(0).Write(rr)
	if rr.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
}
