package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"splitledger/internal/ledger"
)

func TestWriteDomainErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation maps to 400",
			err:        &ledger.ValidationError{Message: "amount must be positive"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ledger.CodeValidation,
		},
		{
			name:       "conflict maps to 409",
			err:        &ledger.ConflictError{Message: "duplicate expense"},
			wantStatus: http.StatusConflict,
			wantCode:   ledger.CodeConflict,
		},
		{
			name:       "refusal maps to 400",
			err:        &ledger.RefusalError{Reason: ledger.ReasonSoleAdmin, Message: "cannot remove the only admin"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ledger.CodeRefusal,
		},
		{
			name:       "not found maps to 404",
			err:        &ledger.NotFoundError{Message: "group not found"},
			wantStatus: http.StatusNotFound,
			wantCode:   ledger.CodeNotFound,
		},
		{
			name:       "persistence maps to 500",
			err:        &ledger.PersistenceError{Message: "failed to fetch splits"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ledger.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body struct {
				Status string `json:"status"`
				Code   string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body.Status != "error" {
				t.Errorf("body status = %q, want %q", body.Status, "error")
			}
			if body.Code != tt.wantCode {
				t.Errorf("body code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestWriteDomainErrorHidesPersistenceDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, &ledger.PersistenceError{Message: "failed to fetch splits"})

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Message != "internal server error" {
		t.Errorf("message = %q, want the generic internal error text", body.Message)
	}
}

func TestCheckBlankFields(t *testing.T) {
	type form struct {
		Username string
		Email    string
	}

	if err := CheckBlankFields(form{Username: "ada", Email: "ada@example.com"}); err != nil {
		t.Errorf("expected no error for filled form, got %v", err)
	}
	if err := CheckBlankFields(form{Username: "ada"}); err == nil {
		t.Error("expected error for blank email")
	}
}
