package handlers

import (
	"errors"
	"net/http"
	"reflect"

	"splitledger/internal/ledger"
	"splitledger/pkg/utils"
)

// UserIDFromRequest pulls the authenticated user id set by the JWT
// middleware. JSON numbers arrive as float64.
func UserIDFromRequest(r *http.Request) (int, bool) {
	idFloat, ok := r.Context().Value(utils.ContextKey("userId")).(float64)
	if !ok {
		return 0, false
	}
	return int(idFloat), true
}

// WriteDomainError maps the ledger error taxonomy onto HTTP statuses and the
// standard error envelope. Persistence detail never reaches the caller.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		validation  *ledger.ValidationError
		conflict    *ledger.ConflictError
		refusal     *ledger.RefusalError
		notFound    *ledger.NotFoundError
		persistence *ledger.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		utils.WriteErrorCode(w, validation.Code(), validation.Error(), http.StatusBadRequest)
	case errors.As(err, &conflict):
		utils.WriteErrorCode(w, conflict.Code(), conflict.Error(), http.StatusConflict)
	case errors.As(err, &refusal):
		utils.WriteErrorCode(w, refusal.Code(), refusal.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		utils.WriteErrorCode(w, notFound.Code(), notFound.Error(), http.StatusNotFound)
	case errors.As(err, &persistence):
		utils.Logger.Errorf("persistence failure: %v", persistence.Unwrap())
		utils.WriteErrorCode(w, persistence.Code(), "internal server error", http.StatusInternalServerError)
	default:
		utils.Logger.Errorf("unclassified error: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

// CheckBlankFields rejects structs with empty string fields; used on
// registration input.
func CheckBlankFields(value interface{}) error {
	val := reflect.ValueOf(value)
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() == reflect.String && field.String() == "" {
			return errors.New("all fields are required")
		}
	}
	return nil
}
