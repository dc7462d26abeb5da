package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON renders data as a 200 JSON response. Encode failures after the
// status line has gone out can only be logged, not reported to the client.
func WriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		Logger.Errorf("failed to encode JSON response: %v", err)
	}
}
