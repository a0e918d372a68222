package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldforce-api/internal/domain"
)

// Envelope is the generic response wrapper. Domain failures ("not clocked
// in", "nothing to close") travel as success:false with HTTP 200; non-2xx
// codes are reserved for malformed requests and auth.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, msg string, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: data})
}

// writeFailure reports an expected domain state: HTTP 200, success false.
func writeFailure(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, Envelope{Success: false, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Error: msg})
}

// writeServiceError maps a service error to an envelope. Expected domain
// states keep their message; anything else (storage already logged by the
// service) is masked.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotClockedIn), errors.Is(err, domain.ErrNothingToClose):
		writeFailure(w, err.Error())
	default:
		writeFailure(w, "please try again")
	}
}
