package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"memobank/internal/app"
	"memobank/pkg/auth"
	"memobank/pkg/extract"
	"memobank/pkg/storage"
	"memobank/pkg/store"
)

// envelope is the uniform response shape: ok reports success, message carries
// the human-readable outcome, data the payload.
type envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{OK: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Message: msg})
}

// writeStoreError maps the typed domain errors onto HTTP statuses. Unknown
// errors report a generic 500 so internals never leak to the client.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateKey):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrReferentialConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrStorageBusy):
		writeError(w, http.StatusServiceUnavailable, "storage busy, retry shortly")
	case errors.Is(err, store.ErrAdminPasswordReset):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, extract.ErrExtraction):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
