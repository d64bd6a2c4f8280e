package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/accounts-server/internal/model"
)

type envelope struct {
	Data any `json:"data,omitempty"`
}

// statusForError maps service errors onto HTTP statuses. Lookup and
// credential failures collapse to 401 so the surface never distinguishes an
// unknown account from a bad credential; everything unexpected is a generic
// 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, model.ErrTwoFactorEnrolled):
		return http.StatusConflict
	case errors.Is(err, model.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int) {
	writeJSON(w, status, envelope{Data: statusData{Status: "FAILED"}})
}
