package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/engine"
	"github.com/manna-labs/manna/internal/provider"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// maxBodyBytes caps request bodies; ask requests are small.
const maxBodyBytes = 1 << 20

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeEngineError maps engine errors onto HTTP statuses. Validation
// failures are the caller's fault; everything else surfaces as an
// internal error without leaking upstream details.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyQuery),
		errors.Is(err, engine.ErrQueryTooLong),
		errors.Is(err, engine.ErrInvalidDate),
		errors.Is(err, answer.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, provider.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, "provider_unconfigured", "provider API key is not configured")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to answer question")
	}
}
