package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/adityakr/videotube-be/internal/apperrors"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Success    bool        `json:"success"`
}

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Message:    message,
		Data:       data,
		Success:    true,
	})
}

// respondError maps a service error to the failure envelope. Internal
// causes are logged here and never serialized.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Message:    apperrors.ClientMessage(err),
		Success:    false,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, apperrors.Validation("invalid request body"))
		return false
	}
	return true
}

// decodeJSONQuiet decodes without reporting; used where the body itself
// is optional.
func decodeJSONQuiet(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
