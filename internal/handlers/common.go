package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"direct-messenger-backend/internal/apperr"

	"github.com/rs/zerolog/log"
	"github.com/thedevsaddam/govalidator"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusCode maps a service error to its HTTP status
func statusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondServiceError logs err and writes the matching status. Domain error
// messages are passed through; anything else is reported as fallback.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	code := statusCode(err)

	message := fallback
	switch {
	case apperr.IsDomain(err):
		log.Debug().Err(err).Int("status", code).Msg(fallback)
		message = err.Error()
	case code == http.StatusServiceUnavailable:
		log.Error().Err(err).Msg(fallback)
		message = "service temporarily unavailable"
	default:
		log.Error().Err(err).Msg(fallback)
	}

	respondError(w, message, code)
}

// decodeJSON decodes and validates the request body against rules. On
// failure it writes a 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, data any, rules govalidator.MapData) bool {
	v := govalidator.New(govalidator.Options{
		Request: r,
		Data:    data,
		Rules:   rules,
	})
	if e := v.ValidateJSON(); len(e) != 0 {
		respondError(w, validationMessage(e), http.StatusBadRequest)
		return false
	}
	return true
}

// validationMessage flattens govalidator errors into one deterministic line
func validationMessage(e map[string][]string) string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, strings.Join(e[field], "; "))
	}
	return strings.Join(parts, "; ")
}
