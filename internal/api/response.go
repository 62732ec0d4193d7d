package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/mailerr"
)

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSONWithMeta sends a JSON response with pagination metadata.
func respondJSONWithMeta(w http.ResponseWriter, status int, data any, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	}

	json.NewEncoder(w).Encode(response)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondServiceError maps a typed service error to an HTTP response
// and logs it against the request-scoped logger.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := mailerr.Code(err)
	logging.FromContext(r.Context()).Warn("request failed", "code", code, "error", err)
	respondError(w, statusFor(code), code, err.Error())
}

// statusFor maps error codes to HTTP statuses. Upstream mail server
// failures surface as bad gateway rather than internal errors.
func statusFor(code string) int {
	switch code {
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "AUTHENTICATION_ERROR", "CONNECTION_ERROR", "PROTOCOL_ERROR":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondValidationError sends a validation error response.
func respondValidationError(w http.ResponseWriter, err error) {
	details := make(map[string]any)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e.Tag(), e.Param())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Details: details,
		},
	})
}

// formatValidationError formats a validation error message.
func formatValidationError(tag, param string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + param + " entries"
	case "max":
		return "must have at most " + param + " entries"
	default:
		return "invalid value"
	}
}

// decodeJSON decodes a JSON request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
