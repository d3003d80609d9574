package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/validation"
	"github.com/teamposts/teamposts/internal/database/dberr"
)

// Messages shared by handlers and middleware.
const (
	MsgValidation   = "Validation failed. Please check your input data."
	MsgUnauthorized = "Invalid or missing API key"
	MsgRateLimited  = "Rate limit exceeded. Please try again later."
	MsgIntegrity    = "Database constraint violation. The requested operation conflicts with existing data."
	MsgDatabase     = "A database error occurred. Please try again later."
	MsgInternal     = "An unexpected error occurred. Please try again later."
)

// Error is the body of every non-2xx response.
type Error struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

// Envelope wraps an Error under the "detail" key.
type Envelope struct {
	Detail Error `json:"detail"`
}

var statusCodes = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusUnauthorized:        "UNAUTHORIZED",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusMethodNotAllowed:    "METHOD_NOT_ALLOWED",
	http.StatusConflict:            "CONFLICT",
	http.StatusUnprocessableEntity: "VALIDATION_ERROR",
	http.StatusTooManyRequests:     "RATE_LIMITED",
	http.StatusInternalServerError: "INTERNAL_ERROR",
	http.StatusBadGateway:          "BAD_GATEWAY",
	http.StatusServiceUnavailable:  "SERVICE_UNAVAILABLE",
}

// CodeForStatus returns the error code used when only a status is known.
func CodeForStatus(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}

// NewError builds an error body. status_code, and request_id when non-empty,
// are always added to details.
func NewError(status int, code, message string, details map[string]any, requestID string) Error {
	d := make(map[string]any, len(details)+2)
	for k, v := range details {
		d[k] = v
	}
	d["status_code"] = status
	if requestID != "" {
		d["request_id"] = requestID
	}
	return Error{Error: message, Code: code, Details: d}
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes an error envelope without extra details.
func Err(w http.ResponseWriter, status int, code, message, requestID string) {
	ErrWithDetails(w, status, code, message, nil, requestID)
}

// ErrWithDetails writes an error envelope with additional details.
func ErrWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]any, requestID string) {
	JSON(w, status, Envelope{Detail: NewError(status, code, message, details, requestID)})
}

// ErrStatus writes an error envelope whose code is derived from status.
func ErrStatus(w http.ResponseWriter, status int, message, requestID string) {
	Err(w, status, CodeForStatus(status), message, requestID)
}

// ValidationFailed writes a 422 envelope listing every field error.
func ValidationFailed(w http.ResponseWriter, fields []validation.FieldError, requestID string) {
	if fields == nil {
		fields = []validation.FieldError{}
	}
	ErrWithDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", MsgValidation, map[string]any{
		"field_errors": fields,
		"error_count":  len(fields),
	}, requestID)
}

// Unauthorized writes a 401 envelope with a Bearer challenge.
func Unauthorized(w http.ResponseWriter, requestID string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Err(w, http.StatusUnauthorized, "UNAUTHORIZED", MsgUnauthorized, requestID)
}

// Forbidden writes a 403 envelope naming the team the caller cannot access.
func Forbidden(w http.ResponseWriter, team, requestID string) {
	Err(w, http.StatusForbidden, "FORBIDDEN", "API key does not have access to team '"+team+"'", requestID)
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, message, requestID string) {
	Err(w, http.StatusNotFound, "NOT_FOUND", message, requestID)
}

// Internal writes a generic 500 envelope.
func Internal(w http.ResponseWriter, requestID string) {
	Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", MsgInternal, requestID)
}

// StorageError writes the envelope for an error returned by a repository.
// Constraint violations become 409 INTEGRITY_ERROR, other driver failures 500
// DATABASE_ERROR, and anything unclassified 500 INTERNAL_ERROR. It returns
// the status it wrote.
func StorageError(w http.ResponseWriter, err error, requestID string) int {
	var ie *dberr.IntegrityError
	if errors.As(err, &ie) {
		ErrWithDetails(w, http.StatusConflict, "INTEGRITY_ERROR", MsgIntegrity, map[string]any{
			"constraint_type": "integrity_constraint",
			"database_error":  dberr.Message(err),
		}, requestID)
		return http.StatusConflict
	}

	var qe *dberr.QueryError
	if errors.As(err, &qe) {
		ErrWithDetails(w, http.StatusInternalServerError, "DATABASE_ERROR", MsgDatabase, map[string]any{
			"database_error": dberr.Message(err),
		}, requestID)
		return http.StatusInternalServerError
	}

	Internal(w, requestID)
	return http.StatusInternalServerError
}
