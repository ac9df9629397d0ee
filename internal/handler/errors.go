package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/middleware"
	"github.com/shelfapi/shelf/internal/service"
)

// handleServiceError maps service errors to HTTP responses.
// notFoundCode names the missing resource, e.g. PRODUCT_NOT_FOUND.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundCode string) {
	var (
		verr        *service.ValidationError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "The given data was invalid.", verr.Fields)
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthenticated.", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "These credentials do not match our records.", nil)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "This action is unauthorized.", nil)
	case errors.Is(err, service.ErrNotFound):
		writeNotFound(w, notFoundCode)
	case errors.Is(err, errInvalidJSON):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body.", nil)
	case errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large.", nil)
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred.", nil)
	}
}

// fieldError builds a validation error for a single field.
func fieldError(field, message string) error {
	return service.NewValidationError(field, message)
}

func writeNotFound(w http.ResponseWriter, code string) {
	switch code {
	case "PRODUCT_NOT_FOUND":
		writeError(w, http.StatusNotFound, code, "Product not found.", nil)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found.", nil)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorBody{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	})
}
