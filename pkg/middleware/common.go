package middleware

import (
	"net/http"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/logger"
)

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// reject writes err in the same shape handlers use for their own errors.
func reject(w http.ResponseWriter, log *logger.Logger, err *apperrors.AppError) {
	if writeErr := apperrors.WriteError(w, err); writeErr != nil {
		log.Error("failed to write middleware rejection", "code", err.Code, "error", writeErr)
	}
}
