// Package handlers provides the HTTP handlers for the recipe pages and API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"

	"github.com/alchemorsel/recipegen/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError converts err to an AppError and writes its public part. The
// cause is logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("").WithCause(err)
	}

	requestID := chimiddleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", string(appErr.Code)),
		zap.String("message", appErr.Message),
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Cause))
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	writeJSON(w, logger, status, errors.ToErrorResponse(appErr, requestID))
}

// listParam reads a repeated query parameter sent either as name[] or name
func listParam(q url.Values, name string) []string {
	values := append([]string(nil), q[name+"[]"]...)
	return append(values, q[name]...)
}
