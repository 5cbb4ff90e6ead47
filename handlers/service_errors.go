package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/storefront-assistant/services"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

// statusByType is the HTTP status for each domain error type. Prompt guard
// rejections are a client input problem, hence 400.
var statusByType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:        http.StatusNotFound,
	services.ErrorTypeValidation:      http.StatusBadRequest,
	services.ErrorTypePolicyViolation: http.StatusBadRequest,
	services.ErrorTypeUnauthorized:    http.StatusUnauthorized,
	services.ErrorTypeForbidden:       http.StatusForbidden,
	services.ErrorTypeRateLimit:       http.StatusTooManyRequests,
	services.ErrorTypeConflict:        http.StatusConflict,
	services.ErrorTypeExternal:        http.StatusBadGateway,
	services.ErrorTypeInternal:        http.StatusInternalServerError,
}

// HandleServiceError writes the response for an error returned by a service.
// 5xx bodies never carry the underlying cause.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	status, known := statusByType[errType]
	message := clientMessage(err)
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	switch {
	case !known:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(errType)))
		status, message, details = http.StatusInternalServerError, "An unexpected error occurred", nil
	case status == http.StatusBadGateway:
		logger.Warn("upstream model error", zap.Error(err))
	case status == http.StatusInternalServerError:
		logger.Error("internal server error", zap.Error(err))
		message, details = "An internal error occurred", nil
	}

	if writeErr := utils.WriteError(w, status, message, details); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// clientMessage returns the domain message without the wrapped cause, so
// driver and provider errors never reach the client.
func clientMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

// HandleValidationError writes a 400 for a request body that failed its validate tags
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	message, details := err.Error(), map[string]interface{}(nil)
	if fields := utils.GetValidationFields(err); fields != nil {
		message = "Validation failed"
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, message, details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
