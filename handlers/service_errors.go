package handlers

import (
	"errors"
	"net/http"

	"github.com/appshivam/restauth/services"
	"github.com/appshivam/restauth/utils"
	"go.uber.org/zap"
)

// AuthenticationFailedMessage is returned for every credential or token failure
const AuthenticationFailedMessage = "Authentication failed"

// HandleServiceError maps domain errors to HTTP responses. Only the domain
// message is returned; wrapped causes are logged.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := "An unexpected error occurred"
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	details := services.GetErrorDetails(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		// unknown user and wrong password must look the same
		writeErr = utils.WriteUnauthorized(w, AuthenticationFailedMessage)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsInternalError(err), services.IsConfigurationError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// InvalidBodyMessage is returned when a request body cannot be decoded
const InvalidBodyMessage = "Invalid request body"

// HandleValidationError handles validation errors from request parsing.
// Decoder errors are logged, never echoed.
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	logger.Debug("rejected request body", zap.Error(err))
	if err := utils.WriteBadRequest(w, InvalidBodyMessage, nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
