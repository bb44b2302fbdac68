package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors shared by the gateway, the device store and the
// services.
var (
	// Remote store was never configured; every remote operation short-circuits.
	ErrGatewayUnavailable = errors.New("remote data store is not configured")

	ErrChallengeNotFound = errors.New("challenge_not_found")
	ErrPhotoNotFound     = errors.New("photo_not_found")

	ErrInvalidPhone = errors.New("invalid_phone")

	// For external service failures (Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
