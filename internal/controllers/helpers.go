package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/utils"
)

var validate = validator.New()

// decodeAndValidate writes the 400 response itself and reports false on
// failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err,
		)
		return false
	}
	return true
}

// respondServiceError maps service errors onto HTTP codes. details is
// attached to the body when non-nil.
func respondServiceError(w http.ResponseWriter, err error, details any) {
	switch {
	case errors.Is(err, utils.ErrGatewayUnavailable):
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeGatewayUnavailable, constants.ErrMsgGatewayUnavailable, details, err,
		)
	case errors.Is(err, utils.ErrChallengeNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, constants.ErrMsgChallengeNotFound, details, err,
		)
	case errors.Is(err, utils.ErrPhotoNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, constants.ErrMsgPhotoNotFound, details, err,
		)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure, "External service failure", details, err,
		)
	default:
		utils.HandleAppError(w, err)
	}
}

// Validated upstream by the "uuid" tag.
func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}
