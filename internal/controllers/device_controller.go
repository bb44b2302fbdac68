package controllers

import (
	"context"
	"net/http"

	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/dtos"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

// PhoneChecker confirms that an E.164 number exists. A nil checker skips
// the remote lookup.
type PhoneChecker func(ctx context.Context, e164 string) (bool, error)

type DeviceController struct {
	sessions   *services.SessionManager
	checkPhone PhoneChecker
}

func NewDeviceController(sessions *services.SessionManager, checkPhone PhoneChecker) *DeviceController {
	return &DeviceController{sessions: sessions, checkPhone: checkPhone}
}

// -----------------------------------------------------------------------------
// GET /api/v1/device
// -----------------------------------------------------------------------------
func (c *DeviceController) GetDeviceHandler(w http.ResponseWriter, r *http.Request) {
	s := c.sessions.Get(utils.GetDeviceProfile(r))
	utils.RespondWithJSON(w, http.StatusOK, deviceResponse(r.Context(), s.Device))
}

// -----------------------------------------------------------------------------
// DELETE /api/v1/device
// -----------------------------------------------------------------------------
// Wipes the device record. The response carries the newly issued device id.
func (c *DeviceController) ResetDeviceHandler(w http.ResponseWriter, r *http.Request) {
	s := c.sessions.Get(utils.GetDeviceProfile(r))
	s.Device.Clear(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, deviceResponse(r.Context(), s.Device))
}

// -----------------------------------------------------------------------------
// PUT /api/v1/device/phone
// -----------------------------------------------------------------------------
func (c *DeviceController) UpdatePhoneHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdatePhoneRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !devicestore.ValidatePhone(req.Phone) {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Phone must be a valid mobile number", nil, utils.ErrInvalidPhone,
		)
		return
	}

	if e164 := devicestore.PhoneToE164(req.Phone); e164 != "" && c.checkPhone != nil {
		ok, err := c.checkPhone(r.Context(), e164)
		if err != nil {
			respondServiceError(w, err, nil)
			return
		}
		if !ok {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Phone number does not exist", nil, utils.ErrInvalidPhone,
			)
			return
		}
	}

	s := c.sessions.Get(utils.GetDeviceProfile(r))
	s.Device.SaveDevicePhone(r.Context(), req.Phone)
	utils.RespondWithJSON(w, http.StatusOK, deviceResponse(r.Context(), s.Device))
}

// -----------------------------------------------------------------------------
// DELETE /api/v1/device/reservation
// -----------------------------------------------------------------------------
func (c *DeviceController) ClearReservationHandler(w http.ResponseWriter, r *http.Request) {
	s := c.sessions.Get(utils.GetDeviceProfile(r))
	s.Device.ClearReservedChallenge(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, deviceResponse(r.Context(), s.Device))
}

func deviceResponse(ctx context.Context, d *devicestore.Store) dtos.DeviceResponse {
	phone := d.GetDevicePhone(ctx)
	return dtos.DeviceResponse{
		DeviceID:           d.GetDeviceID(ctx),
		Phone:              phone,
		PhoneE164:          devicestore.PhoneToE164(phone),
		ReservedChallenge:  d.GetReservedChallenge(ctx),
		ReservationExpired: d.IsReservedChallengeExpired(ctx),
	}
}
