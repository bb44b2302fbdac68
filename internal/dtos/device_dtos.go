package dtos

import "github.com/noridevx/wedding-web/internal/models"

type DeviceResponse struct {
	DeviceID           string                    `json:"device_id"`
	Phone              string                    `json:"phone,omitempty"`
	PhoneE164          string                    `json:"phone_e164,omitempty"`
	ReservedChallenge  *models.ReservedChallenge `json:"reserved_challenge,omitempty"`
	ReservationExpired bool                      `json:"reservation_expired"`
}

// UpdatePhoneRequest clears the stored phone when Phone is empty.
type UpdatePhoneRequest struct {
	Phone string `json:"phone" validate:"max=32"`
}
