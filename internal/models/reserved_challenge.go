package models

import "time"

// ReservedChallenge is the device-local copy of the last challenge this
// device reserved. It serializes as the challenge's own fields plus a
// "reservedAt" stamp taken from the local clock.
type ReservedChallenge struct {
	Challenge
	LocalReservedAt *time.Time `json:"reservedAt,omitempty"`
}
