package constants

import "time"

// Reservation and gallery settings
const (
	// A device's reservation is considered stale strictly after this long.
	ReservationTTL = 1 * time.Hour

	DefaultGalleryPageSize = 12
	DefaultCompletedBy     = "anonymous"
)

// Device-local storage keys
const (
	StorageKeyDeviceID          = "wedding_device_id"
	StorageKeyDevicePhone       = "wedding_device_phone"
	StorageKeyReservedChallenge = "wedding_reserved_challenge"

	DeviceIDPrefix       = "device_"
	DeviceIDRandomSuffix = 9
)

// Sessions
const (
	SessionIdleTTL         = 2 * time.Hour
	SessionCleanupInterval = 10 * time.Minute
	ProfileKeyPrefix       = "profile:"
)

// Hosted storage defaults
const (
	DefaultStorageBucket  = "wedding-photos"
	DefaultStorageFolder  = "uploads"
	DefaultDigestSchedule = "@every 1h"
)

// Public error messages
const (
	ErrMsgGatewayUnavailable = "Remote data store is not configured"
	ErrMsgChallengeNotFound  = "Challenge not found"
	ErrMsgPhotoNotFound      = "Photo not found"
)
