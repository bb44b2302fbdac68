package routes

const (
	// Health
	Health = "/health"

	// Device record
	Device            = "/api/v1/device"
	DevicePhone       = "/api/v1/device/phone"
	DeviceReservation = "/api/v1/device/reservation"

	// Challenges
	Challenges         = "/api/v1/challenges"
	ChallengesRandom   = "/api/v1/challenges/random"
	ChallengesReserve  = "/api/v1/challenges/reserve"
	ChallengesRelease  = "/api/v1/challenges/release"
	ChallengesComplete = "/api/v1/challenges/complete"

	// Gallery
	Photos        = "/api/v1/photos"
	PhotosMore    = "/api/v1/photos/more"
	PhotosRefresh = "/api/v1/photos/refresh"
	PhotosFilter  = "/api/v1/photos/filter"
)
