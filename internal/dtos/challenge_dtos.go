package dtos

import "github.com/noridevx/wedding-web/internal/models"

type ChallengeActionRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid"`
}

type CompleteChallengeRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid"`
	PhotoID     string `json:"photo_id" validate:"required,uuid"`
	CompletedBy string `json:"completed_by" validate:"max=120"`
}

type ChallengesResponse struct {
	Challenges     []*models.Challenge `json:"challenges"`
	Incomplete     []*models.Challenge `json:"incomplete"`
	Completed      []*models.Challenge `json:"completed"`
	Available      []*models.Challenge `json:"available"`
	Total          int                 `json:"total"`
	CompletionRate int                 `json:"completion_rate"`
}

type RandomChallengeResponse struct {
	Challenge *models.Challenge `json:"challenge"`
	// Reserved is true when the pick is this device's own reservation.
	Reserved bool `json:"reserved"`
}

type ChallengeResponse struct {
	Challenge *models.Challenge `json:"challenge,omitempty"`
}
