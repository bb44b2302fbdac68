package models

import (
	"time"

	"github.com/google/uuid"
)

// PhotoChallenge is the minimal challenge summary joined onto a photo.
type PhotoChallenge struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
}

type Photo struct {
	ID          uuid.UUID       `json:"id"`
	URL         string          `json:"url"`
	Comment     string          `json:"comment"`
	FileName    string          `json:"file_name"`
	FileSize    int64           `json:"file_size"`
	FileType    string          `json:"file_type"`
	UploadedAt  time.Time       `json:"uploaded_at"`
	ChallengeID *uuid.UUID      `json:"challenge_id,omitempty"`
	Challenge   *PhotoChallenge `json:"challenge,omitempty"`
}

func (p *Photo) HasChallenge() bool {
	return p.Challenge != nil
}
