package models

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeStateType string

const (
	ChallengeStateAvailable ChallengeStateType = "AVAILABLE"
	ChallengeStateReserved  ChallengeStateType = "RESERVED"
	ChallengeStateCompleted ChallengeStateType = "COMPLETED"
)

// Challenge is a prompt a guest fulfills by uploading a linked photo.
type Challenge struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy string     `json:"completed_by"`
	IsReserved  bool       `json:"is_reserved"`
	ReservedAt  *time.Time `json:"reserved_at"`
	ReservedBy  *string    `json:"reserved_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// State collapses the completion and reservation flags. Completion wins
// over a stale reservation flag.
func (c *Challenge) State() ChallengeStateType {
	switch {
	case c.IsCompleted:
		return ChallengeStateCompleted
	case c.IsReserved:
		return ChallengeStateReserved
	default:
		return ChallengeStateAvailable
	}
}

func (c *Challenge) IsAvailable() bool {
	return c.State() == ChallengeStateAvailable
}

// Clone returns a deep copy so callers can hold onto a snapshot while the
// registry keeps mutating its own list.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	out := *c
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		out.CompletedAt = &t
	}
	if c.ReservedAt != nil {
		t := *c.ReservedAt
		out.ReservedAt = &t
	}
	if c.ReservedBy != nil {
		s := *c.ReservedBy
		out.ReservedBy = &s
	}
	return &out
}
