package services

import (
	"math"

	"github.com/noridevx/wedding-web/internal/models"
)

// The functions below are the derived views over a challenge snapshot.
// Callers recompute them after every mutation; nothing is cached.

func IncompleteChallenges(list []*models.Challenge) []*models.Challenge {
	out := []*models.Challenge{}
	for _, c := range list {
		if !c.IsCompleted {
			out = append(out, c)
		}
	}
	return out
}

func CompletedChallenges(list []*models.Challenge) []*models.Challenge {
	out := []*models.Challenge{}
	for _, c := range list {
		if c.IsCompleted {
			out = append(out, c)
		}
	}
	return out
}

// AvailableChallenges are neither completed nor reserved by anyone.
func AvailableChallenges(list []*models.Challenge) []*models.Challenge {
	out := []*models.Challenge{}
	for _, c := range list {
		if c.IsAvailable() {
			out = append(out, c)
		}
	}
	return out
}

func TotalChallenges(list []*models.Challenge) int {
	return len(list)
}

// CompletionRate is the completed share in whole percent, rounded to the
// nearest integer; 0 for an empty list.
func CompletionRate(list []*models.Challenge) int {
	total := TotalChallenges(list)
	if total == 0 {
		return 0
	}
	completed := len(CompletedChallenges(list))
	return int(math.Round(float64(completed) / float64(total) * 100))
}

type ChallengeProgress struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Incomplete     int `json:"incomplete"`
	Reserved       int `json:"reserved"`
	CompletionRate int `json:"completion_rate"`
}

func SummarizeChallenges(list []*models.Challenge) ChallengeProgress {
	reserved := 0
	for _, c := range list {
		if c.State() == models.ChallengeStateReserved {
			reserved++
		}
	}
	return ChallengeProgress{
		Total:          TotalChallenges(list),
		Completed:      len(CompletedChallenges(list)),
		Incomplete:     len(IncompleteChallenges(list)),
		Reserved:       reserved,
		CompletionRate: CompletionRate(list),
	}
}
