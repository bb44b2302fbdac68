package app

import (
	"context"
	"fmt"

	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// DefaultChallenges is the starter set inserted into an empty table.
var DefaultChallenges = []string{
	"Take a selfie with the bride and groom",
	"Photograph the first dance",
	"Capture a toast in progress",
	"Find someone wearing the same colour as you",
	"Take a picture with a guest you just met",
	"Photograph the wedding cake before it is cut",
	"Capture the best dance move of the night",
	"Take a group photo with at least five guests",
	"Photograph a hidden detail of the decoration",
	"Capture someone laughing out loud",
	"Take a photo with the oldest guest",
	"Photograph the rings",
}

// SeedChallenges inserts DefaultChallenges when the challenges table is
// empty. It returns the number of rows inserted.
func SeedChallenges(ctx context.Context, repo repositories.ChallengeRepository) (int, error) {
	if repo == nil {
		return 0, utils.ErrGatewayUnavailable
	}

	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count challenges: %w", err)
	}
	if n > 0 {
		utils.Logger.Infof("Challenges already present (%d); skipping seeding.", n)
		return 0, nil
	}

	inserted := 0
	for _, desc := range DefaultChallenges {
		if err := repo.Create(ctx, &models.Challenge{Description: desc}); err != nil {
			return inserted, fmt.Errorf("seed challenge %q: %w", desc, err)
		}
		inserted++
	}
	utils.Logger.Infof("Seeded %d challenges", inserted)
	return inserted, nil
}
