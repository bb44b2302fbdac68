package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// ProgressService produces the periodic completion digest for organizers.
// It reads through its own registry so it never disturbs guest sessions.
type ProgressService struct {
	registry       *ChallengeRegistry
	mailer         Mailer
	organizerEmail string
}

// NewProgressService accepts a nil mailer; the digest is then only logged.
func NewProgressService(
	challengeRepo repositories.ChallengeRepository,
	mailer Mailer,
	organizerEmail string,
) *ProgressService {
	device := devicestore.NewStore(devicestore.NewMemoryKV(), nil)
	return &ProgressService{
		registry:       NewChallengeRegistry(challengeRepo, nil, device, nil),
		mailer:         mailer,
		organizerEmail: organizerEmail,
	}
}

// CurrentProgress reloads the challenge set and summarizes it.
func (s *ProgressService) CurrentProgress(ctx context.Context) (ChallengeProgress, error) {
	if err := s.registry.FetchChallenges(ctx); err != nil {
		return ChallengeProgress{}, err
	}
	return SummarizeChallenges(s.registry.Challenges()), nil
}

func (s *ProgressService) RunDigest(ctx context.Context) error {
	p, err := s.CurrentProgress(ctx)
	if err != nil {
		return err
	}

	utils.Logger.WithFields(logrus.Fields{
		"total":      p.Total,
		"completed":  p.Completed,
		"reserved":   p.Reserved,
		"percentage": p.CompletionRate,
	}).Info("Challenge progress digest")

	if s.mailer == nil || s.organizerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("[Progress] %d%% of challenges completed", p.CompletionRate)
	plain := fmt.Sprintf(
		"Completed: %d of %d (%d%%)\nReserved right now: %d\nStill open: %d\nGenerated %s",
		p.Completed, p.Total, p.CompletionRate, p.Reserved, p.Incomplete-p.Reserved,
		time.Now().UTC().Format(time.RFC1123Z),
	)
	html := fmt.Sprintf(
		"<p>Completed: <strong>%d</strong> of %d (%d%%)</p><p>Reserved right now: %d</p><p>Still open: %d</p>",
		p.Completed, p.Total, p.CompletionRate, p.Reserved, p.Incomplete-p.Reserved,
	)
	return s.mailer.Send(ctx, "Organizers", s.organizerEmail, subject, plain, html)
}
