package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

var ErrInvalidPhoto = errors.New("invalid photo")

// RegisterPhoto records an object already uploaded to storage as a gallery
// row. A referenced challenge must exist. A zero UploadedAt is stamped with
// the current time.
func RegisterPhoto(
	ctx context.Context,
	photos repositories.PhotoRepository,
	challenges repositories.ChallengeRepository,
	p *models.Photo,
) error {
	if photos == nil || challenges == nil {
		return utils.ErrGatewayUnavailable
	}
	if strings.TrimSpace(p.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidPhoto)
	}
	if p.FileSize < 0 {
		return fmt.Errorf("%w: negative file size", ErrInvalidPhoto)
	}

	if p.ChallengeID != nil {
		c, err := challenges.GetByID(ctx, *p.ChallengeID)
		if err != nil {
			return fmt.Errorf("lookup challenge %s: %w", p.ChallengeID, err)
		}
		if c == nil {
			return utils.ErrChallengeNotFound
		}
	}
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}

	if err := photos.Create(ctx, p); err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	utils.Logger.WithFields(logrus.Fields{
		"photo_id":  p.ID,
		"file_name": p.FileName,
		"file_type": p.FileType,
	}).Info("Registered photo")
	return nil
}
