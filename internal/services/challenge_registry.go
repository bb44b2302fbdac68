package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// CompletionNotifier hears about every successful completion.
type CompletionNotifier interface {
	NotifyChallengeCompleted(ctx context.Context, c *models.Challenge, photoID uuid.UUID) error
}

// ChallengeRegistry holds one device's view of the challenge set and runs
// the reserve / release / complete workflow against the remote store,
// mirroring every successful write into the device store and the
// in-memory list.
//
// A nil challenge repository means the remote store is not configured:
// every remote operation then fails fast with utils.ErrGatewayUnavailable.
type ChallengeRegistry struct {
	challengeRepo repositories.ChallengeRepository
	photoRepo     repositories.PhotoRepository
	device        *devicestore.Store
	notifier      CompletionNotifier

	now  func() time.Time
	intn func(n int) int

	mu        sync.Mutex
	list      []*models.Challenge
	isLoading bool
	lastErr   string
}

func NewChallengeRegistry(
	challengeRepo repositories.ChallengeRepository,
	photoRepo repositories.PhotoRepository,
	device *devicestore.Store,
	notifier CompletionNotifier,
) *ChallengeRegistry {
	return &ChallengeRegistry{
		challengeRepo: challengeRepo,
		photoRepo:     photoRepo,
		device:        device,
		notifier:      notifier,
		now:           time.Now,
		intn:          rand.Intn,
		list:          []*models.Challenge{},
	}
}

// ----------------------------------------------------------------
// Snapshot accessors
// ----------------------------------------------------------------

// Challenges returns a copy of the loaded list, newest first.
func (r *ChallengeRegistry) Challenges() []*models.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneChallenges(r.list)
}

// FindChallenge returns a copy of the loaded challenge with id, or nil.
func (r *ChallengeRegistry) FindChallenge(id uuid.UUID) *models.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if c.ID == id {
			return c.Clone()
		}
	}
	return nil
}

func (r *ChallengeRegistry) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isLoading
}

// LastError is the message of the most recent failed remote operation.
func (r *ChallengeRegistry) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *ChallengeRegistry) Device() *devicestore.Store {
	return r.device
}

// ----------------------------------------------------------------
// Remote operations
// ----------------------------------------------------------------

// FetchChallenges replaces the loaded list with every challenge, newest
// first. On failure the list is left untouched.
func (r *ChallengeRegistry) FetchChallenges(ctx context.Context) error {
	if r.challengeRepo == nil {
		return r.fail("fetch", utils.ErrGatewayUnavailable, nil)
	}

	r.mu.Lock()
	r.isLoading = true
	r.lastErr = ""
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isLoading = false
		r.mu.Unlock()
	}()

	list, err := r.challengeRepo.ListAll(ctx)
	if err != nil {
		return r.fail("fetch", err, nil)
	}

	r.mu.Lock()
	r.list = list
	r.mu.Unlock()

	utils.Logger.Debugf("Loaded %d challenges", len(list))
	return nil
}

// GetRandomChallenge picks the challenge to show this device, in order:
//  1. its own unexpired reservation, if still loaded and not completed;
//  2. a uniform pick among available challenges;
//  3. a uniform pick among challenges that are not completed;
//  4. a uniform pick among everything loaded.
//
// It returns nil only when nothing is loaded.
func (r *ChallengeRegistry) GetRandomChallenge(ctx context.Context) *models.Challenge {
	r.mu.Lock()
	list := r.list
	r.mu.Unlock()

	if len(list) == 0 {
		return nil
	}

	if r.device != nil && !r.device.IsReservedChallengeExpired(ctx) {
		if rec := r.device.GetReservedChallenge(ctx); rec != nil {
			for _, c := range list {
				if c.ID == rec.ID && !c.IsCompleted {
					return c.Clone()
				}
			}
		}
	}

	for _, pool := range [][]*models.Challenge{
		AvailableChallenges(list),
		IncompleteChallenges(list),
		list,
	} {
		if len(pool) > 0 {
			return pool[r.intn(len(pool))].Clone()
		}
	}
	return nil
}

// ReserveChallenge claims id for this device and caches the reservation
// locally.
func (r *ChallengeRegistry) ReserveChallenge(ctx context.Context, id uuid.UUID) error {
	if r.challengeRepo == nil {
		return r.fail("reserve", utils.ErrGatewayUnavailable, logrus.Fields{"challenge_id": id})
	}
	deviceID := r.device.GetDeviceID(ctx)

	return r.applyRemote(ctx, "reserve", id,
		func(ctx context.Context) ([]*models.Challenge, error) {
			return r.challengeRepo.Reserve(ctx, id, deviceID, r.now().UTC())
		},
		func(updated *models.Challenge) {
			r.device.SaveReservedChallenge(ctx, updated)
		},
	)
}

// ReleaseChallenge drops the reservation on id and forgets the local copy.
func (r *ChallengeRegistry) ReleaseChallenge(ctx context.Context, id uuid.UUID) error {
	if r.challengeRepo == nil {
		return r.fail("release", utils.ErrGatewayUnavailable, logrus.Fields{"challenge_id": id})
	}

	return r.applyRemote(ctx, "release", id,
		func(ctx context.Context) ([]*models.Challenge, error) {
			return r.challengeRepo.Release(ctx, id)
		},
		func(*models.Challenge) {
			r.device.ClearReservedChallenge(ctx)
		},
	)
}

// CompleteChallenge links photoID to challengeID, then marks the challenge
// completed and clears its reservation. The second write is only issued
// once the first has applied. A prior reservation is not required, and
// the local reservation is cleared whichever challenge it pointed at.
func (r *ChallengeRegistry) CompleteChallenge(
	ctx context.Context,
	challengeID uuid.UUID,
	photoID uuid.UUID,
	completedBy string,
) error {
	fields := logrus.Fields{"challenge_id": challengeID, "photo_id": photoID}
	if completedBy == "" {
		completedBy = constants.DefaultCompletedBy
	}
	if r.challengeRepo == nil || r.photoRepo == nil {
		return r.fail("complete", utils.ErrGatewayUnavailable, fields)
	}

	n, err := r.photoRepo.LinkChallenge(ctx, photoID, challengeID)
	if err != nil {
		return r.fail("link photo", err, fields)
	}
	if n == 0 {
		return r.fail("link photo", utils.ErrPhotoNotFound, fields)
	}

	var completed *models.Challenge
	err = r.applyRemote(ctx, "complete", challengeID,
		func(ctx context.Context) ([]*models.Challenge, error) {
			return r.challengeRepo.Complete(ctx, challengeID, completedBy, r.now().UTC())
		},
		func(updated *models.Challenge) {
			completed = updated
			r.device.ClearReservedChallenge(ctx)
		},
	)
	if err != nil {
		return err
	}

	if r.notifier != nil {
		if nErr := r.notifier.NotifyChallengeCompleted(ctx, completed, photoID); nErr != nil {
			utils.Logger.WithError(nErr).WithFields(fields).Warn("Completion notification failed")
		}
	}
	return nil
}

// ----------------------------------------------------------------
// internals
// ----------------------------------------------------------------

// applyRemote performs one remote write and, only when it applied, hands
// the returned row to applyLocal and swaps it into the in-memory list.
// A failed write changes neither.
func (r *ChallengeRegistry) applyRemote(
	ctx context.Context,
	op string,
	id uuid.UUID,
	write func(ctx context.Context) ([]*models.Challenge, error),
	applyLocal func(updated *models.Challenge),
) error {
	fields := logrus.Fields{"challenge_id": id}

	rows, err := write(ctx)
	if err != nil {
		return r.fail(op, err, fields)
	}
	if len(rows) == 0 {
		return r.fail(op, utils.ErrChallengeNotFound, fields)
	}
	updated := rows[0]

	applyLocal(updated)

	// Copy on write: readers may still hold the previous slice.
	r.mu.Lock()
	for i, c := range r.list {
		if c.ID == updated.ID {
			next := make([]*models.Challenge, len(r.list))
			copy(next, r.list)
			next[i] = updated
			r.list = next
			break
		}
	}
	r.mu.Unlock()

	utils.Logger.WithFields(fields).Debugf("Challenge %s applied", op)
	return nil
}

func (r *ChallengeRegistry) fail(op string, err error, fields logrus.Fields) error {
	utils.Logger.WithError(err).WithFields(fields).Errorf("Error during challenge %s", op)

	r.mu.Lock()
	r.lastErr = err.Error()
	r.mu.Unlock()

	return fmt.Errorf("challenge %s: %w", op, err)
}

func cloneChallenges(list []*models.Challenge) []*models.Challenge {
	out := make([]*models.Challenge, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}
