package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// -----------------------------------------------------------------------------
// Challenges
// -----------------------------------------------------------------------------

// fakeChallengeRepo keeps rows newest first, like ListAll.
type fakeChallengeRepo struct {
	mu   sync.Mutex
	rows []*models.Challenge

	listErr     error
	reserveErr  error
	releaseErr  error
	completeErr error

	completeCalls int
}

func newFakeChallengeRepo(descriptions ...string) *fakeChallengeRepo {
	r := &fakeChallengeRepo{}
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, d := range descriptions {
		c := &models.Challenge{
			ID:          uuid.New(),
			Description: d,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		r.rows = append([]*models.Challenge{c}, r.rows...)
	}
	return r
}

func (r *fakeChallengeRepo) find(id uuid.UUID) *models.Challenge {
	for _, c := range r.rows {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *fakeChallengeRepo) Create(_ context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.rows = append([]*models.Challenge{c.Clone()}, r.rows...)
	return nil
}

func (r *fakeChallengeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(id).Clone(), nil
}

func (r *fakeChallengeRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *fakeChallengeRepo) ListAll(context.Context) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return cloneChallenges(r.rows), nil
}

func (r *fakeChallengeRepo) Reserve(_ context.Context, id uuid.UUID, deviceID string, at time.Time) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserveErr != nil {
		return nil, r.reserveErr
	}
	c := r.find(id)
	if c == nil {
		return []*models.Challenge{}, nil
	}
	c.IsReserved = true
	c.ReservedAt = utils.Ptr(at)
	c.ReservedBy = utils.Ptr(deviceID)
	return []*models.Challenge{c.Clone()}, nil
}

func (r *fakeChallengeRepo) Release(_ context.Context, id uuid.UUID) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.releaseErr != nil {
		return nil, r.releaseErr
	}
	c := r.find(id)
	if c == nil {
		return []*models.Challenge{}, nil
	}
	c.IsReserved = false
	c.ReservedAt = nil
	c.ReservedBy = nil
	return []*models.Challenge{c.Clone()}, nil
}

func (r *fakeChallengeRepo) Complete(_ context.Context, id uuid.UUID, completedBy string, at time.Time) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completeCalls++
	if r.completeErr != nil {
		return nil, r.completeErr
	}
	c := r.find(id)
	if c == nil {
		return []*models.Challenge{}, nil
	}
	c.IsCompleted = true
	c.CompletedAt = utils.Ptr(at)
	c.CompletedBy = completedBy
	c.IsReserved = false
	c.ReservedAt = nil
	c.ReservedBy = nil
	return []*models.Challenge{c.Clone()}, nil
}

// -----------------------------------------------------------------------------
// Photos
// -----------------------------------------------------------------------------

// fakePhotoRepo keeps rows newest first, like ListRange.
type fakePhotoRepo struct {
	mu   sync.Mutex
	rows []*models.Photo

	listErr error
	linkErr error

	queries []repositories.PhotoRangeQuery
	// block, when set, is received from before ListRange answers.
	block chan struct{}
}

// newFakePhotoRepo creates n image rows, newest first. Rows whose index
// satisfies linked are attached to linkedTo.
func newFakePhotoRepo(n int, linked func(i int) bool, linkedTo *models.Challenge) *fakePhotoRepo {
	r := &fakePhotoRepo{}
	base := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := &models.Photo{
			ID:         uuid.New(),
			URL:        "https://cdn.example/" + uuid.NewString() + ".jpg",
			FileName:   "img.jpg",
			FileType:   "image/jpeg",
			UploadedAt: base.Add(-time.Duration(i) * time.Minute),
		}
		if linked != nil && linkedTo != nil && linked(i) {
			p.ChallengeID = utils.Ptr(linkedTo.ID)
			p.Challenge = &models.PhotoChallenge{ID: linkedTo.ID, Description: linkedTo.Description}
		}
		r.rows = append(r.rows, p)
	}
	return r
}

func (r *fakePhotoRepo) Create(_ context.Context, p *models.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.rows = append([]*models.Photo{&cp}, r.rows...)
	return nil
}

func (r *fakePhotoRepo) ListRange(_ context.Context, q repositories.PhotoRangeQuery) ([]*models.Photo, error) {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.listErr != nil {
		return nil, r.listErr
	}

	matched := []*models.Photo{}
	for _, p := range r.rows {
		if len(p.FileType) < 6 || p.FileType[:6] != "image/" {
			continue
		}
		if q.OnlyWithChallenge && p.ChallengeID == nil {
			continue
		}
		matched = append(matched, p)
	}

	out := []*models.Photo{}
	for i := q.From; i <= q.To && i < len(matched); i++ {
		cp := *matched[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePhotoRepo) LinkChallenge(_ context.Context, photoID, challengeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.linkErr != nil {
		return 0, r.linkErr
	}
	for _, p := range r.rows {
		if p.ID == photoID {
			p.ChallengeID = utils.Ptr(challengeID)
			p.Challenge = &models.PhotoChallenge{ID: challengeID}
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakePhotoRepo) lastQuery() repositories.PhotoRangeQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

// -----------------------------------------------------------------------------
// Mail and notifications
// -----------------------------------------------------------------------------

type sentMail struct {
	toAddr, subject, plain, html string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, _ string, toAddr, subject, plain, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{toAddr: toAddr, subject: subject, plain: plain, html: html})
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []*models.Challenge
	err       error
}

func (n *recordingNotifier) NotifyChallengeCompleted(_ context.Context, c *models.Challenge, _ uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, c)
	return n.err
}
