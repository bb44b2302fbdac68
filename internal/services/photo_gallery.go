package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// PhotoGallery is a paginated read-through view over the photos table.
// Overlapping fetches are not queued: a fetch started while another is in
// flight returns immediately without doing anything.
type PhotoGallery struct {
	photoRepo repositories.PhotoRepository
	pageSize  int

	mu             sync.Mutex
	photos         []*models.Photo
	page           int
	hasMore        bool
	isLoading      bool
	isRefreshing   bool
	onlyChallenges bool
	lastErr        string
}

type GallerySnapshot struct {
	Photos         []*models.Photo
	Page           int
	PageSize       int
	HasMore        bool
	IsLoading      bool
	IsRefreshing   bool
	OnlyChallenges bool
	LastError      string
}

// NewPhotoGallery uses constants.DefaultGalleryPageSize when pageSize < 1.
func NewPhotoGallery(photoRepo repositories.PhotoRepository, pageSize int) *PhotoGallery {
	if pageSize < 1 {
		pageSize = constants.DefaultGalleryPageSize
	}
	return &PhotoGallery{
		photoRepo: photoRepo,
		pageSize:  pageSize,
		photos:    []*models.Photo{},
		hasMore:   true,
	}
}

// Snapshot returns the accumulated photos together with the pagination
// state. Photos is the raw accumulated list; use FilterPhotos for the view.
func (g *PhotoGallery) Snapshot() GallerySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	photos := make([]*models.Photo, len(g.photos))
	copy(photos, g.photos)
	return GallerySnapshot{
		Photos:         photos,
		Page:           g.page,
		PageSize:       g.pageSize,
		HasMore:        g.hasMore,
		IsLoading:      g.isLoading,
		IsRefreshing:   g.isRefreshing,
		OnlyChallenges: g.onlyChallenges,
		LastError:      g.lastErr,
	}
}

// FilteredPhotos is the client-side view: everything when the filter is
// off, otherwise only photos with a linked challenge.
func (g *PhotoGallery) FilteredPhotos() []*models.Photo {
	s := g.Snapshot()
	return FilterPhotos(s.Photos, s.OnlyChallenges)
}

// ListPhotos fetches the next page, or the first page again when reset is
// true (dropping everything accumulated so far).
func (g *PhotoGallery) ListPhotos(ctx context.Context, reset bool) error {
	g.mu.Lock()
	if g.isLoading {
		g.mu.Unlock()
		return nil
	}
	if g.photoRepo == nil {
		g.photos = []*models.Photo{}
		g.lastErr = utils.ErrGatewayUnavailable.Error()
		g.mu.Unlock()
		utils.Logger.WithError(utils.ErrGatewayUnavailable).Error("Error listing photos")
		return fmt.Errorf("list photos: %w", utils.ErrGatewayUnavailable)
	}

	g.isLoading = true
	g.lastErr = ""
	if reset {
		g.photos = []*models.Photo{}
		g.page = 0
		g.hasMore = true
	}
	from := g.page * g.pageSize
	q := repositories.PhotoRangeQuery{
		From:              from,
		To:                from + g.pageSize - 1,
		OnlyWithChallenge: g.onlyChallenges,
	}
	g.mu.Unlock()

	rows, err := g.photoRepo.ListRange(ctx, q)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.isLoading = false

	if err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"from":  q.From,
			"to":    q.To,
			"reset": reset,
		}).Error("Error listing photos")
		g.lastErr = err.Error()
		if reset {
			g.photos = []*models.Photo{}
		}
		return fmt.Errorf("list photos: %w", err)
	}

	if reset {
		g.photos = rows
	} else {
		next := make([]*models.Photo, 0, len(g.photos)+len(rows))
		next = append(next, g.photos...)
		g.photos = append(next, rows...)
	}
	g.hasMore = len(rows) == g.pageSize
	g.page++
	return nil
}

// LoadMorePhotos appends the next page unless the last page was short or a
// fetch is already running.
func (g *PhotoGallery) LoadMorePhotos(ctx context.Context) error {
	g.mu.Lock()
	skip := !g.hasMore || g.isLoading
	g.mu.Unlock()
	if skip {
		return nil
	}
	return g.ListPhotos(ctx, false)
}

// Refresh reloads from the first page. Concurrent refreshes collapse into
// the one already running.
func (g *PhotoGallery) Refresh(ctx context.Context) error {
	g.mu.Lock()
	if g.isRefreshing {
		g.mu.Unlock()
		return nil
	}
	g.isRefreshing = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.isRefreshing = false
		g.mu.Unlock()
	}()

	return g.ListPhotos(ctx, true)
}

// ToggleChallengeFilter flips the "challenges only" filter and reloads from
// the first page.
func (g *PhotoGallery) ToggleChallengeFilter(ctx context.Context) error {
	g.mu.Lock()
	g.onlyChallenges = !g.onlyChallenges
	g.mu.Unlock()

	return g.ListPhotos(ctx, true)
}

// FilterPhotos applies the same "has a linked challenge" predicate the
// query uses server-side.
func FilterPhotos(photos []*models.Photo, onlyChallenges bool) []*models.Photo {
	if !onlyChallenges {
		return photos
	}
	out := []*models.Photo{}
	for _, p := range photos {
		if p.HasChallenge() {
			out = append(out, p)
		}
	}
	return out
}
