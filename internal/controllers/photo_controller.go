package controllers

import (
	"net/http"
	"path"
	"strconv"

	"github.com/noridevx/wedding-web/internal/dtos"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

// PublicURLBuilder maps a stored object path to its public URL, or "".
type PublicURLBuilder func(objectPath string) string

type PhotoController struct {
	sessions      *services.SessionManager
	publicURL     PublicURLBuilder
	storageFolder string
}

func NewPhotoController(sessions *services.SessionManager, publicURL PublicURLBuilder, storageFolder string) *PhotoController {
	return &PhotoController{sessions: sessions, publicURL: publicURL, storageFolder: storageFolder}
}

// -----------------------------------------------------------------------------
// GET /api/v1/photos[?reset=true]
// -----------------------------------------------------------------------------
func (c *PhotoController) GetPhotosHandler(w http.ResponseWriter, r *http.Request) {
	reset, _ := strconv.ParseBool(r.URL.Query().Get("reset"))
	g := c.sessions.Get(utils.GetDeviceProfile(r)).Gallery

	// First visit loads the first page.
	if reset || g.Snapshot().Page == 0 {
		if err := g.ListPhotos(r.Context(), true); err != nil {
			respondServiceError(w, err, nil)
			return
		}
	}
	c.respond(w, g)
}

// -----------------------------------------------------------------------------
// POST /api/v1/photos/more
// -----------------------------------------------------------------------------
func (c *PhotoController) LoadMoreHandler(w http.ResponseWriter, r *http.Request) {
	g := c.sessions.Get(utils.GetDeviceProfile(r)).Gallery
	if err := g.LoadMorePhotos(r.Context()); err != nil {
		respondServiceError(w, err, nil)
		return
	}
	c.respond(w, g)
}

// -----------------------------------------------------------------------------
// POST /api/v1/photos/refresh
// -----------------------------------------------------------------------------
func (c *PhotoController) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	g := c.sessions.Get(utils.GetDeviceProfile(r)).Gallery
	if err := g.Refresh(r.Context()); err != nil {
		respondServiceError(w, err, nil)
		return
	}
	c.respond(w, g)
}

// -----------------------------------------------------------------------------
// POST /api/v1/photos/filter
// -----------------------------------------------------------------------------
func (c *PhotoController) ToggleFilterHandler(w http.ResponseWriter, r *http.Request) {
	g := c.sessions.Get(utils.GetDeviceProfile(r)).Gallery
	if err := g.ToggleChallengeFilter(r.Context()); err != nil {
		respondServiceError(w, err, nil)
		return
	}
	c.respond(w, g)
}

func (c *PhotoController) respond(w http.ResponseWriter, g *services.PhotoGallery) {
	s := g.Snapshot()
	utils.RespondWithJSON(w, http.StatusOK, dtos.PhotosResponse{
		Photos:         c.withPublicURLs(services.FilterPhotos(s.Photos, s.OnlyChallenges)),
		Page:           s.Page,
		PageSize:       s.PageSize,
		HasMore:        s.HasMore,
		IsLoading:      s.IsLoading,
		IsRefreshing:   s.IsRefreshing,
		OnlyChallenges: s.OnlyChallenges,
	})
}

// withPublicURLs fills in URLs for rows stored without one. Rows are copied
// before they are touched; the gallery shares its pointers.
func (c *PhotoController) withPublicURLs(photos []*models.Photo) []*models.Photo {
	if c.publicURL == nil {
		return photos
	}
	out := make([]*models.Photo, len(photos))
	for i, p := range photos {
		if p.URL != "" || p.FileName == "" {
			out[i] = p
			continue
		}
		cp := *p
		cp.URL = c.publicURL(path.Join(c.storageFolder, p.FileName))
		out[i] = &cp
	}
	return out
}
