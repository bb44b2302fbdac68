package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noridevx/wedding-web/internal/app"
	"github.com/noridevx/wedding-web/internal/config"
	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/dtos"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

// -----------------------------------------------------------------------------
// In-memory repositories
// -----------------------------------------------------------------------------

type memChallenges struct {
	mu   sync.Mutex
	rows []*models.Challenge
}

func (m *memChallenges) update(id uuid.UUID, fn func(c *models.Challenge)) []*models.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			fn(c)
			return []*models.Challenge{c.Clone()}
		}
	}
	return []*models.Challenge{}
}

func (m *memChallenges) Create(_ context.Context, c *models.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, c.Clone())
	return nil
}

func (m *memChallenges) GetByID(context.Context, uuid.UUID) (*models.Challenge, error) {
	return nil, nil
}

func (m *memChallenges) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memChallenges) ListAll(context.Context) ([]*models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Challenge, len(m.rows))
	for i, c := range m.rows {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *memChallenges) Reserve(_ context.Context, id uuid.UUID, deviceID string, at time.Time) ([]*models.Challenge, error) {
	return m.update(id, func(c *models.Challenge) {
		c.IsReserved, c.ReservedAt, c.ReservedBy = true, &at, &deviceID
	}), nil
}

func (m *memChallenges) Release(_ context.Context, id uuid.UUID) ([]*models.Challenge, error) {
	return m.update(id, func(c *models.Challenge) {
		c.IsReserved, c.ReservedAt, c.ReservedBy = false, nil, nil
	}), nil
}

func (m *memChallenges) Complete(_ context.Context, id uuid.UUID, by string, at time.Time) ([]*models.Challenge, error) {
	return m.update(id, func(c *models.Challenge) {
		c.IsCompleted, c.CompletedAt, c.CompletedBy = true, &at, by
		c.IsReserved, c.ReservedAt, c.ReservedBy = false, nil, nil
	}), nil
}

type memPhotos struct {
	mu   sync.Mutex
	rows []*models.Photo
}

func (m *memPhotos) Create(_ context.Context, p *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memPhotos) ListRange(_ context.Context, q repositories.PhotoRangeQuery) ([]*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Photo{}
	idx := 0
	for _, p := range m.rows {
		if q.OnlyWithChallenge && p.ChallengeID == nil {
			continue
		}
		if idx >= q.From && idx <= q.To {
			cp := *p
			out = append(out, &cp)
		}
		idx++
	}
	return out, nil
}

func (m *memPhotos) LinkChallenge(_ context.Context, photoID, challengeID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ID == photoID {
			p.ChallengeID = &challengeID
			p.Challenge = &models.PhotoChallenge{ID: challengeID}
			return 1, nil
		}
	}
	return 0, nil
}

// -----------------------------------------------------------------------------
// Fixture
// -----------------------------------------------------------------------------

type fixture struct {
	challenges *memChallenges
	photos     *memPhotos
	sessions   *services.SessionManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{challenges: &memChallenges{}, photos: &memPhotos{}}
	for _, d := range []string{"Toast", "First dance", "Cake"} {
		f.challenges.rows = append(f.challenges.rows, &models.Challenge{ID: uuid.New(), Description: d})
	}
	for i := 0; i < 14; i++ {
		p := &models.Photo{ID: uuid.New(), FileName: "p.jpg", FileType: "image/jpeg"}
		if i == 0 {
			p.URL = "https://cdn.example/first.jpg"
		}
		f.photos.rows = append(f.photos.rows, p)
	}
	f.sessions = services.NewSessionManager(devicestore.NewMemoryKV(), f.challenges, f.photos, nil, 12)
	return f
}

func request(method, target string, body any, profile string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	if profile != "" {
		r.Header.Set(utils.HeaderDeviceProfile, profile)
	}
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func TestHealthDegradedWithoutStore(t *testing.T) {
	a, err := app.NewApp(&config.Config{GalleryPageSize: 12})
	require.NoError(t, err)
	defer a.Close()

	rec := serve(NewHealthController(a).HealthCheckHandler, request(http.MethodGet, "/health", nil, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[dtos.HealthCheckResponse](t, rec)
	assert.Equal(t, "DEGRADED", body.Status)
	assert.Equal(t, "not_configured", body.Database)
}

// -----------------------------------------------------------------------------
// Device
// -----------------------------------------------------------------------------

func TestGetDeviceIsStablePerProfile(t *testing.T) {
	f := newFixture(t)
	ctrl := NewDeviceController(f.sessions, nil)

	first := decode[dtos.DeviceResponse](t, serve(ctrl.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	again := decode[dtos.DeviceResponse](t, serve(ctrl.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	other := decode[dtos.DeviceResponse](t, serve(ctrl.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "bob")))

	assert.Regexp(t, `^device_\d+_[0-9a-z]{9}$`, first.DeviceID)
	assert.Equal(t, first.DeviceID, again.DeviceID)
	assert.NotEqual(t, first.DeviceID, other.DeviceID)
	assert.True(t, first.ReservationExpired)
	assert.Nil(t, first.ReservedChallenge)
}

func TestUpdatePhone(t *testing.T) {
	f := newFixture(t)
	ctrl := NewDeviceController(f.sessions, nil)

	rec := serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "512345678"}, "alice"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeInvalidPhone, decode[utils.ErrorResponse](t, rec).Code)

	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "612 345 678"}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[dtos.DeviceResponse](t, rec)
	assert.Equal(t, "612 345 678", body.Phone)
	assert.Equal(t, "+34612345678", body.PhoneE164)

	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: ""}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode[dtos.DeviceResponse](t, rec).Phone)

	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", "{", "alice"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeInvalidPayload, decode[utils.ErrorResponse](t, rec).Code)
}

func TestUpdatePhoneWithRemoteCheck(t *testing.T) {
	f := newFixture(t)
	var checked []string
	exists := true
	var lookupErr error
	ctrl := NewDeviceController(f.sessions, func(_ context.Context, e164 string) (bool, error) {
		checked = append(checked, e164)
		return exists, lookupErr
	})

	rec := serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "0034612345678"}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"+34612345678"}, checked)

	exists = false
	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "699999999"}, "alice"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	lookupErr = utils.ErrExternalServiceFailure
	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "699999999"}, "alice"))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// The rejected numbers were never stored.
	body := decode[dtos.DeviceResponse](t, serve(ctrl.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	assert.Equal(t, "0034612345678", body.Phone)

	// Clearing skips the lookup.
	checked = nil
	rec = serve(ctrl.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, checked)
}

func TestResetDevice(t *testing.T) {
	f := newFixture(t)
	cc := NewChallengeController(f.sessions)
	dc := NewDeviceController(f.sessions, nil)
	toast := f.challenges.rows[0]

	serve(cc.ListChallengesHandler, request(http.MethodGet, "/api/v1/challenges", nil, "alice"))
	rec := serve(cc.ReserveChallengeHandler, request(http.MethodPost, "/api/v1/challenges/reserve",
		dtos.ChallengeActionRequest{ChallengeID: toast.ID.String()}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	serve(dc.UpdatePhoneHandler, request(http.MethodPut, "/api/v1/device/phone", dtos.UpdatePhoneRequest{Phone: "612345678"}, "alice"))

	before := decode[dtos.DeviceResponse](t, serve(dc.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	require.NotNil(t, before.ReservedChallenge)
	bob := decode[dtos.DeviceResponse](t, serve(dc.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "bob")))

	rec = serve(dc.ResetDeviceHandler, request(http.MethodDelete, "/api/v1/device", nil, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[dtos.DeviceResponse](t, rec)
	assert.Regexp(t, `^device_\d+_[0-9a-z]{9}$`, after.DeviceID)
	assert.NotEqual(t, before.DeviceID, after.DeviceID)
	assert.Equal(t, "", after.Phone)
	assert.Nil(t, after.ReservedChallenge)
	assert.True(t, after.ReservationExpired)

	// Other profiles keep their record.
	again := decode[dtos.DeviceResponse](t, serve(dc.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "bob")))
	assert.Equal(t, bob.DeviceID, again.DeviceID)
}

// -----------------------------------------------------------------------------
// Challenges
// -----------------------------------------------------------------------------

func TestChallengeWorkflow(t *testing.T) {
	f := newFixture(t)
	cc := NewChallengeController(f.sessions)
	dc := NewDeviceController(f.sessions, nil)
	toast := f.challenges.rows[0]

	list := decode[dtos.ChallengesResponse](t, serve(cc.ListChallengesHandler, request(http.MethodGet, "/api/v1/challenges", nil, "alice")))
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Available, 3)
	assert.Equal(t, 0, list.CompletionRate)

	rec := serve(cc.ReserveChallengeHandler, request(http.MethodPost, "/api/v1/challenges/reserve",
		dtos.ChallengeActionRequest{ChallengeID: toast.ID.String()}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reserved := decode[dtos.ChallengeResponse](t, rec)
	require.NotNil(t, reserved.Challenge)
	assert.True(t, reserved.Challenge.IsReserved)

	random := decode[dtos.RandomChallengeResponse](t, serve(cc.RandomChallengeHandler, request(http.MethodGet, "/api/v1/challenges/random", nil, "alice")))
	require.NotNil(t, random.Challenge)
	assert.Equal(t, toast.ID, random.Challenge.ID)
	assert.True(t, random.Reserved)

	device := decode[dtos.DeviceResponse](t, serve(dc.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	require.NotNil(t, device.ReservedChallenge)
	assert.Equal(t, toast.ID, device.ReservedChallenge.ID)
	assert.False(t, device.ReservationExpired)

	rec = serve(cc.CompleteChallengeHandler, request(http.MethodPost, "/api/v1/challenges/complete", dtos.CompleteChallengeRequest{
		ChallengeID: toast.ID.String(),
		PhotoID:     f.photos.rows[3].ID.String(),
		CompletedBy: "Lucia",
	}, "alice"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[dtos.ChallengeResponse](t, rec)
	assert.True(t, done.Challenge.IsCompleted)
	assert.Equal(t, "Lucia", done.Challenge.CompletedBy)

	device = decode[dtos.DeviceResponse](t, serve(dc.GetDeviceHandler, request(http.MethodGet, "/api/v1/device", nil, "alice")))
	assert.Nil(t, device.ReservedChallenge)

	list = decode[dtos.ChallengesResponse](t, serve(cc.ListChallengesHandler, request(http.MethodGet, "/api/v1/challenges", nil, "bob")))
	assert.Len(t, list.Completed, 1)
	assert.Equal(t, 33, list.CompletionRate)
}

func TestChallengeRequestValidation(t *testing.T) {
	f := newFixture(t)
	cc := NewChallengeController(f.sessions)

	rec := serve(cc.ReserveChallengeHandler, request(http.MethodPost, "/api/v1/challenges/reserve",
		dtos.ChallengeActionRequest{ChallengeID: "nope"}, "alice"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeValidation, decode[utils.ErrorResponse](t, rec).Code)

	rec = serve(cc.ReleaseChallengeHandler, request(http.MethodPost, "/api/v1/challenges/release",
		dtos.ChallengeActionRequest{ChallengeID: uuid.NewString()}, "alice"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(cc.CompleteChallengeHandler, request(http.MethodPost, "/api/v1/challenges/complete", dtos.CompleteChallengeRequest{
		ChallengeID: f.challenges.rows[0].ID.String(),
		PhotoID:     uuid.NewString(),
	}, "alice"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, f.challenges.rows[0].IsCompleted)
}

func TestChallengesWithoutStore(t *testing.T) {
	sessions := services.NewSessionManager(devicestore.NewMemoryKV(), nil, nil, nil, 12)
	cc := NewChallengeController(sessions)

	rec := serve(cc.ListChallengesHandler, request(http.MethodGet, "/api/v1/challenges", nil, "alice"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, utils.ErrCodeGatewayUnavailable, decode[utils.ErrorResponse](t, rec).Code)

	rec = serve(cc.RandomChallengeHandler, request(http.MethodGet, "/api/v1/challenges/random", nil, "alice"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// -----------------------------------------------------------------------------
// Photos
// -----------------------------------------------------------------------------

func TestPhotoFeed(t *testing.T) {
	f := newFixture(t)
	f.photos.rows[5].ChallengeID = &f.challenges.rows[1].ID
	f.photos.rows[5].Challenge = &models.PhotoChallenge{ID: f.challenges.rows[1].ID, Description: "First dance"}

	publicURL := func(p string) string { return "https://store.example/public/" + p }
	pc := NewPhotoController(f.sessions, publicURL, "uploads")

	page := decode[dtos.PhotosResponse](t, serve(pc.GetPhotosHandler, request(http.MethodGet, "/api/v1/photos", nil, "alice")))
	require.Len(t, page.Photos, 12)
	assert.True(t, page.HasMore)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, "https://cdn.example/first.jpg", page.Photos[0].URL)
	assert.Equal(t, "https://store.example/public/uploads/p.jpg", page.Photos[1].URL)
	assert.Equal(t, "", f.photos.rows[1].URL, "stored rows are not rewritten")

	page = decode[dtos.PhotosResponse](t, serve(pc.LoadMoreHandler, request(http.MethodPost, "/api/v1/photos/more", nil, "alice")))
	assert.Len(t, page.Photos, 14)
	assert.False(t, page.HasMore)

	page = decode[dtos.PhotosResponse](t, serve(pc.ToggleFilterHandler, request(http.MethodPost, "/api/v1/photos/filter", nil, "alice")))
	assert.True(t, page.OnlyChallenges)
	require.Len(t, page.Photos, 1)
	assert.Equal(t, "First dance", page.Photos[0].Challenge.Description)

	page = decode[dtos.PhotosResponse](t, serve(pc.RefreshHandler, request(http.MethodPost, "/api/v1/photos/refresh", nil, "alice")))
	assert.True(t, page.OnlyChallenges)
	assert.Len(t, page.Photos, 1)

	// Plain GET keeps the accumulated state; reset starts over.
	page = decode[dtos.PhotosResponse](t, serve(pc.GetPhotosHandler, request(http.MethodGet, "/api/v1/photos", nil, "alice")))
	assert.Len(t, page.Photos, 1)
	page = decode[dtos.PhotosResponse](t, serve(pc.GetPhotosHandler, request(http.MethodGet, "/api/v1/photos?reset=true", nil, "alice")))
	assert.Equal(t, 1, page.Page)

	// Another profile has its own feed.
	other := decode[dtos.PhotosResponse](t, serve(pc.GetPhotosHandler, request(http.MethodGet, "/api/v1/photos", nil, "bob")))
	assert.False(t, other.OnlyChallenges)
	assert.Len(t, other.Photos, 12)
}
