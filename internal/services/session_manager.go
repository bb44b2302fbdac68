package services

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

// Session is the state owned by one guest device: its device record, its
// view of the challenge set and its gallery feed.
type Session struct {
	Profile  string
	Device   *devicestore.Store
	Registry *ChallengeRegistry
	Gallery  *PhotoGallery
}

// SessionManager hands out one Session per device profile. Idle sessions
// are evicted after constants.SessionIdleTTL; their device record lives on
// in the KeyValue and is reloaded on the next request.
type SessionManager struct {
	kv            devicestore.KeyValue
	challengeRepo repositories.ChallengeRepository
	photoRepo     repositories.PhotoRepository
	notifier      CompletionNotifier
	pageSize      int

	mu       sync.Mutex
	sessions *gocache.Cache
}

func NewSessionManager(
	kv devicestore.KeyValue,
	challengeRepo repositories.ChallengeRepository,
	photoRepo repositories.PhotoRepository,
	notifier CompletionNotifier,
	pageSize int,
) *SessionManager {
	return &SessionManager{
		kv:            kv,
		challengeRepo: challengeRepo,
		photoRepo:     photoRepo,
		notifier:      notifier,
		pageSize:      pageSize,
		sessions:      gocache.New(constants.SessionIdleTTL, constants.SessionCleanupInterval),
	}
}

// Get returns the session for profile, creating it on first use. Every
// call pushes the idle deadline back.
func (m *SessionManager) Get(profile string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sessions.Get(profile); ok {
		s := v.(*Session)
		m.sessions.SetDefault(profile, s)
		return s
	}

	device := devicestore.NewStore(
		devicestore.WithPrefix(m.kv, constants.ProfileKeyPrefix+profile+":"),
		nil,
	)
	s := &Session{
		Profile:  profile,
		Device:   device,
		Registry: NewChallengeRegistry(m.challengeRepo, m.photoRepo, device, m.notifier),
		Gallery:  NewPhotoGallery(m.photoRepo, m.pageSize),
	}
	m.sessions.SetDefault(profile, s)

	utils.Logger.WithField("profile", profile).Debug("Opened device session")
	return s
}

func (m *SessionManager) Len() int {
	return m.sessions.ItemCount()
}

// Close drops every in-memory session.
func (m *SessionManager) Close() {
	m.sessions.Flush()
}
