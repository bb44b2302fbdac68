package devicestore

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/utils"
)

// Store is the device record of one guest device. Every read goes to the
// KeyValue, so stores on different replicas over a shared backend agree.
// The device id is remembered in process only for when the backend cannot
// be read.
//
// Persistence failures are logged and swallowed: callers see "no data",
// never an error, matching how a browser treats unusable local storage.
type Store struct {
	kv  KeyValue
	now func() time.Time

	mu       sync.Mutex
	deviceID string
}

// NewStore builds a Store over kv. A nil now uses time.Now.
func NewStore(kv KeyValue, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: kv, now: now}
}

// GetDeviceID returns the stable device identifier, generating and
// persisting "device_<unix-ms>_<9 base36 chars>" on first use.
func (s *Store) GetDeviceID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.kv.Get(ctx, constants.StorageKeyDeviceID)
	if err != nil {
		if s.deviceID != "" {
			return s.deviceID
		}
		utils.Logger.WithError(err).Warn("Failed to read device id; generating a new one")
	}
	if !ok || id == "" {
		id = newDeviceID(s.now())
		if err := s.kv.Set(ctx, constants.StorageKeyDeviceID, id); err != nil {
			utils.Logger.WithError(err).Warn("Failed to persist device id")
		}
	}
	s.deviceID = id
	return id
}

func newDeviceID(now time.Time) string {
	return constants.DeviceIDPrefix +
		strconv.FormatInt(now.UnixMilli(), 10) + "_" +
		utils.RandomBase36String(constants.DeviceIDRandomSuffix)
}

// SaveReservedChallenge persists c stamped with the current local time, or
// clears the reservation when c is nil.
func (s *Store) SaveReservedChallenge(ctx context.Context, c *models.Challenge) {
	if c == nil {
		s.ClearReservedChallenge(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &models.ReservedChallenge{
		Challenge:       *c.Clone(),
		LocalReservedAt: utils.Ptr(s.now()),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to encode reserved challenge")
		return
	}
	if err := s.kv.Set(ctx, constants.StorageKeyReservedChallenge, string(raw)); err != nil {
		utils.Logger.WithError(err).Warn("Failed to persist reserved challenge")
	}
}

// GetReservedChallenge returns the persisted reservation, or nil when there is
// none. Malformed persisted data is purged and reported as absent.
func (s *Store) GetReservedChallenge(ctx context.Context) *models.ReservedChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadReservedLocked(ctx)
}

func (s *Store) loadReservedLocked(ctx context.Context) *models.ReservedChallenge {
	raw, ok, err := s.kv.Get(ctx, constants.StorageKeyReservedChallenge)
	if err != nil {
		utils.Logger.WithError(err).Warn("Failed to read reserved challenge")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var rec models.ReservedChallenge
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"key": constants.StorageKeyReservedChallenge,
		}).Warn("Discarding malformed reserved challenge")
		if rmErr := s.kv.Remove(ctx, constants.StorageKeyReservedChallenge); rmErr != nil {
			utils.Logger.WithError(rmErr).Warn("Failed to purge malformed reserved challenge")
		}
		return nil
	}
	return &rec
}

func (s *Store) ClearReservedChallenge(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, constants.StorageKeyReservedChallenge); err != nil {
		utils.Logger.WithError(err).Warn("Failed to remove reserved challenge")
	}
}

// IsReservedChallengeExpired is true when there is no reservation, when it
// carries no local stamp, or when the stamp is strictly more than one hour
// old.
func (s *Store) IsReservedChallengeExpired(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadReservedLocked(ctx)
	if rec == nil || rec.LocalReservedAt == nil {
		return true
	}
	return s.now().Sub(*rec.LocalReservedAt) > constants.ReservationTTL
}

// SaveDevicePhone persists the phone exactly as given; an empty or
// whitespace-only value removes it.
func (s *Store) SaveDevicePhone(ctx context.Context, phone string) {
	if strings.TrimSpace(phone) == "" {
		if err := s.kv.Remove(ctx, constants.StorageKeyDevicePhone); err != nil {
			utils.Logger.WithError(err).Warn("Failed to remove device phone")
		}
		return
	}
	if err := s.kv.Set(ctx, constants.StorageKeyDevicePhone, phone); err != nil {
		utils.Logger.WithError(err).Warn("Failed to persist device phone")
	}
}

func (s *Store) GetDevicePhone(ctx context.Context) string {
	phone, _, err := s.kv.Get(ctx, constants.StorageKeyDevicePhone)
	if err != nil {
		utils.Logger.WithError(err).Warn("Failed to read device phone")
		return ""
	}
	return phone
}

// Clear wipes the whole device record, including the device id.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{
		constants.StorageKeyDeviceID,
		constants.StorageKeyDevicePhone,
		constants.StorageKeyReservedChallenge,
	} {
		if err := s.kv.Remove(ctx, key); err != nil {
			utils.Logger.WithError(err).WithField("key", key).Warn("Failed to clear device key")
		}
	}
	s.deviceID = ""
}
