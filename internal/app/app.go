package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	twilio "github.com/twilio/twilio-go"

	"github.com/noridevx/wedding-web/internal/config"
	"github.com/noridevx/wedding-web/internal/devicestore"
	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App is the explicit application context shared by every handler. DB and
// the repositories are nil when no remote store is configured.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Twilio *twilio.RestClient

	ChallengeRepo repositories.ChallengeRepository
	PhotoRepo     repositories.PhotoRepository

	Mailer   services.Mailer
	Sessions *services.SessionManager
	Progress *services.ProgressService
}

func NewApp(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.DBUrl != "" {
		pool, err := connectWithRetry(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		a.DB = pool
		a.ChallengeRepo = repositories.NewChallengeRepository(pool)
		a.PhotoRepo = repositories.NewPhotoRepository(pool)
	} else {
		utils.Logger.Warn("No DB_URL; challenge and photo operations will report the store as unavailable")
	}

	var kv devicestore.KeyValue = devicestore.NewMemoryKV()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		a.Redis = client
		kv = devicestore.NewRedisKV(client)
		utils.Logger.Infof("Device profiles stored in Redis at %s", cfg.RedisAddr)
	} else {
		utils.Logger.Info("No REDIS_ADDR; device profiles kept in memory")
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		a.Twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}

	if cfg.EmailEnabled() {
		a.Mailer = services.NewSendGridMailer(cfg.SendgridAPIKey, cfg.OrganizationName, cfg.LDFlag_SendgridFromEmail)
	}

	var notifier services.CompletionNotifier
	if cfg.LDFlag_SendCompletionEmails && a.Mailer != nil {
		notifier = services.NewEmailCompletionNotifier(a.Mailer, cfg.OrganizerEmail)
	}

	a.Sessions = services.NewSessionManager(kv, a.ChallengeRepo, a.PhotoRepo, notifier, cfg.GalleryPageSize)
	a.Progress = services.NewProgressService(a.ChallengeRepo, a.Mailer, cfg.OrganizerEmail)
	return a, nil
}

// Ping checks the remote store. It returns utils.ErrGatewayUnavailable when
// none is configured.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return utils.ErrGatewayUnavailable
	}
	return a.DB.Ping(ctx)
}

func (a *App) Close() {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Closing Redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("DB connection closed.")
	}
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	var (
		pool    *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("Connected to DB on attempt %d", i)
			return pool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}
