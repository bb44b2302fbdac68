package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/noridevx/wedding-web/internal/constants"
	"github.com/noridevx/wedding-web/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string

	// Remote data store; empty means "not configured".
	DBUrl string

	// Device profile backend; empty RedisAddr keeps profiles in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StorageURL    string
	StorageBucket string
	StorageFolder string

	GalleryPageSize int
	OrganizerEmail  string
	DigestSchedule  string

	SendgridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string

	// Feature-flag snapshots
	LDFlag_SeedDbWithTestData      bool
	LDFlag_ValidatePhoneWithTwilio bool
	LDFlag_SendCompletionEmails    bool
	LDFlag_CORSHighSecurity        bool
	LDFlag_SendgridFromEmail       string
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second

	defaultAppName   = "wedding-service"
	defaultEnv       = "dev"
	defaultAppPort   = "8080"
	defaultFromEmail = "no-reply@wedding.local"
)

// build-time overrides, set with -ldflags
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

// LoadConfig is Load for servers: any error is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load config")
	}
	return cfg
}

// Load reads the environment, then overlays Bitwarden secrets when
// BWS_ACCESS_TOKEN is set and LaunchDarkly flags when LD_SDK_KEY is known.
// Nothing remote is required; every source is optional.
func Load() (*Config, error) {
	appName := AppName
	if appName == "" {
		appName = defaultAppName
	}
	utils.Logger.Info("Loading config for app: ", appName)

	//----------------------------------------------------------------------
	// 1) Runtime environment vars
	//----------------------------------------------------------------------
	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          appName,
		Env:              envOr("ENV", defaultEnv),
		AppPort:          envOr("APP_PORT", defaultAppPort),
		AppUrl:           os.Getenv("APP_URL_FROM_ANYWHERE"),
		DBUrl:            os.Getenv("DB_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		StorageURL:       strings.TrimRight(os.Getenv("STORAGE_URL"), "/"),
		StorageBucket:    envOr("STORAGE_BUCKET", constants.DefaultStorageBucket),
		StorageFolder:    envOr("STORAGE_FOLDER", constants.DefaultStorageFolder),
		OrganizerEmail:   os.Getenv("ORGANIZER_EMAIL"),
		DigestSchedule:   envOr("DIGEST_SCHEDULE", constants.DefaultDigestSchedule),
		SendgridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
	}

	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.GalleryPageSize, err = envInt("GALLERY_PAGE_SIZE", constants.DefaultGalleryPageSize); err != nil {
		return nil, err
	}
	if cfg.GalleryPageSize < 1 {
		return nil, fmt.Errorf("GALLERY_PAGE_SIZE must be positive, got %d", cfg.GalleryPageSize)
	}

	//----------------------------------------------------------------------
	// 2) Env-level flag defaults (overridden by LaunchDarkly below)
	//----------------------------------------------------------------------
	if cfg.LDFlag_SeedDbWithTestData, err = envBool("SEED_DB_WITH_TEST_DATA", false); err != nil {
		return nil, err
	}
	if cfg.LDFlag_ValidatePhoneWithTwilio, err = envBool("VALIDATE_PHONE_WITH_TWILIO", false); err != nil {
		return nil, err
	}
	if cfg.LDFlag_SendCompletionEmails, err = envBool("SEND_COMPLETION_EMAILS", false); err != nil {
		return nil, err
	}
	if cfg.LDFlag_CORSHighSecurity, err = envBool("CORS_HIGH_SECURITY", false); err != nil {
		return nil, err
	}
	cfg.LDFlag_SendgridFromEmail = envOr("SENDGRID_FROM_EMAIL", defaultFromEmail)

	//----------------------------------------------------------------------
	// 3) BWS secrets
	//----------------------------------------------------------------------
	ldSDK := os.Getenv("LD_SDK_KEY")
	if os.Getenv("BWS_ACCESS_TOKEN") != "" {
		secrets, err := fetchSecrets(fmt.Sprintf("%s-%s", cfg.AppName, cfg.Env))
		if err != nil {
			return nil, err
		}
		overlay(&cfg.DBUrl, secrets, "DB_URL")
		overlay(&cfg.SendgridAPIKey, secrets, "SENDGRID_API_KEY")
		overlay(&cfg.TwilioAccountSID, secrets, "TWILIO_ACCOUNT_SID")
		overlay(&cfg.TwilioAuthToken, secrets, "TWILIO_AUTH_TOKEN")
		overlay(&ldSDK, secrets, "LD_SDK_KEY")
	} else {
		utils.Logger.Debug("BWS_ACCESS_TOKEN not set; using environment secrets only")
	}

	//----------------------------------------------------------------------
	// 4) LaunchDarkly flags
	//----------------------------------------------------------------------
	if ldSDK != "" {
		if err := cfg.loadFlags(ldSDK); err != nil {
			return nil, err
		}
	} else {
		utils.Logger.Debug("LD_SDK_KEY not set; feature flags come from the environment")
	}

	if cfg.DBUrl == "" {
		utils.Logger.Warn("DB_URL is empty; the remote data store is not configured")
	}

	utils.Logger.Infof("Loaded config for %s (%s)", cfg.AppName, cfg.Env)
	return cfg, nil
}

func fetchSecrets(project string) (map[string]string, error) {
	client, err := utils.NewBWSSecretsClient()
	if err != nil {
		return nil, fmt.Errorf("init BWS client: %w", err)
	}
	defer client.Close()

	utils.Logger.Debugf("Fetching secrets from BWS project %s", project)
	secrets, err := client.GetBWSSecrets(project)
	if err != nil {
		return nil, fmt.Errorf("fetch BWS secrets: %w", err)
	}
	return secrets, nil
}

func (c *Config) loadFlags(sdkKey string) error {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("create LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		return fmt.Errorf("LaunchDarkly client failed to initialize")
	}

	key := LDServerContextKey
	if key == "" {
		key = c.AppName
	}
	ctx := ldcontext.New(key)
	if LDServerContextKind != "" {
		ctx = ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), key)
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"seed_db_with_test_data", &c.LDFlag_SeedDbWithTestData},
		{"validate_phone_with_twilio", &c.LDFlag_ValidatePhoneWithTwilio},
		{"send_completion_emails", &c.LDFlag_SendCompletionEmails},
		{"cors_high_security", &c.LDFlag_CORSHighSecurity},
	}
	for _, f := range boolFlags {
		v, err := ldClient.BoolVariation(f.name, ctx, *f.dst)
		if err != nil {
			return fmt.Errorf("%s flag error: %w", f.name, err)
		}
		*f.dst = v
		utils.Logger.Debugf("%s flag: %t", f.name, v)
	}

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", ctx, c.LDFlag_SendgridFromEmail)
	if err != nil {
		return fmt.Errorf("sendgrid_from_email flag error: %w", err)
	}
	if fromEmail != "" {
		c.LDFlag_SendgridFromEmail = fromEmail
	}
	utils.Logger.Debugf("sendgrid_from_email flag: %s", c.LDFlag_SendgridFromEmail)
	return nil
}

// BuildPublicURL returns the public object URL of path inside bucket, or ""
// when no storage URL is configured.
func (c *Config) BuildPublicURL(bucket, path string) string {
	if c.StorageURL == "" || path == "" {
		return ""
	}
	if bucket == "" {
		bucket = c.StorageBucket
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		c.StorageURL, bucket, strings.TrimLeft(path, "/"))
}

// EmailEnabled reports whether outgoing organizer mail can be sent.
func (c *Config) EmailEnabled() bool {
	return c.SendgridAPIKey != "" && c.OrganizerEmail != ""
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func overlay(dst *string, secrets map[string]string, key string) {
	if v, ok := secrets[key]; ok && v != "" {
		*dst = v
	}
}
