package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/noridevx/wedding-web/internal/app"
	"github.com/noridevx/wedding-web/internal/config"
	"github.com/noridevx/wedding-web/internal/controllers"
	"github.com/noridevx/wedding-web/internal/routes"
	"github.com/noridevx/wedding-web/internal/utils"
)

const (
	digestJobTimeout = 2 * time.Minute
	startupTimeout   = 30 * time.Second
	phoneCountryCode = "ES"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()

	// 2) Core application
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize wedding-service:", err)
	}
	defer application.Close()

	if application.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		if err := app.EnsureSchema(ctx, application.DB); err != nil {
			cancel()
			utils.Logger.WithError(err).Fatal("Failed to ensure schema")
		}
		if cfg.LDFlag_SeedDbWithTestData {
			if _, err := app.SeedChallenges(ctx, application.ChallengeRepo); err != nil {
				cancel()
				utils.Logger.WithError(err).Fatal("Failed to seed challenges")
			}
		}
		cancel()
	}

	// 3) Controllers
	var checkPhone controllers.PhoneChecker
	if cfg.LDFlag_ValidatePhoneWithTwilio {
		country := phoneCountryCode
		checkPhone = func(ctx context.Context, e164 string) (bool, error) {
			return utils.LookupPhoneNumber(ctx, e164, &country, application.Twilio)
		}
	}
	publicURL := func(objectPath string) string {
		return cfg.BuildPublicURL(cfg.StorageBucket, objectPath)
	}

	healthCtrl := controllers.NewHealthController(application)
	deviceCtrl := controllers.NewDeviceController(application.Sessions, checkPhone)
	challengeCtrl := controllers.NewChallengeController(application.Sessions)
	photoCtrl := controllers.NewPhotoController(application.Sessions, publicURL, cfg.StorageFolder)

	// 4) Router
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthCtrl.HealthCheckHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.Device, deviceCtrl.GetDeviceHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Device, deviceCtrl.ResetDeviceHandler).Methods(http.MethodDelete)
	router.HandleFunc(routes.DevicePhone, deviceCtrl.UpdatePhoneHandler).Methods(http.MethodPut)
	router.HandleFunc(routes.DeviceReservation, deviceCtrl.ClearReservationHandler).Methods(http.MethodDelete)

	router.HandleFunc(routes.Challenges, challengeCtrl.ListChallengesHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.ChallengesRandom, challengeCtrl.RandomChallengeHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.ChallengesReserve, challengeCtrl.ReserveChallengeHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.ChallengesRelease, challengeCtrl.ReleaseChallengeHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.ChallengesComplete, challengeCtrl.CompleteChallengeHandler).Methods(http.MethodPost)

	router.HandleFunc(routes.Photos, photoCtrl.GetPhotosHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PhotosMore, photoCtrl.LoadMoreHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PhotosRefresh, photoCtrl.RefreshHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PhotosFilter, photoCtrl.ToggleFilterHandler).Methods(http.MethodPost)

	// 5) Progress digest
	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cfg.DigestSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting progress digest cron job...")
		if err := application.Progress.RunDigest(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to run progress digest")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule progress digest cron")
	}
	c.Start()
	defer c.Stop()
	utils.Logger.Infof("Scheduled progress digest: %s", cfg.DigestSchedule)

	// 6) CORS
	allowedOrigins := []string{}
	if cfg.AppUrl != "" {
		allowedOrigins = append(allowedOrigins, cfg.AppUrl)
	}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", utils.HeaderDeviceProfile},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("wedding-service failed to start:", err)
	}
}
