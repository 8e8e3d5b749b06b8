package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/blob"
	"github.com/example/stopvol/internal/config"
	"github.com/example/stopvol/internal/database"
	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/handlers"
	"github.com/example/stopvol/internal/logger"
	"github.com/example/stopvol/internal/push"
	"github.com/example/stopvol/internal/routes"
	"github.com/example/stopvol/internal/services"
	"github.com/example/stopvol/internal/sms"
	"github.com/example/stopvol/internal/store"
	"github.com/example/stopvol/internal/worker"
)

func main() {
	cfg := config.Load()

	zlog := logger.New(cfg.AppEnv)
	defer zlog.Sync()

	db := database.Connect(cfg.DatabaseURL)

	otpStore := store.NewGormOtpStore(db)
	userStore := store.NewGormUserStore(db)
	declarationStore := store.NewGormDeclarationStore(db)
	notificationStore := store.NewGormNotificationStore(db)

	sender, err := sms.New(sms.Config{
		Provider:               cfg.SMSProvider,
		AqilasAPIKey:           cfg.AqilasAPIKey,
		AqilasSenderID:         cfg.AqilasSenderID,
		AqilasBaseURL:          cfg.AqilasBaseURL,
		TwilioAccountSID:       cfg.TwilioAccountSID,
		TwilioAuthToken:        cfg.TwilioAuthToken,
		TwilioFromNumber:       cfg.TwilioFromNumber,
		NexmoAPIKey:            cfg.NexmoAPIKey,
		NexmoAPISecret:         cfg.NexmoAPISecret,
		NexmoFromNumber:        cfg.NexmoFromNumber,
		AfricasTalkingUsername: cfg.AfricasTalkingUsername,
		AfricasTalkingAPIKey:   cfg.AfricasTalkingAPIKey,
		AfricasTalkingFrom:     cfg.AfricasTalkingFrom,
	}, zlog)
	if err != nil {
		log.Fatalf("sms provider setup failed: %v", err)
	}

	pushGateway := push.NewGateway(cfg.FCMServerKey, zlog)

	blobs, err := blob.NewLocalStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		log.Fatalf("storage setup failed: %v", err)
	}

	bus := events.NewBus()
	bus.Subscribe(func(event any) {
		switch e := event.(type) {
		case events.DeclarationCreated:
			zlog.Info("declaration created",
				zap.String("declaration_id", e.Declaration.ID.String()))
		case events.UserProfileCompleted:
			zlog.Info("profile completed, pending validation",
				zap.String("user_id", e.User.ID.String()))
		}
	})

	otpService := services.NewOtpService(otpStore, sender, zlog)
	userService := services.NewUserService(userStore, blobs, bus, zlog)
	declarationService := services.NewDeclarationService(declarationStore, blobs, bus, zlog)

	queue := worker.NewQueue(cfg.QueueSize, worker.DefaultRetryPolicy, zlog)
	notificationService := services.NewNotificationService(
		notificationStore, declarationStore, userStore,
		sender, pushGateway, queue, bus, cfg.DefaultCountryCode, zlog)
	queue.OnPermanentFailure = notificationService.OnDeliveryFailure

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx, cfg.WorkerCount)
	go runOtpCleanup(ctx, otpService, cfg.OtpCleanupInterval, zlog)

	app := fiber.New(fiber.Config{
		AppName: "StopVol Backend",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	authHandler := handlers.NewAuthHandler(otpService, userService, cfg)
	profileHandler := handlers.NewProfileHandler(userService, blobs)
	declarationHandler := handlers.NewDeclarationHandler(declarationService)
	adminHandler := handlers.NewAdminHandler(
		declarationService, notificationService, userService,
		declarationStore, userStore, notificationStore)

	routes.Register(app, routes.Deps{
		Cfg:          cfg,
		Users:        userStore,
		Auth:         authHandler,
		Profile:      profileHandler,
		Declarations: declarationHandler,
		Admin:        adminHandler,
	})

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// runOtpCleanup periodically purges expired and consumed verification codes.
func runOtpCleanup(ctx context.Context, otps *services.OtpService, interval time.Duration, zlog *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := otps.CleanupExpired(ctx)
			if err != nil {
				zlog.Error("otp cleanup failed", zap.Error(err))
				continue
			}
			used, err := otps.CleanupUsed(ctx)
			if err != nil {
				zlog.Error("otp cleanup failed", zap.Error(err))
				continue
			}
			if expired+used > 0 {
				zlog.Info("purged stale otp codes",
					zap.Int64("expired", expired),
					zap.Int64("used", used))
			}
		}
	}
}
