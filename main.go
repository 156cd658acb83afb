package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/config"
	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/hub"
	"github.com/yeremiapane/mf-tracker/livefeed"
	"github.com/yeremiapane/mf-tracker/middlewares"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/router"
	"github.com/yeremiapane/mf-tracker/services"
	"github.com/yeremiapane/mf-tracker/utils"
)

// App holds the long running parts of the server.
type App struct {
	Engine        *gin.Engine
	Notifications *notifications.Service
	Scheduler     *notifications.Scheduler
	Feed          *livefeed.Adapter
	Monitor       *services.ReminderMonitor
	Hub           *hub.Hub

	unsubscribe func()
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Investment{},
		&models.Reminder{},
		&models.KVEntry{},
	)
}

// NewApp wires storage, the notification core and the HTTP surface.
func NewApp(cfg config.Config, db *gorm.DB) (*App, error) {
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	kv := database.NewKVStore(db)
	log := utils.InfoLogger

	store := notifications.NewStore(kv, notifications.WithLogger(log))
	svc := notifications.NewService(store, notifications.WithLogger(log))
	scheduler := notifications.NewScheduler(store,
		notifications.WithLogger(log),
		notifications.WithInterval(cfg.SchedulerInterval),
	)
	feed := livefeed.New(cfg.NotificationsWS, svc,
		livefeed.WithLogger(log),
		livefeed.WithReconnectInterval(cfg.LiveFeedReconnect),
	)

	h := hub.New(log, hub.WithWriteTimeout(cfg.WSWriteTimeout))
	unsubscribe := svc.Subscribe(h.BroadcastNotifications)

	engine := router.SetupRouter(router.Deps{
		DB:            db,
		Notifications: svc,
		Hub:           h,
		Settings:      services.NewReminderSettingsService(kv, log),
		Market:        services.NewMarketService(cfg.MFAPIBaseURL, log),
		RateLimiter:   middlewares.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		CORSOrigin:    cfg.CORSOrigin,
	})

	return &App{
		Engine:        engine,
		Notifications: svc,
		Scheduler:     scheduler,
		Feed:          feed,
		Monitor:       services.NewReminderMonitor(db, log),
		Hub:           h,
		unsubscribe:   unsubscribe,
	}, nil
}

// Start launches the scheduler, the live feed and the reminder monitor.
func (a *App) Start(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	if err := a.Feed.Start(ctx); err != nil {
		a.Scheduler.Stop()
		return err
	}
	a.Monitor.Start()
	return nil
}

func (a *App) Stop() {
	a.Monitor.Stop()
	a.Feed.Stop()
	a.Scheduler.Stop()
	a.unsubscribe()
	a.Hub.CloseAll()
}

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Warn(".env file not found, using environment")
	}

	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)
	utils.InitJWT(cfg.JWTSecret)
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	app, err := NewApp(cfg, db)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start background workers: %v", err)
	}
	if app.Feed.Enabled() {
		utils.InfoLogger.WithField("url", cfg.NotificationsWS).Info("live feed enabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("server shutdown")
	}
	app.Stop()
}
