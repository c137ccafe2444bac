package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adityakr/videotube-be/internal/api"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/database"
	"github.com/adityakr/videotube-be/internal/logger"
	"github.com/adityakr/videotube-be/internal/media"
	"github.com/adityakr/videotube-be/internal/monitoring"
	"github.com/adityakr/videotube-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.IsProduction())

	// Ensure the staging directory for uploads exists
	if err := os.MkdirAll(cfg.UploadTempDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload temp directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the media uploader
	uploader, err := media.NewS3Uploader(context.Background(), cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media uploader")
	}

	// Set up services
	tokens := auth.NewTokenManager(cfg.Tokens)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, tokens, uploader, eventService)
	channelService := services.NewChannelService(db)
	subscriptionService := services.NewSubscriptionService(db)
	videoService := services.NewVideoService(db, uploader)

	// Set up and run the background stat updater
	statUpdater := monitoring.NewStatUpdater(eventService)
	go statUpdater.Run()

	// Set up and run the background session reaper
	reaper, err := monitoring.NewSessionReaper(db, tokens, eventService, cfg.SessionReaperSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session reaper")
	}
	go reaper.Run()

	// Set up router
	router := api.NewRouter(api.Deps{
		Config:        cfg,
		Tokens:        tokens,
		Users:         userService,
		Channels:      channelService,
		Subscriptions: subscriptionService,
		Videos:        videoService,
		Events:        eventService,
		Stats:         statUpdater,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
