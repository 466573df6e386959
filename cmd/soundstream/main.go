package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundstream/internal/app/catalog"
	"soundstream/internal/app/playlists"
	"soundstream/internal/assets"
	"soundstream/internal/httpapi"
	"soundstream/internal/identity"
	"soundstream/internal/store"
	"soundstream/shared/go/logging"
	"soundstream/shared/go/middleware"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		boot := logging.New(logging.Config{Level: "error", Format: "json"})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	catalogStore := store.New(db)
	cacheBackend := newCache(ctx, cfg.RedisAddr, cfg.RedisPassword, log)
	uploader := assets.NewClient(cfg.MediaStoreURL, cfg.MediaStoreKey, log)
	identityClient := identity.NewClient(cfg.IdentityURL)

	catalogService := catalog.NewService(catalogStore, cacheBackend, uploader, log)
	playlistService := playlists.NewService(catalogStore, uploader, identityClient, log)

	api := httpapi.NewServer(catalogService, playlistService, identityClient, log)

	handler := corsMiddleware(cfg.AllowedOrigins)(
		middleware.RequestLogging(log)(api.Routes()),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("catalog service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
