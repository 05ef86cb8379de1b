package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/api"
	"github.com/MilynDsilva/consultrooms/internal/config"
	"github.com/MilynDsilva/consultrooms/internal/provider"
	"github.com/MilynDsilva/consultrooms/internal/repository"
	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/MilynDsilva/consultrooms/internal/web"
)

func main() {
	// Initialize the global logger before anything can log
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// A missing .env file is fine; the environment may be set directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize the session store using the factory
	repo, err := repository.New(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}
	if closer, ok := repo.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error().Err(err).Msg("error closing session store")
			}
		}()
	}

	// Wire the coordination core
	mediaProvider := provider.NewAPIClient(cfg.Provider)
	registry := service.NewRegistry(repo, mediaProvider, cfg.Provider.MediaRegion)
	recorder := service.NewRecorder(registry, repo, mediaProvider, cfg.Recording.SinkBucket)
	bridge := service.NewBridge(repo, cfg.Notify.QueueSize)
	events := web.NewEventsHandler(bridge, cfg.Notify.ToastTTL)

	mux := api.SetupRoutes(registry, recorder, bridge, events, cfg.Provider.WebhookSecretToken)

	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     web.ProtocolMiddleware(mux),
		ReadTimeout: cfg.Server.ReadTimeout,
		// Write timeout stays disabled for SSE connections
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Sweep idle meetings when configured
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Server.EvictionInterval > 0 {
		go runEvictionSweeper(sweeperCtx, registry, cfg.Server.EvictionInterval)
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting consultrooms server")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal().Err(err).Msg("server error")

	case <-shutdown:
		log.Info().Msg("shutting down server")

		// Close SSE streams first so Shutdown does not wait on them
		events.Shutdown()
		stopSweeper()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			log.Fatal().Err(err).Msg("error shutting down server")
		}

		log.Info().Msg("server gracefully stopped")
	}
}

// runEvictionSweeper periodically removes meetings with no attendees
// and no active recording
func runEvictionSweeper(ctx context.Context, registry *service.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted, err := registry.EvictIdle(ctx); err != nil {
				log.Error().Err(err).Msg("eviction sweep failed")
			} else if evicted > 0 {
				log.Info().Int("evicted", evicted).Msg("eviction sweep completed")
			}
		}
	}
}
