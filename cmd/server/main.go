package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studyassist/internal/api"
	"studyassist/internal/assistant"
	"studyassist/internal/config"
	"studyassist/internal/generator"
	"studyassist/internal/store"
)

func main() {
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	var st store.Store
	var pg *store.PostgresStore
	if cfg.DatabaseURL != "" {
		var err error
		pg, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		if err := pg.Init(ctx); err != nil {
			log.Error("failed to create tables", "error", err)
			os.Exit(1)
		}
		st = pg
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	// Initialize the generator client and service.
	gen := generator.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayModel)
	svc := assistant.NewService(st, gen, log, cfg)

	// Initialize HTTP server.
	srv := api.NewServer(svc, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		gen.Close()
		if pg != nil {
			pg.Close()
		}
	}()

	log.Info("starting studyassist", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
