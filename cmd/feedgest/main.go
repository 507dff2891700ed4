package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/feedgest/internal/api"
	"github.com/dgallion1/feedgest/internal/config"
	"github.com/dgallion1/feedgest/internal/fetch"
	"github.com/dgallion1/feedgest/internal/pipeline"
	"github.com/dgallion1/feedgest/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients and stores.
	stats := fetch.NewFetchStats(time.Hour)
	feeds := fetch.NewClient(cfg.FetchTimeout, cfg.MaxFeedBytes, stats)
	docs := fetch.NewClient(cfg.FetchTimeout, cfg.MaxDocBytes, nil)
	fs := store.NewFeedStore(cfg.FeedTTL, cfg.MaxItemsPerFeed)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, feeds, docs, fs, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

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

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		feeds.Close()
		docs.Close()
	}()

	log.Info("starting feedgest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
