package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/panjf2000/ants/v2"

	"tvrelay/work/bridge"
	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/database"
	"tvrelay/work/filter"
	"tvrelay/work/logger"
	"tvrelay/work/mapping"
	"tvrelay/work/relay"
	"tvrelay/work/sources"
)

var (
	Version = "v0.1.0" // default version
)

func main() {
	started := time.Now()

	// load our config
	cfg := config.LoadConfig(config.PathFromEnv())
	logger.Configure(logger.Options{Level: cfg.LogLevel, UTC: cfg.LogUTC})

	// relay fetches are bounded; content fetches use their own timeout
	relayFetcher := client.NewFetcher(client.Options{
		Timeout:      cfg.RelayTimeout,
		MaxRedirects: cfg.MaxRedirects,
		Headers:      cfg.UpstreamHeaders,
	})
	contentFetcher := client.NewFetcher(client.Options{
		Timeout:      cfg.ContentTimeout,
		MaxRedirects: cfg.MaxRedirects,
		Headers:      cfg.UpstreamHeaders,
	})

	workerPool, err := ants.NewPool(cfg.WorkerThreads, ants.WithPreAlloc(true))
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	defer workerPool.Release()

	// sources survive restarts when the database opens; otherwise run memory-only
	var store sources.Store
	if cfg.DatabasePath != "" {
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error("{main - main} database unavailable, sources will not persist: %v", err)
		} else {
			defer db.Close()
			store = db
		}
	}

	registry := sources.New(cfg, contentFetcher, store, workerPool)
	if err := registry.Load(); err != nil {
		logger.Error("{main - main} failed to load sources: %v", err)
	}
	go registry.StartRefresh()
	defer registry.StopRefresh()

	mappings := mapping.New(cfg.MappingCapacity, cfg.MappingTTL)

	router := mux.NewRouter()
	relay.New(cfg, relayFetcher, mappings).Routes(router)
	setupAPIRoutes(router, &apiDeps{
		Config:   cfg,
		Registry: registry,
		Mappings: mappings,
		Fetcher:  contentFetcher,
		Bridge:   bridge.New(cfg, contentFetcher),
		Filters:  filter.NewManager(),
		Started:  started,
	})

	logger.Info("{main - main} Starting tvrelay %s", Version)
	logger.Info("{main - main} Server configuration:")
	logger.Info("{main - main}   - Listen Address: %s", cfg.ListenAddr)
	logger.Info("{main - main}   - Relay Origin: %s", cfg.RelayOrigin)
	logger.Info("{main - main}   - Relay Timeout: %s", cfg.RelayTimeout)
	logger.Info("{main - main}   - Max Redirects: %d", cfg.MaxRedirects)
	logger.Info("{main - main}   - Handle Capacity: %d (ttl %s)", cfg.MappingCapacity, cfg.MappingTTL)
	logger.Info("{main - main}   - Worker Threads: %d", cfg.WorkerThreads)
	logger.Info("{main - main}   - Sources: %d", len(registry.List()))
	logger.Info("{main - main}   - Source Refresh Rate: %s", cfg.RefreshInterval)
	logger.Info("{main - main}   - URL Obfuscation: %v", cfg.ObfuscateUrls)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StdLogger(logger.WARN, "{main - http}"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("{main - main} Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("{main - main} shutdown: %v", err)
		}
	}()

	// fire us up
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}
