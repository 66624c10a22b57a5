package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripplanner/internal/api"
	"tripplanner/internal/cache"
	"tripplanner/internal/catalog"
	"tripplanner/internal/config"
	"tripplanner/internal/governor"
	"tripplanner/internal/logger"
	"tripplanner/internal/observability"
	"tripplanner/internal/plan"
	"tripplanner/internal/storage"
	"tripplanner/internal/suggest"
	"tripplanner/internal/upstream"
	"tripplanner/internal/version"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	printVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *printVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize storage
	storeInstance, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storeInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStore storage.Store = storeInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStore(storeInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStore = instrumented
	}

	// Load the embedded destination catalog and seed storage with it so
	// other tools can query destinations through the same backend.
	cat, err := catalog.Load()
	if err != nil {
		slog.Error("Failed to load destination catalog", "error", err)
		os.Exit(1)
	}
	if err := activeStore.SeedDestinations(context.Background(), cat.All()); err != nil {
		slog.Warn("Failed to seed destination catalog into storage", "error", err)
	}

	// Initialize the admission governor
	gov := governor.New(cfg.Governance, log)
	defer gov.Close()

	var admitter observability.Admitter = gov
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedGovernor(gov)
		if err != nil {
			slog.Error("Failed to create instrumented governor", "error", err)
			os.Exit(1)
		}
		admitter = instrumented

		registration, err := observability.RegisterBreakerGauge(gov.Breaker())
		if err != nil {
			slog.Error("Failed to register breaker gauge", "error", err)
			os.Exit(1)
		}
		defer registration.Unregister()
	}

	// Suggestion result cache
	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cfg.Cache.TTL, cfg.Cache.SweepInterval)
		defer resultCache.Close()
	}

	// Upstream clients
	aiClient, err := upstream.NewAIClient(cfg.AI, log)
	if err != nil {
		slog.Error("Failed to create AI client", "error", err)
		os.Exit(1)
	}
	geoClient := upstream.NewGeoClient(cfg.Geocode, log)

	// Domain services
	suggestService := suggest.NewService(cfg.Suggest, cat, resultCache, geoClient, admitter, log)
	planService := plan.NewService(cfg.AI, aiClient, admitter, gov.Breaker(), activeStore, log)

	// HTTP handlers and routes
	handlers := api.NewHandlers(suggestService, planService, gov, cat, activeStore, log)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr, "version", version.GetInfo().Version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
