// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/container"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/sync"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/messaging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/server"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until the
// process receives a shutdown signal.
func Initialize() error {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	start := time.Now().UTC()

	// Step 1: Channeled logging
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Focal Point sync service starting")

	// Step 2: Tenant registry
	logger.Startup().Info("Loading tenant registry", "path", config.TenantRegistryPath)
	registry, err := tenant.LoadRegistry(config.TenantRegistryPath, config.TenantAESKey)
	if err != nil {
		return fmt.Errorf("failed to load tenant registry: %w", err)
	}
	logger.Startup().Info("Tenant registry loaded", "tenants", len(registry.List()))

	// Step 3: Persistent cache store
	logger.Startup().Info("Opening cache store", "path", config.CacheStorePath)
	blobs, err := blobstore.NewSQLiteStore(config.CacheStorePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer blobs.Close()

	// Step 4: Read instrumentation and SSE fan-out
	metrics := readmetrics.NewTracker()
	broadcaster := messaging.NewSSEBroadcaster(config.SSEChannelBuffer, logger)

	// Step 5: Remote change feed. Startup continues on dial failure; the
	// feed redials in the background and controllers error out on their
	// own hydration timeouts until it recovers.
	logger.Startup().Info("Connecting to change feed", "url", config.RemoteFeedURL)
	feed := remote.NewFeed(config.RemoteFeedURL, logger)
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	if err := feed.Connect(dialCtx); err != nil {
		logger.Startup().Warn("Change feed unavailable at startup", "error", err.Error())
	}
	cancelDial()
	defer feed.Close()

	// Step 6: Report archive (optional)
	var archive *remote.ReportArchive
	if config.ReportArchiveURL != "" || config.ReportArchivePath != "" {
		archive, err = remote.NewReportArchive(remote.ArchiveConfig{
			TursoURL:   config.ReportArchiveURL,
			TursoToken: config.ReportArchiveToken,
			SQLitePath: config.ReportArchivePath,
		}, logger)
		if err != nil {
			logger.Startup().Warn("Report archive unavailable", "error", err.Error())
		} else {
			defer archive.Close()
			logger.Startup().Info("Report archive ready", "connection", archive.ConnectionInfo())
		}
	}

	// Step 7: Tenant manager with per-tenant sync engines
	manager := tenant.NewManager(registry, tenant.EngineDeps{
		Sources:     feedSources(feed),
		Blobs:       blobs,
		Metrics:     metrics,
		Broadcaster: broadcaster,
		Logger:      logger,
	})
	defer manager.Shutdown()

	logger.Startup().Info("Activating registered tenants")
	if err := manager.ActivateAll(); err != nil {
		return fmt.Errorf("tenant activation failed: %w", err)
	}

	// Step 8: Dependency injection container
	detector := tenant.NewDetector(registry, config.JWTSecret, logger)
	appContainer := container.NewContainer(logger, metrics, blobs, broadcaster, feed, archive, registry, manager, detector)

	// Step 9: HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			gracefulShutdown <- syscall.SIGTERM
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown")

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	manager.Shutdown()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// feedSources builds the four typed dataset sources over the shared feed.
func feedSources(feed *remote.Feed) sync.Sources {
	return sync.Sources{
		Sessions:  remote.NewFeedSource[records.Session](feed, sync.DatasetSessions),
		Personnel: remote.NewFeedSource[records.User](feed, sync.DatasetPersonnel),
		TimeOff:   remote.NewFeedSource[records.TimeOffRequest](feed, sync.DatasetTimeOff),
		Reports:   remote.NewFeedSource[records.JobReport](feed, sync.DatasetReports),
	}
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
