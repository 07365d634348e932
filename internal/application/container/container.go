// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/messaging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	Logger      *logging.ChanneledLogger
	Metrics     *readmetrics.Tracker
	Blobs       blobstore.Store
	Broadcaster *messaging.SSEBroadcaster
	Feed        *remote.Feed
	Archive     *remote.ReportArchive

	Registry      *tenant.Registry
	TenantManager *tenant.Manager
	Detector      *tenant.Detector
}

// NewContainer bundles the already-constructed singletons. Wiring happens
// in startup; the container only carries the references.
func NewContainer(
	logger *logging.ChanneledLogger,
	metrics *readmetrics.Tracker,
	blobs blobstore.Store,
	broadcaster *messaging.SSEBroadcaster,
	feed *remote.Feed,
	archive *remote.ReportArchive,
	registry *tenant.Registry,
	tenantManager *tenant.Manager,
	detector *tenant.Detector,
) *Container {
	return &Container{
		Logger:        logger,
		Metrics:       metrics,
		Blobs:         blobs,
		Broadcaster:   broadcaster,
		Feed:          feed,
		Archive:       archive,
		Registry:      registry,
		TenantManager: tenantManager,
		Detector:      detector,
	}
}
