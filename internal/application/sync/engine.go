package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/projection"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// Dataset names used in keys, routes, and notifications.
const (
	DatasetSessions  = "sessions"
	DatasetPersonnel = "personnel"
	DatasetTimeOff   = "timeoff"
	DatasetReports   = "reports"
)

// Datasets lists every synchronized dataset name.
var Datasets = []string{DatasetSessions, DatasetPersonnel, DatasetTimeOff, DatasetReports}

// Sources bundles the typed remote sources an engine syncs against.
type Sources struct {
	Sessions  remote.Source[records.Session]
	Personnel remote.Source[records.User]
	TimeOff   remote.Source[records.TimeOffRequest]
	Reports   remote.Source[records.JobReport]
}

// EngineOptions configures one tenant's engine.
type EngineOptions struct {
	TenantID    string
	KeyPrefix   string
	BlobVersion string

	Sources Sources
	Blobs   blobstore.Store
	Metrics *readmetrics.Tracker
	Logger  *logging.ChanneledLogger

	// Notify fires after any dataset's projected data changes. Optional.
	Notify func(tenantID, dataset string)

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// ReadModel is the aggregate view over all four datasets.
type ReadModel struct {
	TenantID   string                          `json:"tenantId"`
	Sessions   View[projection.SessionEntry]   `json:"sessions"`
	Personnel  View[projection.PersonnelEntry] `json:"personnel"`
	TimeOff    View[projection.TimeOffDay]     `json:"timeOff"`
	Reports    View[projection.ReportEntry]    `json:"reports"`
	LoadingAny bool                            `json:"loadingAny"`
	ErrorsAny  bool                            `json:"errorsAny"`
}

// Engine aggregates one tenant's four cache controllers behind a single
// facade. A new engine is built per tenant; on tenant change the old engine
// is torn down before the next one starts, so stale data is never visible.
type Engine struct {
	tenantID string
	logger   *logging.ChanneledLogger

	sessions  *Controller[records.Session, projection.SessionEntry]
	personnel *Controller[records.User, projection.PersonnelEntry]
	timeOff   *Controller[records.TimeOffRequest, projection.TimeOffDay]
	reports   *Controller[records.JobReport, projection.ReportEntry]
}

// NewEngine wires one tenant's controllers. Nothing syncs until Start.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{tenantID: opts.TenantID, logger: opts.Logger}

	notify := func(dataset string) {
		if opts.Notify != nil {
			opts.Notify(opts.TenantID, dataset)
		}
	}

	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock
	}
	sessionsQuery := remote.Query{
		TenantID: opts.TenantID,
		From:     now().Add(-config.SessionsWindowPast),
		To:       now().Add(config.SessionsWindowFuture),
	}

	e.personnel = NewController(Options[records.User, projection.PersonnelEntry]{
		Dataset:     DatasetPersonnel,
		TenantID:    opts.TenantID,
		Query:       remote.Query{TenantID: opts.TenantID},
		Tuning:      config.Personnel,
		KeyPrefix:   opts.KeyPrefix,
		BlobVersion: opts.BlobVersion,
		Source:      opts.Sources.Personnel,
		Blobs:       opts.Blobs,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		Project:     projection.ProjectPersonnel,
		OnPublish: func(dataset string) {
			notify(dataset)
			// Session entries embed photographer names; keep them current.
			e.sessions.Reproject()
		},
		Clock: opts.Clock,
	})

	projectCtx := projection.Context{LookupDisplayName: e.displayName}

	e.sessions = NewController(Options[records.Session, projection.SessionEntry]{
		Dataset:     DatasetSessions,
		TenantID:    opts.TenantID,
		Query:       sessionsQuery,
		Tuning:      config.Sessions,
		KeyPrefix:   opts.KeyPrefix,
		BlobVersion: opts.BlobVersion,
		Source:      opts.Sources.Sessions,
		Blobs:       opts.Blobs,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		Project:     projection.ProjectSessions,
		ProjectCtx:  projectCtx,
		OnPublish:   notify,
		Clock:       opts.Clock,
	})

	e.timeOff = NewController(Options[records.TimeOffRequest, projection.TimeOffDay]{
		Dataset:     DatasetTimeOff,
		TenantID:    opts.TenantID,
		Query:       remote.Query{TenantID: opts.TenantID},
		Tuning:      config.TimeOff,
		KeyPrefix:   opts.KeyPrefix,
		BlobVersion: opts.BlobVersion,
		Source:      opts.Sources.TimeOff,
		Blobs:       opts.Blobs,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		Project:     projection.ProjectTimeOff,
		OnPublish:   notify,
		Clock:       opts.Clock,
	})

	e.reports = NewController(Options[records.JobReport, projection.ReportEntry]{
		Dataset:     DatasetReports,
		TenantID:    opts.TenantID,
		Query:       remote.Query{TenantID: opts.TenantID},
		Tuning:      config.Reports,
		KeyPrefix:   opts.KeyPrefix,
		BlobVersion: opts.BlobVersion,
		Source:      opts.Sources.Reports,
		Blobs:       opts.Blobs,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		Project:     projection.ProjectReports,
		OnPublish:   notify,
		Clock:       opts.Clock,
	})

	return e
}

// displayName resolves a personnel id against the personnel controller's
// raw records at call time.
func (e *Engine) displayName(id string) (string, bool) {
	user, ok := e.personnel.Lookup(id)
	if !ok {
		return "", false
	}
	return projection.DisplayNameFor(user), true
}

// TenantID returns the tenant this engine serves.
func (e *Engine) TenantID() string { return e.tenantID }

// Start hydrates all controllers. Personnel starts first so session
// projection can resolve names as early as possible.
func (e *Engine) Start() {
	e.personnel.Start()
	e.sessions.Start()
	e.timeOff.Start()
	e.reports.Start()
	e.logger.WithTenant(logging.ChannelSync, e.tenantID).Info("Sync engine started")
}

// ReadModel snapshots all four datasets plus the aggregate flags.
func (e *Engine) ReadModel() ReadModel {
	model := ReadModel{
		TenantID:  e.tenantID,
		Sessions:  e.sessions.Snapshot(),
		Personnel: e.personnel.Snapshot(),
		TimeOff:   e.timeOff.Snapshot(),
		Reports:   e.reports.Snapshot(),
	}
	model.LoadingAny = model.Sessions.Loading || model.Personnel.Loading ||
		model.TimeOff.Loading || model.Reports.Loading
	model.ErrorsAny = model.Sessions.Error != "" || model.Personnel.Error != "" ||
		model.TimeOff.Error != "" || model.Reports.Error != ""
	return model
}

// Invalidate drops the persisted blob for one dataset, or all of them.
func (e *Engine) Invalidate(dataset string) error {
	switch dataset {
	case DatasetSessions:
		return e.sessions.Invalidate()
	case DatasetPersonnel:
		return e.personnel.Invalidate()
	case DatasetTimeOff:
		return e.timeOff.Invalidate()
	case DatasetReports:
		return e.reports.Invalidate()
	case "all":
		for _, name := range Datasets {
			if err := e.Invalidate(name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown dataset %q", dataset)
	}
}

// Refresh clears and refetches one dataset.
func (e *Engine) Refresh(ctx context.Context, dataset string) error {
	switch dataset {
	case DatasetSessions:
		return e.sessions.Refresh(ctx)
	case DatasetPersonnel:
		return e.personnel.Refresh(ctx)
	case DatasetTimeOff:
		return e.timeOff.Refresh(ctx)
	case DatasetReports:
		return e.reports.Refresh(ctx)
	default:
		return fmt.Errorf("unknown dataset %q", dataset)
	}
}

// ApplyOptimistic merges partial fields over one record of a dataset,
// synchronously updating the read model without waiting for the remote
// store. The update has no rollback on remote failure.
func (e *Engine) ApplyOptimistic(dataset, id string, partial map[string]any) error {
	switch dataset {
	case DatasetSessions:
		return e.sessions.ApplyOptimistic(id, partial)
	case DatasetPersonnel:
		return e.personnel.ApplyOptimistic(id, partial)
	case DatasetTimeOff:
		return e.timeOff.ApplyOptimistic(id, partial)
	case DatasetReports:
		return e.reports.ApplyOptimistic(id, partial)
	default:
		return fmt.Errorf("unknown dataset %q", dataset)
	}
}

// Teardown stops every controller. Idempotent; after teardown no data from
// this tenant remains readable through the engine.
func (e *Engine) Teardown() {
	e.sessions.Teardown()
	e.personnel.Teardown()
	e.timeOff.Teardown()
	e.reports.Teardown()
	e.logger.WithTenant(logging.ChannelSync, e.tenantID).Info("Sync engine torn down")
}
