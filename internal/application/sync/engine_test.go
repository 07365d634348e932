package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
)

type engineFixture struct {
	sessions  *remote.MemorySource[records.Session]
	personnel *remote.MemorySource[records.User]
	timeOff   *remote.MemorySource[records.TimeOffRequest]
	reports   *remote.MemorySource[records.JobReport]
	blobs     *blobstore.MemoryStore
	clock     *fakeClock
	notified  chan string
}

func newEngineFixture() *engineFixture {
	return &engineFixture{
		sessions:  remote.NewMemorySource[records.Session](),
		personnel: remote.NewMemorySource[records.User](),
		timeOff:   remote.NewMemorySource[records.TimeOffRequest](),
		reports:   remote.NewMemorySource[records.JobReport](),
		blobs:     blobstore.NewMemoryStore(),
		clock:     newFakeClock(),
		notified:  make(chan string, 64),
	}
}

func (f *engineFixture) engine(t *testing.T, tenantID string) *Engine {
	t.Helper()

	engine := NewEngine(EngineOptions{
		TenantID:    tenantID,
		KeyPrefix:   "focalpoint",
		BlobVersion: "1.3",
		Sources: Sources{
			Sessions:  f.sessions,
			Personnel: f.personnel,
			TimeOff:   f.timeOff,
			Reports:   f.reports,
		},
		Blobs:   f.blobs,
		Metrics: readmetrics.NewTracker(),
		Logger:  testLogger(t),
		Notify: func(_, dataset string) {
			select {
			case f.notified <- dataset:
			default:
			}
		},
		Clock: f.clock.Now,
	})
	t.Cleanup(engine.Teardown)
	return engine
}

func TestEngineAggregateFlags(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	engine := f.engine(t, "org1")

	model := engine.ReadModel()
	if !model.LoadingAny {
		t.Fatal("cold engine should report loadingAny")
	}
	if model.ErrorsAny {
		t.Fatal("cold engine reports errors")
	}

	engine.Start()

	model = engine.ReadModel()
	if model.LoadingAny {
		t.Fatalf("started engine still loading: %+v", model)
	}
	if model.Sessions.State != StateLive || model.Reports.State != StateLive {
		t.Fatalf("datasets not live: %+v", model)
	}
}

func TestEngineErrorsAny(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.reports.SubscribeErr = errors.New("feed refused")
	engine := f.engine(t, "org1")
	engine.Start()

	model := engine.ReadModel()
	if !model.ErrorsAny {
		t.Fatal("errorsAny not set")
	}
	if model.Reports.Error == "" {
		t.Fatal("reports view carries no error")
	}
	if model.Sessions.Error != "" {
		t.Fatalf("healthy dataset reports error: %q", model.Sessions.Error)
	}
}

func TestEngineResolvesAssigneeNames(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.personnel.Seed("org1", records.User{
		ID: "p1", OrganizationID: "org1", DisplayName: "Ada Lovelace", IsActive: true,
	})
	f.sessions.Seed("org1", records.Session{
		ID: "s1", OrganizationID: "org1",
		Date:            records.DateFromString("2026-09-01"),
		PhotographerIDs: []string{"p1"},
	})

	engine := f.engine(t, "org1")
	engine.Start()

	model := engine.ReadModel()
	if len(model.Sessions.Data) != 1 {
		t.Fatalf("session entries: %+v", model.Sessions.Data)
	}
	entry := model.Sessions.Data[0]
	if entry.ID != "s1-p1" || entry.AssigneeName != "Ada Lovelace" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestEnginePersonnelChangeReprojectsSessions(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.personnel.Seed("org1", records.User{
		ID: "p1", OrganizationID: "org1", DisplayName: "Ada", IsActive: true,
	})
	f.sessions.Seed("org1", records.Session{
		ID: "s1", OrganizationID: "org1",
		Date:            records.DateFromString("2026-09-01"),
		PhotographerIDs: []string{"p1"},
	})

	engine := f.engine(t, "org1")
	engine.Start()

	// Past the personnel cooldown window, deliver a rename.
	f.clock.Advance(time.Minute)
	f.personnel.Publish("org1", remote.Change[records.User]{
		Type: remote.ChangeModified, ID: "p1",
		Record: records.User{ID: "p1", OrganizationID: "org1", DisplayName: "Ada Lovelace", IsActive: true},
	})

	model := engine.ReadModel()
	if model.Sessions.Data[0].AssigneeName != "Ada Lovelace" {
		t.Fatalf("session entry not reprojected: %+v", model.Sessions.Data[0])
	}
}

func TestEngineTenantIsolation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.personnel.Seed("org1", records.User{ID: "p1", OrganizationID: "org1", DisplayName: "Org One", IsActive: true})
	f.personnel.Seed("org2", records.User{ID: "p2", OrganizationID: "org2", DisplayName: "Org Two", IsActive: true})

	first := f.engine(t, "org1")
	first.Start()
	first.Teardown()

	second := f.engine(t, "org2")
	second.Start()

	model := second.ReadModel()
	if len(model.Personnel.Data) != 1 || model.Personnel.Data[0].DisplayName != "Org Two" {
		t.Fatalf("tenant 2 sees wrong data: %+v", model.Personnel.Data)
	}

	// The first engine exposes nothing after teardown.
	old := first.ReadModel()
	if len(old.Personnel.Data) != 0 || old.Personnel.State != StateCold {
		t.Fatalf("torn down engine still serves data: %+v", old.Personnel)
	}
}

func TestEngineInvalidateAll(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	engine := f.engine(t, "org1")
	engine.Start()

	if f.blobs.Len() != 4 {
		t.Fatalf("blob count = %d, want 4", f.blobs.Len())
	}
	if err := engine.Invalidate("all"); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	if f.blobs.Len() != 0 {
		t.Fatalf("blob count after invalidate = %d, want 0", f.blobs.Len())
	}
}

func TestEngineInvalidateUnknownDataset(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	engine := f.engine(t, "org1")

	if err := engine.Invalidate("bogus"); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestEngineOptimisticFacade(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.timeOff.Seed("org1", records.TimeOffRequest{
		ID: "t1", OrganizationID: "org1", PhotographerID: "p1",
		StartDate: records.DateFromString("2026-09-01"),
		EndDate:   records.DateFromString("2026-09-02"),
		Status:    records.TimeOffPending,
	})

	engine := f.engine(t, "org1")
	engine.Start()

	if err := engine.ApplyOptimistic(DatasetTimeOff, "t1", map[string]any{
		"status": records.TimeOffApproved,
	}); err != nil {
		t.Fatalf("optimistic: %v", err)
	}

	model := engine.ReadModel()
	if len(model.TimeOff.Data) != 2 {
		t.Fatalf("time off entries: %+v", model.TimeOff.Data)
	}
	for _, entry := range model.TimeOff.Data {
		if entry.Status != records.TimeOffApproved {
			t.Fatalf("entry status = %q", entry.Status)
		}
	}
}

func TestEngineNotifiesOnPublish(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	engine := f.engine(t, "org1")
	engine.Start()

	seen := make(map[string]bool)
	for len(f.notified) > 0 {
		seen[<-f.notified] = true
	}
	for _, dataset := range Datasets {
		if !seen[dataset] {
			t.Fatalf("no notification for %s (saw %v)", dataset, seen)
		}
	}
}
