package projection

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

func nameTable(names map[string]string) Context {
	return Context{
		LookupDisplayName: func(id string) (string, bool) {
			name, ok := names[id]
			return name, ok
		},
	}
}

func TestProjectSessionsFanOut(t *testing.T) {
	t.Parallel()

	ctx := nameTable(map[string]string{"A": "Ada Lovelace", "B": "Barbara Liskov"})
	sessions := []records.Session{{
		ID:              "s1",
		OrganizationID:  "org1",
		Date:            records.DateFromString("2026-09-01"),
		StartTime:       "09:00",
		PhotographerIDs: []string{"A", "B"},
	}}

	entries := ProjectSessions(ctx, sessions)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "s1-A" || entries[1].ID != "s1-B" {
		t.Fatalf("composite ids = %q, %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].AssigneeName != "Ada Lovelace" || entries[1].AssigneeName != "Barbara Liskov" {
		t.Fatalf("names = %q, %q", entries[0].AssigneeName, entries[1].AssigneeName)
	}
}

func TestProjectSessionsUnassigned(t *testing.T) {
	t.Parallel()

	entries := ProjectSessions(Context{}, []records.Session{{
		ID:             "s1",
		OrganizationID: "org1",
		Date:           records.DateFromString("2026-09-01"),
	}})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !entries[0].Unassigned || entries[0].ID != "s1" || entries[0].AssigneeID != "" {
		t.Fatalf("unexpected unassigned entry: %+v", entries[0])
	}
}

func TestProjectSessionsUnknownAssignee(t *testing.T) {
	t.Parallel()

	entries := ProjectSessions(nameTable(nil), []records.Session{{
		ID:              "s1",
		OrganizationID:  "org1",
		Date:            records.DateFromString("2026-09-01"),
		PhotographerIDs: []string{"ghost"},
	}})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].AssigneeName != "" {
		t.Fatalf("unknown assignee resolved to %q", entries[0].AssigneeName)
	}
}

func TestProjectSessionsNormalizesMixedDates(t *testing.T) {
	t.Parallel()

	ts := records.TimestampOf(mustParseDay(t, "2026-09-02"))
	sessions := []records.Session{
		{ID: "s1", Date: records.DateFromString("2026-09-02T08:00:00Z")},
		{ID: "s2", Date: records.DateFromTimestamp(ts)},
		{ID: "s3", Date: records.DateFromString("2026-09-02")},
		{ID: "s4"}, // no date, dropped
	}

	entries := ProjectSessions(Context{}, sessions)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for _, entry := range entries {
		if entry.Date != "2026-09-02" {
			t.Fatalf("entry %s date = %q, want 2026-09-02", entry.ID, entry.Date)
		}
	}
}

func TestProjectSessionsDeterministic(t *testing.T) {
	t.Parallel()

	ctx := nameTable(map[string]string{"A": "Ada"})
	sessions := []records.Session{
		{ID: "s2", Date: records.DateFromString("2026-09-01"), StartTime: "13:00", PhotographerIDs: []string{"A"}},
		{ID: "s1", Date: records.DateFromString("2026-09-01"), StartTime: "09:00", PhotographerIDs: []string{"A"}},
	}

	first := ProjectSessions(ctx, sessions)
	second := ProjectSessions(ctx, []records.Session{sessions[1], sessions[0]})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("projection not deterministic (-first +second):\n%s", diff)
	}
	if first[0].ID != "s1-A" {
		t.Fatalf("expected earliest start first, got %q", first[0].ID)
	}
}

func TestProjectTimeOffDayExpansion(t *testing.T) {
	t.Parallel()

	entries := ProjectTimeOff(Context{}, []records.TimeOffRequest{{
		ID:             "t1",
		OrganizationID: "org1",
		PhotographerID: "A",
		StartDate:      records.DateFromString("2024-01-01"),
		EndDate:        records.DateFromString("2024-01-03"),
		Status:         records.TimeOffApproved,
	}})

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	wantDays := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, day := range wantDays {
		if entries[i].Date != day {
			t.Fatalf("entry %d date = %q, want %q", i, entries[i].Date, day)
		}
		if entries[i].ID != "t1-"+day {
			t.Fatalf("entry %d id = %q", i, entries[i].ID)
		}
	}
}

func TestProjectTimeOffPartialApproval(t *testing.T) {
	t.Parallel()

	entries := ProjectTimeOff(Context{}, []records.TimeOffRequest{{
		ID:             "t1",
		PhotographerID: "A",
		StartDate:      records.DateFromString("2024-01-01"),
		EndDate:        records.DateFromString("2024-01-03"),
		Status:         records.TimeOffPartiallyApproved,
		DayStatuses: map[string]string{
			"2024-01-01": "denied",
			"2024-01-02": records.TimeOffApproved,
		},
	}})

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Date != "2024-01-02" {
		t.Fatalf("date = %q, want 2024-01-02", entries[0].Date)
	}
}

func TestProjectTimeOffStatuses(t *testing.T) {
	t.Parallel()

	request := func(status string) records.TimeOffRequest {
		return records.TimeOffRequest{
			ID:        "t1",
			StartDate: records.DateFromString("2024-01-01"),
			EndDate:   records.DateFromString("2024-01-02"),
			Status:    status,
		}
	}

	tests := []struct {
		status string
		want   int
	}{
		{records.TimeOffPending, 2},
		{records.TimeOffUnderReview, 2},
		{records.TimeOffApproved, 2},
		{records.TimeOffPartiallyApproved, 0}, // no day statuses
		{"denied", 0},
		{"cancelled", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			entries := ProjectTimeOff(Context{}, []records.TimeOffRequest{request(tt.status)})
			if len(entries) != tt.want {
				t.Fatalf("status %q: got %d entries, want %d", tt.status, len(entries), tt.want)
			}
		})
	}
}

func TestProjectTimeOffInvertedRange(t *testing.T) {
	t.Parallel()

	entries := ProjectTimeOff(Context{}, []records.TimeOffRequest{{
		ID:        "t1",
		StartDate: records.DateFromString("2024-01-05"),
		EndDate:   records.DateFromString("2024-01-01"),
		Status:    records.TimeOffApproved,
	}})
	if len(entries) != 0 {
		t.Fatalf("inverted range produced %d entries", len(entries))
	}
}

func TestProjectPersonnelSort(t *testing.T) {
	t.Parallel()

	users := []records.User{
		{ID: "u1", DisplayName: "zoe", IsActive: true},
		{ID: "u2", DisplayName: "Adam", IsActive: false},
		{ID: "u3", FirstName: "Mina", LastName: "Okafor", IsActive: true},
		{ID: "u4", Email: "casey@example.com", IsActive: true},
	}

	entries := ProjectPersonnel(Context{}, users)
	got := make([]string, len(entries))
	for i, entry := range entries {
		got[i] = entry.DisplayName
	}

	want := []string{"casey@example.com", "Mina Okafor", "zoe", "Adam"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user records.User
		want string
	}{
		{"display name wins", records.User{DisplayName: "Ada L", FirstName: "Ada", Email: "a@x.com"}, "Ada L"},
		{"first last", records.User{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com"}, "Ada Lovelace"},
		{"first only", records.User{FirstName: "Ada", Email: "a@x.com"}, "Ada"},
		{"email last resort", records.User{Email: "a@x.com"}, "a@x.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DisplayNameFor(tt.user); got != tt.want {
				t.Fatalf("DisplayNameFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProjectReportsNewestFirst(t *testing.T) {
	t.Parallel()

	entries := ProjectReports(Context{}, []records.JobReport{
		{ID: "r1", Date: records.DateFromString("2026-08-01")},
		{ID: "r2", Date: records.DateFromString("2026-08-15")},
		{ID: "r3", Date: records.DateFromString("2026-08-15")},
	})

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].ID != "r2" || entries[1].ID != "r3" || entries[2].ID != "r1" {
		t.Fatalf("order = %s, %s, %s", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func mustParseDay(t *testing.T, day string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("parse %s: %v", day, err)
	}
	return parsed
}
