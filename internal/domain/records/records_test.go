package records

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	ts := TimestampOf(time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC))

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != ts {
		t.Fatalf("round trip mismatch: got %+v want %+v", back, ts)
	}
}

func TestTimestampAcceptsRFC3339(t *testing.T) {
	t.Parallel()

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2026-03-14T09:26:53Z"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if !ts.Time().Equal(want) {
		t.Fatalf("got %v want %v", ts.Time(), want)
	}
}

func TestDateLikeDay(t *testing.T) {
	t.Parallel()

	noon := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		date   DateLike
		want   string
		wantOK bool
	}{
		{"plain date string", DateFromString("2026-07-04"), "2026-07-04", true},
		{"iso datetime string", DateFromString("2026-07-04T18:30:00Z"), "2026-07-04", true},
		{"timestamp pair", DateFromTimestamp(TimestampOf(noon)), "2026-07-04", true},
		{"native time", DateFromTime(noon), "2026-07-04", true},
		{"absent", DateLike{}, "", false},
		{"garbage string", DateFromString("not-a-date"), "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.date.Day()
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Day() = (%q, %t), want (%q, %t)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDateLikeUnmarshalForms(t *testing.T) {
	t.Parallel()

	var s Session
	payload := []byte(`{
		"id": "s1",
		"organizationId": "org1",
		"date": {"seconds": 1751630400, "nanoseconds": 0},
		"photographerIds": ["p1", "p2"],
		"updatedAt": {"seconds": 1751630400, "nanoseconds": 500}
	}`)
	if err := json.Unmarshal(payload, &s); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if s.Date.Kind() != DateTimestamp {
		t.Fatalf("date kind = %v, want DateTimestamp", s.Date.Kind())
	}
	day, ok := s.Date.Day()
	if !ok || day != "2025-07-04" {
		t.Fatalf("day = (%q, %t), want (2025-07-04, true)", day, ok)
	}
}

func TestDateLikeMarshalPreservesRepresentation(t *testing.T) {
	t.Parallel()

	in := []byte(`"2026-07-04"`)
	var d DateLike
	if err := json.Unmarshal(in, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("marshal = %s, want %s", out, in)
	}
}

func TestMergePartial(t *testing.T) {
	t.Parallel()

	base := Session{
		ID:              "s1",
		OrganizationID:  "org1",
		SchoolName:      "Lincoln Elementary",
		Date:            DateFromString("2026-07-04"),
		StartTime:       "08:00",
		PhotographerIDs: []string{"p1"},
		Status:          "scheduled",
	}

	merged, err := MergePartial(base, map[string]any{
		"id":     "hijacked",
		"status": "completed",
		"notes":  "wrapped early",
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := base
	want.Status = "completed"
	want.Notes = "wrapped early"

	if diff := cmp.Diff(want, merged, cmp.AllowUnexported(DateLike{})); diff != "" {
		t.Fatalf("merged record mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePartialLeavesUntouchedFields(t *testing.T) {
	t.Parallel()

	base := TimeOffRequest{
		ID:             "t1",
		OrganizationID: "org1",
		PhotographerID: "p1",
		StartDate:      DateFromString("2026-07-01"),
		EndDate:        DateFromString("2026-07-03"),
		Status:         TimeOffPending,
	}

	merged, err := MergePartial(base, map[string]any{"status": TimeOffApproved})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Status != TimeOffApproved {
		t.Fatalf("status = %q, want %q", merged.Status, TimeOffApproved)
	}
	if merged.PhotographerID != "p1" || merged.ID != "t1" {
		t.Fatalf("identity fields changed: %+v", merged)
	}
	if day, _ := merged.StartDate.Day(); day != "2026-07-01" {
		t.Fatalf("start date = %q, want 2026-07-01", day)
	}
}
