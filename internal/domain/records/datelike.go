package records

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateKind tags which wire representation a DateLike value arrived in.
type DateKind int

const (
	DateAbsent    DateKind = iota
	DateString             // "YYYY-MM-DD" or RFC3339
	DateTimestamp          // {seconds, nanoseconds}
	DateNative             // constructed in-process from a time.Time
)

// DateLike is the tagged union for session and report dates, which the
// remote store delivers inconsistently as a plain string, an ISO datetime,
// or a raw timestamp pair. Day is the single normalization point; nothing
// downstream inspects the representation again.
type DateLike struct {
	kind DateKind
	str  string
	ts   Timestamp
	t    time.Time
}

// DateFromString builds a DateLike from a date or RFC3339 string.
func DateFromString(s string) DateLike {
	return DateLike{kind: DateString, str: s}
}

// DateFromTimestamp builds a DateLike from a wire timestamp pair.
func DateFromTimestamp(ts Timestamp) DateLike {
	return DateLike{kind: DateTimestamp, ts: ts}
}

// DateFromTime builds a DateLike from an in-process time.Time.
func DateFromTime(t time.Time) DateLike {
	return DateLike{kind: DateNative, t: t}
}

// Kind returns the representation tag.
func (d DateLike) Kind() DateKind { return d.kind }

// Day normalizes the value to a YYYY-MM-DD string regardless of the input
// representation. The second return is false when the value is absent or
// unparseable.
func (d DateLike) Day() (string, bool) {
	switch d.kind {
	case DateString:
		s := strings.TrimSpace(d.str)
		if len(s) >= 10 {
			if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
				return s[:10], true
			}
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed.UTC().Format("2006-01-02"), true
		}
		return "", false
	case DateTimestamp:
		if d.ts.IsZero() {
			return "", false
		}
		return d.ts.Time().Format("2006-01-02"), true
	case DateNative:
		if d.t.IsZero() {
			return "", false
		}
		return d.t.UTC().Format("2006-01-02"), true
	default:
		return "", false
	}
}

// MarshalJSON writes the value back in its original representation so that
// persisted blobs round-trip byte-compatibly with the remote wire format.
func (d DateLike) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case DateString:
		return json.Marshal(d.str)
	case DateTimestamp:
		return json.Marshal(d.ts)
	case DateNative:
		return json.Marshal(d.t.UTC().Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, a timestamp pair, or null.
func (d *DateLike) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = DateLike{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DateLike{kind: DateString, str: s}
		return nil
	}

	var ts Timestamp
	if err := json.Unmarshal(data, &ts); err == nil {
		*d = DateLike{kind: DateTimestamp, ts: ts}
		return nil
	}

	return fmt.Errorf("unsupported date representation: %s", string(data))
}
