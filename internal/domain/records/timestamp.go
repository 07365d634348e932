package records

import (
	"encoding/json"
	"time"
)

// Timestamp is the remote store's last-modified marker, carried on the wire
// and in persisted cache blobs as a plain {seconds, nanoseconds} pair. It is
// used only for merge and staleness decisions, never for business ordering.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// TimestampOf converts a time.Time into the wire representation.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		Seconds:     t.Unix(),
		Nanoseconds: int32(t.Nanosecond()),
	}
}

// Time reconstructs the timestamp as a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds)).UTC()
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Nanoseconds == 0
}

// UnmarshalJSON accepts both the canonical pair form and, for tolerance of
// older persisted blobs, an RFC3339 string.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	type pair struct {
		Seconds     int64 `json:"seconds"`
		Nanoseconds int32 `json:"nanoseconds"`
	}

	var p pair
	if err := json.Unmarshal(data, &p); err == nil {
		ts.Seconds = p.Seconds
		ts.Nanoseconds = p.Nanoseconds
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*ts = TimestampOf(parsed)
	return nil
}
