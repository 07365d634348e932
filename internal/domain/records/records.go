// Package records defines the raw record shapes mirrored from the remote
// document store, one type per synchronized dataset.
package records

import (
	"encoding/json"
	"fmt"
)

// Record is the minimal contract the sync engine needs from a raw record:
// a stable unique id within its dataset.
type Record interface {
	RecordID() string
}

// Session is a photo session as stored remotely. A session may carry any
// number of assigned photographers; projection fans it out per assignee.
type Session struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organizationId"`
	SchoolID        string    `json:"schoolId,omitempty"`
	SchoolName      string    `json:"schoolName,omitempty"`
	Date            DateLike  `json:"date"`
	StartTime       string    `json:"startTime,omitempty"`
	EndTime         string    `json:"endTime,omitempty"`
	SessionTypes    []string  `json:"sessionTypes,omitempty"`
	PhotographerIDs []string  `json:"photographerIds,omitempty"`
	Status          string    `json:"status,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UpdatedAt       Timestamp `json:"updatedAt"`
}

func (s Session) RecordID() string { return s.ID }

// User is one personnel record (photographer or office staff).
type User struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	FirstName      string    `json:"firstName,omitempty"`
	LastName       string    `json:"lastName,omitempty"`
	DisplayName    string    `json:"displayName,omitempty"`
	Email          string    `json:"email,omitempty"`
	Role           string    `json:"role,omitempty"`
	IsActive       bool      `json:"isActive"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

func (u User) RecordID() string { return u.ID }

// Time-off request statuses recognized by the projector. Any other status
// (denied, cancelled) projects no calendar entries.
const (
	TimeOffPending           = "pending"
	TimeOffUnderReview       = "under_review"
	TimeOffApproved          = "approved"
	TimeOffPartiallyApproved = "partially_approved"
)

// TimeOffRequest covers a contiguous date range. For partially approved
// requests, DayStatuses records the per-day outcome keyed by YYYY-MM-DD.
type TimeOffRequest struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organizationId"`
	PhotographerID string            `json:"photographerId"`
	StartDate      DateLike          `json:"startDate"`
	EndDate        DateLike          `json:"endDate"`
	Status         string            `json:"status"`
	DayStatuses    map[string]string `json:"dayStatuses,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	UpdatedAt      Timestamp         `json:"updatedAt"`
}

func (r TimeOffRequest) RecordID() string { return r.ID }

// JobReport is a daily job report filed by a photographer.
type JobReport struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	UserID         string         `json:"userId"`
	SchoolID       string         `json:"schoolId,omitempty"`
	Date           DateLike       `json:"date"`
	ReportType     string         `json:"reportType,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	UpdatedAt      Timestamp      `json:"updatedAt"`
}

func (j JobReport) RecordID() string { return j.ID }

// MergePartial shallow-merges partial field values over an existing record,
// preserving the identity field. It round-trips through JSON so partial keys
// use the record's wire names. Used by optimistic updates.
func MergePartial[R Record](rec R, partial map[string]any) (R, error) {
	var zero R

	base, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("failed to encode record: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return zero, fmt.Errorf("failed to decode record fields: %w", err)
	}

	for key, value := range partial {
		if key == "id" {
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("failed to encode merged fields: %w", err)
	}

	var out R
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("failed to decode merged record: %w", err)
	}
	return out, nil
}
