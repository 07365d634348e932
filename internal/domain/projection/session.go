package projection

import (
	"fmt"
	"sort"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// SessionEntry is one calendar entry for one assignee of one session.
type SessionEntry struct {
	ID             string   `json:"id"` // "{sessionId}-{assigneeId}", or the session id when unassigned
	SessionID      string   `json:"sessionId"`
	AssigneeID     string   `json:"assigneeId,omitempty"`
	AssigneeName   string   `json:"assigneeName,omitempty"`
	Unassigned     bool     `json:"unassigned,omitempty"`
	Date           string   `json:"date"` // normalized YYYY-MM-DD
	StartTime      string   `json:"startTime,omitempty"`
	EndTime        string   `json:"endTime,omitempty"`
	SchoolID       string   `json:"schoolId,omitempty"`
	SchoolName     string   `json:"schoolName,omitempty"`
	SessionTypes   []string `json:"sessionTypes,omitempty"`
	Status         string   `json:"status,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	OrganizationID string   `json:"organizationId"`
}

// ProjectSessions fans each session out into one entry per assignee with the
// assignee's currently-known display name. Sessions with no assignees yield
// exactly one unassigned entry. Dates arrive in mixed representations and
// are normalized here; a session without a resolvable date is skipped.
func ProjectSessions(ctx Context, sessions []records.Session) []SessionEntry {
	var entries []SessionEntry

	for _, session := range sessions {
		day, ok := session.Date.Day()
		if !ok {
			continue
		}

		base := SessionEntry{
			SessionID:      session.ID,
			Date:           day,
			StartTime:      session.StartTime,
			EndTime:        session.EndTime,
			SchoolID:       session.SchoolID,
			SchoolName:     session.SchoolName,
			SessionTypes:   session.SessionTypes,
			Status:         session.Status,
			Notes:          session.Notes,
			OrganizationID: session.OrganizationID,
		}

		if len(session.PhotographerIDs) == 0 {
			entry := base
			entry.ID = session.ID
			entry.Unassigned = true
			entries = append(entries, entry)
			continue
		}

		for _, assigneeID := range session.PhotographerIDs {
			entry := base
			entry.ID = fmt.Sprintf("%s-%s", session.ID, assigneeID)
			entry.AssigneeID = assigneeID
			if name, found := ctx.DisplayName(assigneeID); found {
				entry.AssigneeName = name
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].ID < entries[j].ID
	})

	return entries
}
