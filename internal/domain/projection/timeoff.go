package projection

import (
	"fmt"
	"sort"
	"time"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// TimeOffDay is one calendar entry for one covered day of a time-off
// request.
type TimeOffDay struct {
	ID             string `json:"id"` // "{requestId}-{YYYY-MM-DD}"
	RequestID      string `json:"requestId"`
	PhotographerID string `json:"photographerId"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	OrganizationID string `json:"organizationId"`
}

// maxTimeOffSpanDays bounds range expansion against corrupt date pairs.
const maxTimeOffSpanDays = 366

// ProjectTimeOff expands each request's date range into one entry per
// covered day, inclusive on both ends. Pending, under-review, and approved
// requests emit every covered day; partially approved requests emit only
// the days their per-day status map marks approved; any other status emits
// nothing.
func ProjectTimeOff(_ Context, requests []records.TimeOffRequest) []TimeOffDay {
	var entries []TimeOffDay

	for _, request := range requests {
		emitAll := false
		switch request.Status {
		case records.TimeOffPending, records.TimeOffUnderReview, records.TimeOffApproved:
			emitAll = true
		case records.TimeOffPartiallyApproved:
		default:
			continue
		}

		for _, day := range coveredDays(request.StartDate, request.EndDate) {
			if !emitAll && request.DayStatuses[day] != records.TimeOffApproved {
				continue
			}
			entries = append(entries, TimeOffDay{
				ID:             fmt.Sprintf("%s-%s", request.ID, day),
				RequestID:      request.ID,
				PhotographerID: request.PhotographerID,
				Date:           day,
				Status:         request.Status,
				Reason:         request.Reason,
				OrganizationID: request.OrganizationID,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})

	return entries
}

// coveredDays lists every day from start to end inclusive as YYYY-MM-DD
// strings. An unresolvable or inverted range yields nothing.
func coveredDays(start, end records.DateLike) []string {
	startDay, ok := start.Day()
	if !ok {
		return nil
	}
	endDay, ok := end.Day()
	if !ok {
		return nil
	}

	from, err := time.Parse("2006-01-02", startDay)
	if err != nil {
		return nil
	}
	to, err := time.Parse("2006-01-02", endDay)
	if err != nil {
		return nil
	}
	if to.Before(from) {
		return nil
	}

	var days []string
	for d := from; !d.After(to) && len(days) < maxTimeOffSpanDays; d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}
