package projection

import (
	"sort"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// ReportEntry is one job report row. Reports project near-verbatim; only
// the date is normalized.
type ReportEntry struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	SchoolID       string         `json:"schoolId,omitempty"`
	Date           string         `json:"date,omitempty"`
	ReportType     string         `json:"reportType,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	OrganizationID string         `json:"organizationId"`
}

// ProjectReports passes job reports through with a normalized date, newest
// first.
func ProjectReports(_ Context, reports []records.JobReport) []ReportEntry {
	entries := make([]ReportEntry, 0, len(reports))
	for _, report := range reports {
		day, _ := report.Date.Day()
		entries = append(entries, ReportEntry{
			ID:             report.ID,
			UserID:         report.UserID,
			SchoolID:       report.SchoolID,
			Date:           day,
			ReportType:     report.ReportType,
			Data:           report.Data,
			OrganizationID: report.OrganizationID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})

	return entries
}
