package projection

import (
	"sort"
	"strings"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// PersonnelEntry is one team member row, sorted for roster display.
type PersonnelEntry struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	IsActive       bool   `json:"isActive"`
	OrganizationID string `json:"organizationId"`
}

// ProjectPersonnel sorts the roster active-first, then by case-insensitive
// display name. Users without a display name fall back to "First Last",
// then to their email.
func ProjectPersonnel(_ Context, users []records.User) []PersonnelEntry {
	entries := make([]PersonnelEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, PersonnelEntry{
			ID:             user.ID,
			DisplayName:    DisplayNameFor(user),
			Email:          user.Email,
			Role:           user.Role,
			IsActive:       user.IsActive,
			OrganizationID: user.OrganizationID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsActive != entries[j].IsActive {
			return entries[i].IsActive
		}
		a := strings.ToLower(entries[i].DisplayName)
		b := strings.ToLower(entries[j].DisplayName)
		if a != b {
			return a < b
		}
		return entries[i].ID < entries[j].ID
	})

	return entries
}

// DisplayNameFor resolves a user's display name with the roster fallback
// chain: explicit display name, then "First Last", then email.
func DisplayNameFor(user records.User) string {
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	full := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if full != "" {
		return full
	}
	return user.Email
}
