package projections

import (
	"context"
	"sort"
	"time"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	domainStudent "dtcteamcrm/internal/domain/student"
	domainUser "dtcteamcrm/internal/domain/user"
)

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	ViewerID   string
	ViewerRole string
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	StudentStore StudentStore
}

// OutcomeCount is one row of the contact-outcome summary table.
type OutcomeCount struct {
	Outcome string
	Count   int
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Role string

	TotalStudents  int
	ActiveStudents int
	RenewedCount   int

	// Contact workflow
	UrgentContacts []domainStudent.Student

	// Renewal windows, ordered soonest-expiring first
	RenewalUrgent   []domainStudent.Student
	RenewalUpcoming []domainStudent.Student
	CallsBooked     int

	// Summary tables
	OutcomeSummary []OutcomeCount
	TagCounts      map[string]int
}

// QueryGetDashboard aggregates the dashboard counters for one viewer.
// Coaches see only their own roster; OWNER and RENEWALS see everyone.
// POST: Renewal lists contain only ACTIVE unrenewed students with 0-30
// days left; TagCounts covers students inside the renewal window
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	filter := studentStore.ListFilter{}
	if query.ViewerRole == domainUser.RoleCoach {
		filter.CoachID = query.ViewerID
	}
	students, err := deps.StudentStore.List(ctx, filter)
	if err != nil {
		return DashboardResult{}, err
	}

	result := DashboardResult{
		Role:      query.ViewerRole,
		TagCounts: make(map[string]int),
	}
	outcomes := make(map[string]int)

	for _, s := range students {
		result.TotalStudents++
		if s.IsActive() {
			result.ActiveStudents++
		}
		if s.IsRenewed {
			result.RenewedCount++
		}
		if s.IsContactUrgent(now) {
			result.UrgentContacts = append(result.UrgentContacts, s)
		}
		if s.ContactOutcome != "" {
			outcomes[s.ContactOutcome]++
		}

		inWindow, urgent := s.InRenewalWindow(now)
		if !inWindow {
			continue
		}
		if urgent {
			result.RenewalUrgent = append(result.RenewalUrgent, s)
		} else {
			result.RenewalUpcoming = append(result.RenewalUpcoming, s)
		}
		if s.CallBooked {
			result.CallsBooked++
		}
		for _, tag := range s.DifficultyTags {
			result.TagCounts[tag]++
		}
	}

	byExpiry := func(list []domainStudent.Student) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EndDate.Before(list[j].EndDate)
		})
	}
	byExpiry(result.RenewalUrgent)
	byExpiry(result.RenewalUpcoming)

	// Fixed outcome order so the summary table renders stably.
	for _, o := range []string{
		domainStudent.OutcomePositive,
		domainStudent.OutcomeNegativePrice,
		domainStudent.OutcomeNegativeNotInterested,
		domainStudent.OutcomeNegativeOther,
		domainStudent.OutcomeNeutralBusy,
		domainStudent.OutcomeNoAnswer,
	} {
		if n := outcomes[o]; n > 0 {
			result.OutcomeSummary = append(result.OutcomeSummary, OutcomeCount{Outcome: o, Count: n})
		}
	}

	return result, nil
}
