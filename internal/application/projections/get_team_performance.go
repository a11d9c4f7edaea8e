package projections

import (
	"context"
	"errors"
	"time"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/domain/teamstats"
	domainUser "dtcteamcrm/internal/domain/user"
)

// GetTeamPerformanceQuery carries input for the team performance view.
type GetTeamPerformanceQuery struct {
	ViewerRole string
}

// GetTeamPerformanceResult carries per-coach statistics.
type GetTeamPerformanceResult struct {
	Coaches []teamstats.CoachStats
}

// GetTeamPerformanceDeps holds dependencies for GetTeamPerformance.
type GetTeamPerformanceDeps struct {
	StudentStore StudentStore
	UserStore    UserStore
}

// ErrTeamPerformanceForbidden is returned when a non-owner asks for
// team statistics.
var ErrTeamPerformanceForbidden = errors.New("team performance is owner-only")

// QueryGetTeamPerformance computes the per-coach stats table.
// PRE: ViewerRole is OWNER
// POST: One row per coach, sorted by active students descending
func QueryGetTeamPerformance(ctx context.Context, query GetTeamPerformanceQuery, deps GetTeamPerformanceDeps, now time.Time) (GetTeamPerformanceResult, error) {
	if query.ViewerRole != domainUser.RoleOwner {
		return GetTeamPerformanceResult{}, ErrTeamPerformanceForbidden
	}

	students, err := deps.StudentStore.List(ctx, studentStore.ListFilter{})
	if err != nil {
		return GetTeamPerformanceResult{}, err
	}
	users, err := deps.UserStore.List(ctx, userStore.ListFilter{})
	if err != nil {
		return GetTeamPerformanceResult{}, err
	}

	return GetTeamPerformanceResult{
		Coaches: teamstats.Compute(students, users, now),
	}, nil
}
