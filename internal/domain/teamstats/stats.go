// Package teamstats computes per-coach performance figures from the full
// student roster. The computation is a pure fold over its inputs so the
// same roster always yields the same report.
package teamstats

import (
	"math"
	"sort"
	"time"

	"dtcteamcrm/internal/domain/student"
	"dtcteamcrm/internal/domain/user"
)

// CoachStats holds the performance figures for one coach.
type CoachStats struct {
	CoachID          string
	CoachName        string
	ActiveStudents   int
	RenewedCount     int
	ExpiredNoRenewal int
	TotalFinished    int
	RetentionRate    int
	UrgentCount      int
	TotalStudents    int
}

// Compute builds one CoachStats row per coach, counting only students
// assigned to that coach. Users without the coach role are skipped, so
// owners and renewal staff never appear in the report.
// PRE: now is the reference clock for urgency
// POST: rows are sorted by ActiveStudents descending, stable for ties
// INVARIANT: inputs are not mutated; repeat calls give identical output
func Compute(students []student.Student, users []user.User, now time.Time) []CoachStats {
	stats := make([]CoachStats, 0, len(users))

	for _, u := range users {
		if !u.IsCoach() {
			continue
		}
		row := CoachStats{CoachID: u.ID, CoachName: u.Name}
		for _, s := range students {
			if s.CoachID != u.ID {
				continue
			}
			row.TotalStudents++
			if s.Status == student.StatusActive {
				row.ActiveStudents++
			}
			if s.IsRenewed {
				row.RenewedCount++
			} else if s.Status == student.StatusExpired {
				row.ExpiredNoRenewal++
			}
			if s.IsContactUrgent(now) {
				row.UrgentCount++
			}
		}
		row.TotalFinished = row.RenewedCount + row.ExpiredNoRenewal
		row.RetentionRate = retention(row.RenewedCount, row.TotalFinished)
		stats = append(stats, row)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].ActiveStudents > stats[j].ActiveStudents
	})
	return stats
}

// retention returns the renewed share of finished subscriptions as a
// whole percentage. A coach with no finished subscriptions scores zero
// rather than dividing by zero.
func retention(renewed, finished int) int {
	if finished == 0 {
		return 0
	}
	return int(math.Round(float64(renewed) / float64(finished) * 100))
}
