package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	"dtcteamcrm/internal/domain/student"
	"dtcteamcrm/internal/domain/user"
)

// UserStoreForFix defines the store interface needed by FixLessonTotals.
type UserStoreForFix interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// FixLessonTotalsInput carries input for the orchestrator.
type FixLessonTotalsInput struct {
	RequestedBy string // user ID, must be an owner
	DryRun      bool
}

// FixLessonTotalsDeps holds dependencies for FixLessonTotals.
type FixLessonTotalsDeps struct {
	StudentStore StudentStoreForSweep
	UserStore    UserStoreForFix
}

// FixLessonTotalsResult reports what the bulk fix did.
type FixLessonTotalsResult struct {
	Processed int
	Updated   int
}

var ErrOwnerOnly = errors.New("only the owner can run bulk maintenance")

// ExecuteFixLessonTotals resets every student's lesson allowance to the
// package default. Imports from the old spreadsheet left a mix of wrong
// totals behind, this brings them all back in line.
// PRE: RequestedBy is an owner
// POST: every student whose TotalLessons differs from the package table
// is updated; with DryRun nothing is written
func ExecuteFixLessonTotals(ctx context.Context, input FixLessonTotalsInput, deps FixLessonTotalsDeps) (FixLessonTotalsResult, error) {
	requester, err := deps.UserStore.GetByID(ctx, input.RequestedBy)
	if err != nil {
		return FixLessonTotalsResult{}, err
	}
	if !requester.IsOwner() {
		return FixLessonTotalsResult{}, ErrOwnerOnly
	}

	all, err := deps.StudentStore.List(ctx, studentStore.ListFilter{})
	if err != nil {
		return FixLessonTotalsResult{}, err
	}

	now := timeNow()
	result := FixLessonTotalsResult{Processed: len(all)}
	for _, s := range all {
		want := student.LessonsFor(s.Package)
		if s.TotalLessons == want {
			continue
		}
		result.Updated++
		if input.DryRun {
			continue
		}
		s.TotalLessons = want
		s.UpdatedAt = now
		if err := deps.StudentStore.Save(ctx, s); err != nil {
			return result, err
		}
	}

	slog.Info("lesson_totals_fixed",
		"requested_by", input.RequestedBy,
		"processed", result.Processed,
		"updated", result.Updated,
		"dry_run", input.DryRun,
	)
	return result, nil
}
