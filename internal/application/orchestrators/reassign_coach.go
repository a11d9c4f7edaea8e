package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"dtcteamcrm/internal/domain/user"
)

// UserStoreForReassign defines the store interface needed by ReassignCoach.
type UserStoreForReassign interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// ReassignCoachInput carries input for the orchestrator.
type ReassignCoachInput struct {
	StudentID  string
	NewCoachID string
}

// ReassignCoachDeps holds dependencies for ReassignCoach.
type ReassignCoachDeps struct {
	StudentStore StudentStore
	UserStore    UserStoreForReassign
}

var ErrNotACoach = errors.New("target user is not a coach")

// ExecuteReassignCoach moves a student to another coach. The first coach
// the student ever had stays recorded for retention attribution.
// PRE: StudentID and NewCoachID refer to existing records
// POST: CoachID updated; OriginalCoachID set once, on the first move
func ExecuteReassignCoach(ctx context.Context, input ReassignCoachInput, deps ReassignCoachDeps) error {
	if input.StudentID == "" || input.NewCoachID == "" {
		return errors.New("student id and coach id are required")
	}

	target, err := deps.UserStore.GetByID(ctx, input.NewCoachID)
	if err != nil {
		return err
	}
	if !target.IsCoach() {
		return ErrNotACoach
	}

	s, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	previous := s.CoachID
	s.ReassignCoach(input.NewCoachID)
	s.UpdatedAt = timeNow()

	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return err
	}

	slog.Info("coach_reassigned", "student_id", s.ID, "from", previous, "to", input.NewCoachID)
	return nil
}
