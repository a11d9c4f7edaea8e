package orchestrators

import (
	"context"
	"errors"
	"log/slog"
)

// MarkContactedInput carries input for the orchestrator.
type MarkContactedInput struct {
	StudentID string
}

// MarkContactedDeps holds dependencies for MarkContacted.
type MarkContactedDeps struct {
	StudentStore StudentStore
}

// ExecuteMarkContacted stamps a student as contacted right now.
// PRE: StudentID refers to an existing student
// POST: LastContactDate is set to the current time and persisted
// INVARIANT: the contact date never moves backwards
func ExecuteMarkContacted(ctx context.Context, input MarkContactedInput, deps MarkContactedDeps) error {
	if input.StudentID == "" {
		return errors.New("student id cannot be empty")
	}

	s, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	now := timeNow()
	if err := s.MarkContacted(now); err != nil {
		return err
	}
	s.UpdatedAt = now

	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return err
	}

	slog.Info("student_contacted", "student_id", s.ID)
	return nil
}
