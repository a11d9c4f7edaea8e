package orchestrators

import (
	"context"
	"errors"
	"log/slog"
)

// RecordOutcomeInput carries input for the orchestrator.
type RecordOutcomeInput struct {
	StudentID string
	Outcome   string
	Notes     string
}

// RecordOutcomeDeps holds dependencies for RecordOutcome.
type RecordOutcomeDeps struct {
	StudentStore StudentStore
}

// ExecuteRecordOutcome stores the result of a renewal call and counts it
// as a contact.
// PRE: StudentID refers to an existing student, Outcome is a known value
// POST: outcome, notes and both timestamps are persisted
func ExecuteRecordOutcome(ctx context.Context, input RecordOutcomeInput, deps RecordOutcomeDeps) error {
	if input.StudentID == "" {
		return errors.New("student id cannot be empty")
	}

	s, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	now := timeNow()
	if err := s.RecordOutcome(input.Outcome, input.Notes, now); err != nil {
		return err
	}
	// Recording an outcome implies the student was reached, or at least
	// attempted, just now.
	if err := s.MarkContacted(now); err != nil {
		return err
	}
	s.UpdatedAt = now

	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return err
	}

	slog.Info("contact_outcome_recorded", "student_id", s.ID, "outcome", input.Outcome)
	return nil
}
