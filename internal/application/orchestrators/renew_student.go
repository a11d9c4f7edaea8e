package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RenewStudentInput carries input for the orchestrator.
type RenewStudentInput struct {
	StudentID   string
	RenewalDate time.Time // zero means the renewal starts now
	CallBooked  bool
}

// RenewStudentDeps holds dependencies for RenewStudent.
type RenewStudentDeps struct {
	StudentStore StudentStore
}

// ExecuteRenewStudent flags a student as renewed. The agreed renewal
// date becomes the new end date.
// PRE: StudentID refers to an existing student
// POST: IsRenewed is true, EndDate equals the renewal date
func ExecuteRenewStudent(ctx context.Context, input RenewStudentInput, deps RenewStudentDeps) error {
	if input.StudentID == "" {
		return errors.New("student id cannot be empty")
	}

	s, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return err
	}

	now := timeNow()
	renewalDate := input.RenewalDate
	if renewalDate.IsZero() {
		renewalDate = now
	}

	s.Renew(renewalDate)
	s.CallBooked = input.CallBooked
	s.UpdatedAt = now

	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return err
	}

	slog.Info("student_renewed", "student_id", s.ID, "package", s.Package, "new_end_date", s.EndDate)
	return nil
}
