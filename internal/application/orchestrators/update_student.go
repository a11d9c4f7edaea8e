package orchestrators

import (
	"context"
	"log/slog"

	"dtcteamcrm/internal/domain/student"
)

// UpdateStudentInput carries the editable fields. Fields left nil are
// not touched. Package, StartDate, EndDate and TotalLessons are
// deliberately absent: derivation happens at registration, import and
// renewal only, edits never recompute them.
type UpdateStudentInput struct {
	StudentID      string
	Name           *string
	Phone          *string
	Email          *string
	Notes          *string
	CoachComment   *string
	DifficultyTags *[]string
	CallBooked     *bool
	UsedLessons    *int
}

// UpdateStudentDeps holds dependencies for UpdateStudent.
type UpdateStudentDeps struct {
	StudentStore StudentStore
}

// ExecuteUpdateStudent applies a partial edit to a student record.
// PRE: StudentID refers to an existing student
// POST: only the provided fields change; the student still validates
func ExecuteUpdateStudent(ctx context.Context, input UpdateStudentInput, deps UpdateStudentDeps) (student.Student, error) {
	s, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return student.Student{}, err
	}

	if input.Name != nil {
		s.Name = *input.Name
	}
	if input.Phone != nil {
		s.Phone = *input.Phone
	}
	if input.Email != nil {
		s.Email = *input.Email
	}
	if input.Notes != nil {
		s.Notes = *input.Notes
	}
	if input.CoachComment != nil {
		s.CoachComment = *input.CoachComment
	}
	if input.DifficultyTags != nil {
		s.DifficultyTags = *input.DifficultyTags
	}
	if input.CallBooked != nil {
		s.CallBooked = *input.CallBooked
	}
	if input.UsedLessons != nil {
		s.UsedLessons = *input.UsedLessons
	}

	if err := s.Validate(); err != nil {
		return student.Student{}, err
	}

	s.UpdatedAt = timeNow()
	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return student.Student{}, err
	}

	slog.Info("student_updated", "student_id", s.ID)
	return s, nil
}
