package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dtcteamcrm/internal/domain/student"

	"github.com/google/uuid"
)

// StudentStore defines the interface for student persistence.
type StudentStore interface {
	Save(ctx context.Context, s student.Student) error
	GetByID(ctx context.Context, id string) (student.Student, error)
}

// RegisterStudentInput carries input for the orchestrator.
type RegisterStudentInput struct {
	Name      string
	Phone     string
	Email     string
	Package   string
	CoachID   string
	StartDate time.Time // zero means the subscription starts now
	Notes     string
}

// RegisterStudentDeps holds dependencies for RegisterStudent.
type RegisterStudentDeps struct {
	StudentStore StudentStore
}

// ExecuteRegisterStudent coordinates student registration. The end date
// and lesson allowance are derived from the package once, at creation,
// and never recomputed on later edits.
// PRE: Valid name and a known package
// POST: Student created with ID, Status=ACTIVE, derived EndDate and TotalLessons
func ExecuteRegisterStudent(ctx context.Context, input RegisterStudentInput, deps RegisterStudentDeps) (string, error) {
	// Validate input
	if input.Name == "" {
		return "", errors.New("name cannot be empty")
	}
	if !student.KnownPackage(input.Package) {
		return "", errors.New("unknown subscription package")
	}

	now := timeNow()
	start := input.StartDate
	if start.IsZero() {
		start = now
	}

	// Create student with generated ID and derived plan fields
	s := student.Student{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		Package:      input.Package,
		CoachID:      input.CoachID,
		StartDate:    start,
		EndDate:      student.EndDateFor(start, input.Package),
		TotalLessons: student.LessonsFor(input.Package),
		Status:       student.StatusActive,
		Notes:        input.Notes,
		CreatedAt:    now,
	}

	// Validate domain rules
	if err := s.Validate(); err != nil {
		return "", err
	}

	// Save to store
	if err := deps.StudentStore.Save(ctx, s); err != nil {
		return "", err
	}

	slog.Info("student_registered", "student_id", s.ID, "package", s.Package, "coach_id", s.CoachID)
	return s.ID, nil
}
