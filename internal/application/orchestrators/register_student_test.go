package orchestrators

import (
	"context"
	"testing"
	"time"

	"dtcteamcrm/internal/domain/student"
)

// TestExecuteRegisterStudent_DerivesPlanFields verifies end date and
// lesson allowance come from the package at creation time.
func TestExecuteRegisterStudent_DerivesPlanFields(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore()

	id, err := ExecuteRegisterStudent(context.Background(), RegisterStudentInput{
		Name:    "Aisha Khan",
		Package: student.PackageGold,
		CoachID: "c-1",
	}, RegisterStudentDeps{StudentStore: store})
	if err != nil {
		t.Fatalf("ExecuteRegisterStudent: %v", err)
	}

	s, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("student not saved: %v", err)
	}
	if s.Status != student.StatusActive {
		t.Errorf("Status = %q, want ACTIVE", s.Status)
	}
	if !s.StartDate.Equal(now) {
		t.Errorf("StartDate = %v, want %v", s.StartDate, now)
	}
	if !s.EndDate.Equal(now.AddDate(0, 0, 60)) {
		t.Errorf("EndDate = %v, want start+60d", s.EndDate)
	}
	if s.TotalLessons != 16 {
		t.Errorf("TotalLessons = %d, want 16", s.TotalLessons)
	}
}

// TestExecuteRegisterStudent_ExplicitStartDate verifies a provided start
// date anchors the derived end date.
func TestExecuteRegisterStudent_ExplicitStartDate(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	store := newMockStudentStore()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	id, err := ExecuteRegisterStudent(context.Background(), RegisterStudentInput{
		Name:      "Bram",
		Package:   student.PackageSilver,
		StartDate: start,
	}, RegisterStudentDeps{StudentStore: store})
	if err != nil {
		t.Fatalf("ExecuteRegisterStudent: %v", err)
	}

	s, _ := store.GetByID(context.Background(), id)
	if !s.EndDate.Equal(start.AddDate(0, 0, 30)) {
		t.Errorf("EndDate = %v, want explicit start+30d", s.EndDate)
	}
}

// TestExecuteRegisterStudent_Rejections verifies input validation.
func TestExecuteRegisterStudent_Rejections(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	store := newMockStudentStore()

	tests := []struct {
		name  string
		input RegisterStudentInput
	}{
		{"empty name", RegisterStudentInput{Package: student.PackageGold}},
		{"unknown package", RegisterStudentInput{Name: "X", Package: "Bronze"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteRegisterStudent(context.Background(), tt.input, RegisterStudentDeps{StudentStore: store}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
	if store.saves != 0 {
		t.Errorf("rejected inputs should not be saved, got %d saves", store.saves)
	}
}
