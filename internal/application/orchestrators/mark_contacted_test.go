package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"dtcteamcrm/internal/domain/student"
)

// TestExecuteMarkContacted verifies the contact stamp is persisted.
func TestExecuteMarkContacted(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore(student.Student{
		ID:              "s-1",
		Name:            "Aisha",
		Package:         student.PackageGold,
		Status:          student.StatusActive,
		LastContactDate: now.Add(-48 * time.Hour),
	})

	err := ExecuteMarkContacted(context.Background(), MarkContactedInput{StudentID: "s-1"}, MarkContactedDeps{StudentStore: store})
	if err != nil {
		t.Fatalf("ExecuteMarkContacted: %v", err)
	}

	s, _ := store.GetByID(context.Background(), "s-1")
	if !s.LastContactDate.Equal(now) {
		t.Errorf("LastContactDate = %v, want %v", s.LastContactDate, now)
	}
	if !s.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", s.UpdatedAt, now)
	}
}

// TestExecuteMarkContacted_Backwards verifies a stale clock cannot move
// the stamp backwards.
func TestExecuteMarkContacted_Backwards(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	future := now.Add(time.Hour)
	store := newMockStudentStore(student.Student{
		ID:              "s-1",
		Status:          student.StatusActive,
		LastContactDate: future,
	})

	err := ExecuteMarkContacted(context.Background(), MarkContactedInput{StudentID: "s-1"}, MarkContactedDeps{StudentStore: store})
	if !errors.Is(err, student.ErrContactNotForward) {
		t.Fatalf("error = %v, want ErrContactNotForward", err)
	}
	s, _ := store.GetByID(context.Background(), "s-1")
	if !s.LastContactDate.Equal(future) {
		t.Error("LastContactDate must be unchanged on rejection")
	}
}

// TestExecuteMarkContacted_MissingStudent verifies lookup failures surface.
func TestExecuteMarkContacted_MissingStudent(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore()
	if err := ExecuteMarkContacted(context.Background(), MarkContactedInput{StudentID: "ghost"}, MarkContactedDeps{StudentStore: store}); err == nil {
		t.Error("expected error for unknown student")
	}
}

// TestExecuteRecordOutcome_CountsAsContact verifies the outcome write
// also counts as a contact.
func TestExecuteRecordOutcome_CountsAsContact(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore(student.Student{
		ID:      "s-1",
		Name:    "Aisha",
		Package: student.PackageGold,
		Status:  student.StatusActive,
	})

	err := ExecuteRecordOutcome(context.Background(), RecordOutcomeInput{
		StudentID: "s-1",
		Outcome:   student.OutcomeNeutralBusy,
		Notes:     "call back next week",
	}, RecordOutcomeDeps{StudentStore: store})
	if err != nil {
		t.Fatalf("ExecuteRecordOutcome: %v", err)
	}

	s, _ := store.GetByID(context.Background(), "s-1")
	if s.ContactOutcome != student.OutcomeNeutralBusy {
		t.Errorf("ContactOutcome = %q", s.ContactOutcome)
	}
	if s.ContactNotes != "call back next week" {
		t.Errorf("ContactNotes = %q", s.ContactNotes)
	}
	if !s.LastContactDate.Equal(now) {
		t.Errorf("LastContactDate = %v, want %v (outcome counts as contact)", s.LastContactDate, now)
	}
}

// TestExecuteRecordOutcome_UnknownOutcomeNotSaved verifies validation.
func TestExecuteRecordOutcome_UnknownOutcomeNotSaved(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore(student.Student{ID: "s-1", Status: student.StatusActive})

	err := ExecuteRecordOutcome(context.Background(), RecordOutcomeInput{
		StudentID: "s-1",
		Outcome:   "SHRUG",
	}, RecordOutcomeDeps{StudentStore: store})
	if !errors.Is(err, student.ErrUnknownOutcome) {
		t.Errorf("error = %v, want ErrUnknownOutcome", err)
	}
	if store.saves != 0 {
		t.Error("invalid outcome should not be saved")
	}
}
