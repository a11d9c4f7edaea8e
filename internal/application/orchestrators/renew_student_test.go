package orchestrators

import (
	"context"
	"testing"
	"time"

	"dtcteamcrm/internal/domain/student"
)

// TestExecuteRenewStudent verifies the agreed renewal date becomes the
// end date, with no package arithmetic.
func TestExecuteRenewStudent(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore(student.Student{
		ID:      "s-1",
		Name:    "Aisha",
		Package: student.PackagePlatinum,
		Status:  student.StatusActive,
		EndDate: now.AddDate(0, 0, 5),
	})
	renewal := time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC)

	err := ExecuteRenewStudent(context.Background(), RenewStudentInput{
		StudentID:   "s-1",
		RenewalDate: renewal,
		CallBooked:  true,
	}, RenewStudentDeps{StudentStore: store})
	if err != nil {
		t.Fatalf("ExecuteRenewStudent: %v", err)
	}

	s, _ := store.GetByID(context.Background(), "s-1")
	if !s.IsRenewed {
		t.Error("IsRenewed should be true")
	}
	if !s.CallBooked {
		t.Error("CallBooked should be true")
	}
	if !s.EndDate.Equal(renewal) {
		t.Errorf("EndDate = %v, want the renewal date %v", s.EndDate, renewal)
	}
}

// TestExecuteRenewStudent_DefaultsToNow verifies a zero renewal date uses
// the current time.
func TestExecuteRenewStudent_DefaultsToNow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore(student.Student{
		ID: "s-1", Package: student.PackageSilver, Status: student.StatusActive,
	})

	if err := ExecuteRenewStudent(context.Background(), RenewStudentInput{StudentID: "s-1"}, RenewStudentDeps{StudentStore: store}); err != nil {
		t.Fatalf("ExecuteRenewStudent: %v", err)
	}
	s, _ := store.GetByID(context.Background(), "s-1")
	if !s.RenewalDate.Equal(now) {
		t.Errorf("RenewalDate = %v, want now", s.RenewalDate)
	}
	if !s.EndDate.Equal(now) {
		t.Errorf("EndDate = %v, want now", s.EndDate)
	}
}
