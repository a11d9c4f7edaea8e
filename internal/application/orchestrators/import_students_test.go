package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"dtcteamcrm/internal/domain/student"
)

func importDeps(store *mockStudentStore) ImportStudentsDeps {
	n := 0
	return ImportStudentsDeps{
		StudentStore: store,
		GenerateID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	}
}

func TestExecuteImportStudents_CreatesWithDerivedFields(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore()

	csv := "Name,Phone,Package,Start Date\n" +
		"Alice,0411111111,Gold,2024-06-01\n" +
		"Bob,0422222222,Silver,01/06/2024\n"

	result, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
		importDeps(store))
	if err != nil {
		t.Fatalf("ExecuteImportStudents: %v", err)
	}
	if result.Total != 2 || result.Created != 2 {
		t.Fatalf("result = %+v, want Total 2 Created 2", result)
	}

	alice, err := store.GetByID(context.Background(), "gen-1")
	if err != nil {
		t.Fatalf("alice not stored: %v", err)
	}
	wantStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !alice.StartDate.Equal(wantStart) {
		t.Errorf("alice StartDate = %v, want %v", alice.StartDate, wantStart)
	}
	if !alice.EndDate.Equal(wantStart.AddDate(0, 0, 60)) {
		t.Errorf("alice EndDate = %v, want start+60d", alice.EndDate)
	}
	if alice.TotalLessons != 16 {
		t.Errorf("alice TotalLessons = %d, want 16", alice.TotalLessons)
	}
	if alice.Status != student.StatusActive {
		t.Errorf("alice Status = %q, want ACTIVE", alice.Status)
	}

	// Day-first date must land on the same day as the ISO one.
	bob, _ := store.GetByID(context.Background(), "gen-2")
	if !bob.StartDate.Equal(wantStart) {
		t.Errorf("bob StartDate = %v, want %v", bob.StartDate, wantStart)
	}
}

func TestExecuteImportStudents_ExplicitValuesWin(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	store := newMockStudentStore()

	csv := "NAME,PACKAGE,START_DATE,END_DATE,TOTAL_LESSONS,USED_LESSONS,STATUS\n" +
		"Carol,Platinum,2024-01-01,2024-03-15,30,5,expired\n"

	_, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
		importDeps(store))
	if err != nil {
		t.Fatalf("ExecuteImportStudents: %v", err)
	}

	carol, _ := store.GetByID(context.Background(), "gen-1")
	if !carol.EndDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EndDate = %v, want the sheet value", carol.EndDate)
	}
	if carol.TotalLessons != 30 || carol.UsedLessons != 5 {
		t.Errorf("lessons = %d/%d, want 30/5", carol.UsedLessons, carol.TotalLessons)
	}
	if carol.Status != student.StatusExpired {
		t.Errorf("Status = %q, want EXPIRED", carol.Status)
	}
}

func TestExecuteImportStudents_MissingRequiredColumn(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore()

	for _, csv := range []string{
		"Phone,Package\n0411,Gold\n",
		"Name,Phone\nAlice,0411\n",
	} {
		_, err := ExecuteImportStudents(context.Background(),
			ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
			importDeps(store))
		var verr *ImportStudentsValidationError
		if !errors.As(err, &verr) || !strings.Contains(verr.Message, "required column") {
			t.Errorf("err = %v, want missing required column", err)
		}
	}
	if store.saves != 0 {
		t.Errorf("invalid CSV wrote %d students", store.saves)
	}
}

func TestExecuteImportStudents_RowErrors(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore()

	csv := "Name,Package\n" +
		",Gold\n" +
		"Dave,Diamond\n" +
		"Erin,Silver\n"

	result, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
		importDeps(store))
	if err != nil {
		t.Fatalf("ExecuteImportStudents: %v", err)
	}
	if result.Total != 3 || result.Created != 1 || len(result.Errors) != 2 {
		t.Fatalf("result = %+v, want Total 3 Created 1 Errors 2", result)
	}
	if result.Errors[0].Row != 2 || result.Errors[1].Row != 3 {
		t.Errorf("error rows = %d,%d, want 2,3", result.Errors[0].Row, result.Errors[1].Row)
	}
}

func TestExecuteImportStudents_PhoneDedupe(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	setTestClock(t, now)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newMockStudentStore(student.Student{
		ID: "s-1", Name: "Alice", Phone: "0411111111",
		Package: student.PackageSilver, Status: student.StatusActive,
		CoachID: "c-1", OriginalCoachID: "c-0", CreatedAt: created,
	})

	csv := "Name,Phone,Package\nAlice Smith,0411111111,Gold\n"

	// Default mode skips existing phones.
	result, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
		importDeps(store))
	if err != nil {
		t.Fatalf("skip mode: %v", err)
	}
	if result.Skipped != 1 || result.Created != 0 {
		t.Errorf("skip mode result = %+v, want Skipped 1", result)
	}

	// Update mode rewrites the row but keeps identity fields.
	result, err = ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner", UpdateMode: true},
		importDeps(store))
	if err != nil {
		t.Fatalf("update mode: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("update mode result = %+v, want Updated 1", result)
	}
	s, _ := store.GetByID(context.Background(), "s-1")
	if s.Name != "Alice Smith" || s.Package != student.PackageGold {
		t.Errorf("update did not apply: %+v", s)
	}
	if !s.CreatedAt.Equal(created) || s.CoachID != "c-1" || s.OriginalCoachID != "c-0" {
		t.Errorf("update lost identity fields: %+v", s)
	}
}

func TestExecuteImportStudents_DryRun(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore()

	csv := "Name,Package\nAlice,Gold\nBob,Silver\n"
	result, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner", DryRun: true},
		importDeps(store))
	if err != nil {
		t.Fatalf("ExecuteImportStudents: %v", err)
	}
	if !result.DryRun || result.Created != 2 {
		t.Errorf("result = %+v, want DryRun with Created 2", result)
	}
	if store.saves != 0 {
		t.Errorf("dry run wrote %d students", store.saves)
	}
}

func TestExecuteImportStudents_UnknownColumnsReported(t *testing.T) {
	setTestClock(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	store := newMockStudentStore()

	csv := "Name,Package,Favourite Colour\nAlice,Gold,blue\n"
	result, err := ExecuteImportStudents(context.Background(),
		ImportStudentsInput{Reader: strings.NewReader(csv), RequestedBy: "u-owner"},
		importDeps(store))
	if err != nil {
		t.Fatalf("ExecuteImportStudents: %v", err)
	}
	if len(result.Unknown) != 1 || result.Unknown[0] != "Favourite Colour" {
		t.Errorf("Unknown = %v, want [Favourite Colour]", result.Unknown)
	}
}
