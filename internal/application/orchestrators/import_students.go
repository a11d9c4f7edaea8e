package orchestrators

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"strings"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	"dtcteamcrm/internal/dateutil"
	domain "dtcteamcrm/internal/domain/student"
)

// ImportStudentsInput carries the parsed CSV reader and import options.
// PRE: Reader is a valid CSV stream with a header row; RequestedBy is non-empty.
// POST: Returns aggregate counts and per-row errors; writes are skipped when DryRun=true.
// INVARIANT: Existing students are never deleted; IDs are preserved on update.
type ImportStudentsInput struct {
	Reader      io.Reader
	RequestedBy string
	DryRun      bool
	UpdateMode  bool
}

// ImportStudentsResult holds aggregate counts and per-row errors from an import run.
type ImportStudentsResult struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  []ImportStudentsRowError
	DryRun  bool
	Unknown []string
}

// ImportStudentsRowError describes a validation or processing error for a single CSV row.
type ImportStudentsRowError struct {
	Row     int
	Message string
}

// ImportStudentsDeps holds external dependencies for the import orchestrator.
type ImportStudentsDeps struct {
	StudentStore interface {
		List(ctx context.Context, filter studentStore.ListFilter) ([]domain.Student, error)
		Save(ctx context.Context, s domain.Student) error
	}
	GenerateID func() string
}

// ExecuteImportStudents parses a CSV stream and creates or updates student
// records. Rows are matched to existing students by phone number. Dates in
// the sheet come in whatever format the previous tool exported, so parsing
// is lenient and falls back to the import time with a warning.
// PRE: Input.Reader contains a valid CSV with at least NAME and PACKAGE columns.
// POST: Students are created/updated/skipped according to DryRun and UpdateMode;
// aggregate counts and per-row errors are returned; audit log is emitted.
// INVARIANT: When DryRun=true no writes occur; existing student IDs are preserved on update.
func ExecuteImportStudents(ctx context.Context, input ImportStudentsInput, deps ImportStudentsDeps) (ImportStudentsResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return ImportStudentsResult{}, err
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[normalizeHeader(h)] = i
	}

	if _, ok := colIdx["NAME"]; !ok {
		return ImportStudentsResult{}, &ImportStudentsValidationError{Message: "CSV missing required column: NAME"}
	}
	if _, ok := colIdx["PACKAGE"]; !ok {
		return ImportStudentsResult{}, &ImportStudentsValidationError{Message: "CSV missing required column: PACKAGE"}
	}

	known := map[string]bool{
		"NAME": true, "PHONE": true, "EMAIL": true, "PACKAGE": true,
		"STARTDATE": true, "ENDDATE": true, "TOTALLESSONS": true,
		"USEDLESSONS": true, "STATUS": true, "COACHID": true,
		"LASTCONTACT": true, "NOTES": true,
	}
	var unknownCols []string
	for _, h := range header {
		if !known[normalizeHeader(h)] {
			unknownCols = append(unknownCols, h)
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// Existing roster keyed by phone, for dedupe and updates.
	existing, err := deps.StudentStore.List(ctx, studentStore.ListFilter{})
	if err != nil {
		return ImportStudentsResult{}, err
	}
	byPhone := make(map[string]domain.Student, len(existing))
	for _, s := range existing {
		if s.Phone != "" {
			byPhone[s.Phone] = s
		}
	}

	now := timeNow()
	result := ImportStudentsResult{DryRun: input.DryRun, Unknown: unknownCols}
	rowNum := 1

	for {
		row, err := cr.Read()
		if err != nil {
			break
		}
		rowNum++
		result.Total++

		name := getCol(row, "NAME")
		if name == "" {
			result.Errors = append(result.Errors, ImportStudentsRowError{Row: rowNum, Message: "name is required"})
			continue
		}
		pkg := getCol(row, "PACKAGE")
		if !domain.KnownPackage(pkg) {
			result.Errors = append(result.Errors, ImportStudentsRowError{Row: rowNum, Message: "unknown package: " + pkg})
			continue
		}

		phone := getCol(row, "PHONE")
		startDate := dateutil.ParseLenient(getCol(row, "STARTDATE"), now)

		status := strings.ToUpper(getCol(row, "STATUS"))
		if status != domain.StatusActive && status != domain.StatusExpired && status != domain.StatusNotRenewed {
			status = domain.StatusActive
		}

		prev, exists := byPhone[phone]
		if phone == "" {
			exists = false
		}

		if exists && !input.UpdateMode {
			result.Skipped++
			continue
		}

		if input.DryRun {
			if exists {
				result.Updated++
			} else {
				result.Created++
			}
			continue
		}

		s := domain.Student{
			ID:           deps.GenerateID(),
			Name:         name,
			Phone:        phone,
			Email:        getCol(row, "EMAIL"),
			Package:      pkg,
			StartDate:    startDate,
			EndDate:      domain.EndDateFor(startDate, pkg),
			TotalLessons: domain.LessonsFor(pkg),
			Status:       status,
			CoachID:      getCol(row, "COACHID"),
			Notes:        getCol(row, "NOTES"),
			CreatedAt:    now,
		}
		if exists {
			s.ID = prev.ID
			s.CreatedAt = prev.CreatedAt
			s.UpdatedAt = now
			if s.CoachID == "" {
				s.CoachID = prev.CoachID
			}
			s.OriginalCoachID = prev.OriginalCoachID
		}

		// Explicit sheet values win over derived ones.
		if v := getCol(row, "ENDDATE"); v != "" {
			s.EndDate = dateutil.ParseLenient(v, now)
		}
		if v := getCol(row, "TOTALLESSONS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				s.TotalLessons = n
			}
		}
		if v := getCol(row, "USEDLESSONS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				s.UsedLessons = n
			}
		}
		if v := getCol(row, "LASTCONTACT"); v != "" {
			s.LastContactDate = dateutil.ParseLenient(v, now)
		}

		if err := s.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportStudentsRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if err := deps.StudentStore.Save(ctx, s); err != nil {
			slog.Error("students_import_save_failed", "row", rowNum, "phone", phone, "err", err)
			result.Errors = append(result.Errors, ImportStudentsRowError{Row: rowNum, Message: "save failed (see server log)"})
			continue
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
			if phone != "" {
				byPhone[phone] = s
			}
		}
	}

	slog.Info("students_import",
		"requested_by", input.RequestedBy,
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

// normalizeHeader maps a raw header cell to its canonical column key.
// "Start Date", "start_date" and "STARTDATE" all mean the same column.
func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

// ImportStudentsValidationError is returned when the CSV structure is invalid (e.g. missing required columns).
type ImportStudentsValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ImportStudentsValidationError) Error() string {
	return e.Message
}
