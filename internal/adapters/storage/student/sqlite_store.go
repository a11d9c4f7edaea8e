package student

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dtcteamcrm/internal/adapters/storage"
	domain "dtcteamcrm/internal/domain/student"
)

// selectColumns is the column list every read query uses, in scan order.
const selectColumns = "id, name, phone, email, package, start_date, end_date, " +
	"total_lessons, used_lessons, status, coach_id, original_coach_id, " +
	"is_renewed, renewal_date, call_booked, last_contact_date, " +
	"contact_outcome, contact_outcome_date, contact_notes, coach_comment, " +
	"notes, difficulty_tags, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new student store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanStudent reads one row into a domain Student. Dates are stored as
// RFC3339 TEXT and difficulty tags as a JSON array.
func scanStudent(row rowScanner) (domain.Student, error) {
	var entity domain.Student
	var coachID, originalCoachID, outcome sql.NullString
	var endDate, renewalDate, lastContact, outcomeDate, updatedAt sql.NullString
	var startDate, createdAt string
	var isRenewed, callBooked int
	var tagsJSON string

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Phone,
		&entity.Email,
		&entity.Package,
		&startDate,
		&endDate,
		&entity.TotalLessons,
		&entity.UsedLessons,
		&entity.Status,
		&coachID,
		&originalCoachID,
		&isRenewed,
		&renewalDate,
		&callBooked,
		&lastContact,
		&outcome,
		&outcomeDate,
		&entity.ContactNotes,
		&entity.CoachComment,
		&entity.Notes,
		&tagsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Student{}, err
	}

	entity.CoachID = coachID.String
	entity.OriginalCoachID = originalCoachID.String
	entity.ContactOutcome = outcome.String
	entity.IsRenewed = isRenewed != 0
	entity.CallBooked = callBooked != 0

	entity.StartDate = parseStoredTime(startDate)
	entity.CreatedAt = parseStoredTime(createdAt)
	entity.EndDate = parseNullTime(endDate)
	entity.RenewalDate = parseNullTime(renewalDate)
	entity.LastContactDate = parseNullTime(lastContact)
	entity.ContactOutcomeDate = parseNullTime(outcomeDate)
	entity.UpdatedAt = parseNullTime(updatedAt)

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &entity.DifficultyTags); err != nil {
			return domain.Student{}, fmt.Errorf("bad difficulty_tags for student %s: %w", entity.ID, err)
		}
	}
	return entity, nil
}

func parseStoredTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}

func parseNullTime(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	return parseStoredTime(v.String)
}

// storeTime encodes a time for storage, zero becoming NULL.
func storeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetByID retrieves a Student by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Student, error) {
	query := "SELECT " + selectColumns + " FROM student WHERE id = ?"
	entity, err := scanStudent(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return domain.Student{}, fmt.Errorf("student not found: %w", err)
	}
	return entity, err
}

// Save persists a Student to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Student) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tagsJSON, err := json.Marshal(entity.DifficultyTags)
	if err != nil {
		return err
	}

	// Upsert implementation
	fields := strings.Split(selectColumns, ", ")
	placeholders := make([]string, len(fields))
	updates := make([]string, 0, len(fields)-1)
	for i, f := range fields {
		placeholders[i] = "?"
		if f != "id" {
			updates = append(updates, f+"=excluded."+f)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO student (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		selectColumns,
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var coachID, originalCoachID, outcome any
	if entity.CoachID != "" {
		coachID = entity.CoachID
	}
	if entity.OriginalCoachID != "" {
		originalCoachID = entity.OriginalCoachID
	}
	if entity.ContactOutcome != "" {
		outcome = entity.ContactOutcome
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Phone,
		entity.Email,
		entity.Package,
		storeTime(entity.StartDate),
		storeTime(entity.EndDate),
		entity.TotalLessons,
		entity.UsedLessons,
		entity.Status,
		coachID,
		originalCoachID,
		boolToInt(entity.IsRenewed),
		storeTime(entity.RenewalDate),
		boolToInt(entity.CallBooked),
		storeTime(entity.LastContactDate),
		outcome,
		storeTime(entity.ContactOutcomeDate),
		entity.ContactNotes,
		entity.CoachComment,
		entity.Notes,
		string(tagsJSON),
		storeTime(entity.CreatedAt),
		storeTime(entity.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Student from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM student WHERE id = ?", id)
	return err
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.CoachID != "" {
		where += " AND coach_id = ?"
		args = append(args, filter.CoachID)
	}
	if filter.Package != "" {
		where += " AND package = ?"
		args = append(args, filter.Package)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR email LIKE ? OR phone LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}
	if !filter.EndBefore.IsZero() {
		where += " AND end_date IS NOT NULL AND end_date < ?"
		args = append(args, filter.EndBefore.Format(time.RFC3339))
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name": "name", "package": "package",
		"status": "status", "end_date": "end_date",
		"last_contact": "last_contact_date",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the total number of students matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM student"+where, args...).Scan(&count)
	return count, err
}

// List retrieves a list of Students based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Student, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + selectColumns + " FROM student" + where
	query += sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Student
	for rows.Next() {
		entity, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
