package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"dtcteamcrm/internal/adapters/http/middleware"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/application/listutil"
	"dtcteamcrm/internal/application/orchestrators"
	"dtcteamcrm/internal/application/projections"
	"dtcteamcrm/internal/dateutil"
	studentDomain "dtcteamcrm/internal/domain/student"
	userDomain "dtcteamcrm/internal/domain/user"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// renderMarkdown converts student notes to sanitised HTML.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// requireSession rejects unauthenticated requests.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireOwner rejects requests not made by the owner.
func requireOwner(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if sess.Role != userDomain.RoleOwner {
		slog.Warn("auth_denied", "path", r.URL.Path, "user_id", sess.UserID, "role", sess.Role, "required", userDomain.RoleOwner)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireRenewalManager rejects requests from roles that may not run
// renewal operations (everyone but OWNER and RENEWALS).
func requireRenewalManager(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if sess.Role != userDomain.RoleOwner && sess.Role != userDomain.RoleRenewals {
		slog.Warn("auth_denied", "path", r.URL.Path, "user_id", sess.UserID, "role", sess.Role, "required", "OWNER|RENEWALS")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/students", handleStudents)
	mux.HandleFunc("/api/students/profile", handleStudentProfile)
	mux.HandleFunc("/api/students/update", handleUpdateStudent)
	mux.HandleFunc("/api/students/contacted", handleMarkContacted)
	mux.HandleFunc("/api/students/outcome", handleRecordOutcome)
	mux.HandleFunc("/api/students/renew", handleRenewStudent)
	mux.HandleFunc("/api/students/reassign", handleReassignCoach)
	mux.HandleFunc("/api/students/import", handleImportStudents)
	mux.HandleFunc("/api/users", handleUsers)
	mux.HandleFunc("/api/dashboard", handleDashboard)
	mux.HandleFunc("/api/team-performance", handleTeamPerformance)
	mux.HandleFunc("/api/admin/expire-sweep", handleExpireSweep)
	mux.HandleFunc("/api/admin/fix-lesson-totals", handleFixLessonTotals)
	mux.HandleFunc("/api/admin/send-reminders", handleSendReminders)
}

// handleLogin handles POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.LoginInput{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.Email = r.FormValue("Email")
		input.Password = r.FormValue("Password")
	} else {
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		UserStore: stores.UserStore,
	})
	if err != nil {
		// Same message for bad email, bad password and locked users.
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := sessions.Create(result.UserID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, result)
}

// handleLogout handles POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie("dtccrm_session"); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleStudents handles GET (list) and POST (register) for /api/students
func handleStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == "GET" {
		lp := listutil.ParseListParams(r.URL.Query(),
			[]string{"name", "package", "status", "end_date", "last_contact"},
			[]string{"status", "package", "coach_id"},
		)

		result, err := projections.QueryGetStudentList(ctx, projections.GetStudentListQuery{
			ViewerID:   sess.UserID,
			ViewerRole: sess.Role,
			Params:     lp,
		}, projections.GetStudentListDeps{
			StudentStore: stores.StudentStore,
			UserStore:    stores.UserStore,
		}, timeNow())
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, result)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireRenewalManager(w, r); !ok {
			return
		}

		var body struct {
			Name      string
			Phone     string
			Email     string
			Package   string
			CoachID   string
			StartDate string
			Notes     string
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		input := orchestrators.RegisterStudentInput{
			Name:    body.Name,
			Phone:   body.Phone,
			Email:   body.Email,
			Package: body.Package,
			CoachID: body.CoachID,
			Notes:   body.Notes,
		}
		if body.StartDate != "" {
			input.StartDate = dateutil.ParseLenient(body.StartDate, timeNow())
		}

		id, err := orchestrators.ExecuteRegisterStudent(ctx, input, orchestrators.RegisterStudentDeps{
			StudentStore: stores.StudentStore,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSONStatus(w, http.StatusCreated, map[string]string{"id": id})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleStudentProfile handles GET /api/students/profile?id=
func handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	studentID := r.URL.Query().Get("id")
	if studentID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	s, err := stores.StudentStore.GetByID(r.Context(), studentID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if sess.Role == userDomain.RoleCoach && s.CoachID != sess.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	now := timeNow()
	inWindow, urgent := s.InRenewalWindow(now)
	writeJSON(w, map[string]any{
		"Student":          s,
		"NotesHTML":        renderMarkdown(s.Notes),
		"ContactUrgent":    s.IsContactUrgent(now),
		"DaysUntilExpiry":  s.DaysUntilExpiry(now),
		"LessonsRemaining": s.LessonsRemaining(),
		"InRenewalWindow":  inWindow,
		"RenewalUrgent":    urgent,
	})
}

// handleUpdateStudent handles POST /api/students/update
func handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var input orchestrators.UpdateStudentInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	// Coaches may only edit their own students.
	if sess.Role == userDomain.RoleCoach {
		s, err := stores.StudentStore.GetByID(r.Context(), input.StudentID)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if s.CoachID != sess.UserID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	updated, err := orchestrators.ExecuteUpdateStudent(r.Context(), input, orchestrators.UpdateStudentDeps{
		StudentStore: stores.StudentStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, updated)
}

// handleMarkContacted handles POST /api/students/contacted
func handleMarkContacted(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	var input orchestrators.MarkContactedInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteMarkContacted(r.Context(), input, orchestrators.MarkContactedDeps{
		StudentStore: stores.StudentStore,
	})
	if errors.Is(err, studentDomain.ErrContactNotForward) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRecordOutcome handles POST /api/students/outcome
func handleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	var input orchestrators.RecordOutcomeInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteRecordOutcome(r.Context(), input, orchestrators.RecordOutcomeDeps{
		StudentStore: stores.StudentStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenewStudent handles POST /api/students/renew
func handleRenewStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRenewalManager(w, r); !ok {
		return
	}

	var body struct {
		StudentID   string
		RenewalDate string
		CallBooked  bool
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	input := orchestrators.RenewStudentInput{
		StudentID:  body.StudentID,
		CallBooked: body.CallBooked,
	}
	if body.RenewalDate != "" {
		input.RenewalDate = dateutil.ParseLenient(body.RenewalDate, timeNow())
	}

	err := orchestrators.ExecuteRenewStudent(r.Context(), input, orchestrators.RenewStudentDeps{
		StudentStore: stores.StudentStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReassignCoach handles POST /api/students/reassign
func handleReassignCoach(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	var input orchestrators.ReassignCoachInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteReassignCoach(r.Context(), input, orchestrators.ReassignCoachDeps{
		StudentStore: stores.StudentStore,
		UserStore:    stores.UserStore,
	})
	if errors.Is(err, orchestrators.ErrNotACoach) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportStudents handles POST /api/students/import
// The CSV comes either as a multipart "file" part or as the raw body.
// dry_run=1 and update_mode=1 query parameters control the import.
func handleImportStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireRenewalManager(w, r)
	if !ok {
		return
	}

	input := orchestrators.ImportStudentsInput{
		Reader:      r.Body,
		RequestedBy: sess.UserID,
		DryRun:      r.URL.Query().Get("dry_run") == "1",
		UpdateMode:  r.URL.Query().Get("update_mode") == "1",
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file upload", http.StatusBadRequest)
			return
		}
		defer file.Close()
		input.Reader = file
	}

	result, err := orchestrators.ExecuteImportStudents(r.Context(), input, orchestrators.ImportStudentsDeps{
		StudentStore: stores.StudentStore,
		GenerateID:   generateID,
	})
	var verr *orchestrators.ImportStudentsValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Message, http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

func userStoreFilter(r *http.Request) userStore.ListFilter {
	return userStore.ListFilter{Role: r.URL.Query().Get("role")}
}

// handleUsers handles GET (list) and POST (create) for /api/users
func handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if _, ok := requireSession(w, r); !ok {
			return
		}
		users, err := stores.UserStore.List(r.Context(), userStoreFilter(r))
		if err != nil {
			internalError(w, err)
			return
		}
		// Strip hashes before they leave the server.
		type userView struct {
			ID    string
			Name  string
			Email string
			Role  string
		}
		views := make([]userView, 0, len(users))
		for _, u := range users {
			views = append(views, userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
		}
		writeJSON(w, views)
		return
	}

	if r.Method == "POST" {
		if _, ok := requireOwner(w, r); !ok {
			return
		}
		var input orchestrators.CreateUserInput
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		id, err := orchestrators.ExecuteCreateUser(r.Context(), input, orchestrators.SeedUsersDeps{
			UserStore: stores.UserStore,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSONStatus(w, http.StatusCreated, map[string]string{"id": id})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleDashboard handles GET /api/dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		ViewerID:   sess.UserID,
		ViewerRole: sess.Role,
	}, projections.GetDashboardDeps{
		StudentStore: stores.StudentStore,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleTeamPerformance handles GET /api/team-performance
func handleTeamPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireOwner(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetTeamPerformance(r.Context(), projections.GetTeamPerformanceQuery{
		ViewerRole: sess.Role,
	}, projections.GetTeamPerformanceDeps{
		StudentStore: stores.StudentStore,
		UserStore:    stores.UserStore,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleExpireSweep handles POST /api/admin/expire-sweep
func handleExpireSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRenewalManager(w, r); !ok {
		return
	}

	result, err := orchestrators.ExecuteExpireStudents(r.Context(), orchestrators.ExpireStudentsDeps{
		StudentStore: stores.StudentStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleFixLessonTotals handles POST /api/admin/fix-lesson-totals
func handleFixLessonTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireOwner(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteFixLessonTotals(r.Context(), orchestrators.FixLessonTotalsInput{
		RequestedBy: sess.UserID,
		DryRun:      r.URL.Query().Get("dry_run") == "1",
	}, orchestrators.FixLessonTotalsDeps{
		StudentStore: stores.StudentStore,
		UserStore:    stores.UserStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleSendReminders handles POST /api/admin/send-reminders
func handleSendReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRenewalManager(w, r); !ok {
		return
	}
	if emailSender == nil {
		http.Error(w, "email sending is not configured", http.StatusServiceUnavailable)
		return
	}

	result, err := orchestrators.ExecuteSendRenewalReminders(r.Context(), orchestrators.SendRenewalRemindersDeps{
		StudentStore: stores.StudentStore,
		UserStore:    stores.UserStore,
		EmailSender:  emailSender,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}
