package orchestrators

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"dtcteamcrm/internal/adapters/email"
	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/domain/student"
	"dtcteamcrm/internal/domain/user"
)

// SendRenewalRemindersDeps holds dependencies for the reminder digest.
type SendRenewalRemindersDeps struct {
	StudentStore interface {
		List(ctx context.Context, filter studentStore.ListFilter) ([]student.Student, error)
	}
	UserStore interface {
		List(ctx context.Context, filter userStore.ListFilter) ([]user.User, error)
	}
	EmailSender email.Sender
}

// SendRenewalRemindersResult reports how many digests went out.
type SendRenewalRemindersResult struct {
	CoachesNotified int
	StudentsListed  int
}

// ExecuteSendRenewalReminders emails each coach a digest of their
// students whose subscriptions run out within the renewal window.
// Coaches with nothing in the window get no email.
// PRE: EmailSender is configured
// POST: one batch send per run; returns counts of coaches and students
func ExecuteSendRenewalReminders(ctx context.Context, deps SendRenewalRemindersDeps) (SendRenewalRemindersResult, error) {
	now := timeNow()

	active, err := deps.StudentStore.List(ctx, studentStore.ListFilter{Status: student.StatusActive})
	if err != nil {
		return SendRenewalRemindersResult{}, fmt.Errorf("list active students: %w", err)
	}

	// Group window students by coach.
	byCoach := make(map[string][]student.Student)
	total := 0
	for _, s := range active {
		inWindow, _ := s.InRenewalWindow(now)
		if !inWindow || s.CoachID == "" {
			continue
		}
		byCoach[s.CoachID] = append(byCoach[s.CoachID], s)
		total++
	}
	if len(byCoach) == 0 {
		return SendRenewalRemindersResult{}, nil
	}

	coaches, err := deps.UserStore.List(ctx, userStore.ListFilter{Role: user.RoleCoach})
	if err != nil {
		return SendRenewalRemindersResult{}, fmt.Errorf("list coaches: %w", err)
	}

	var reqs []email.SendRequest
	for _, c := range coaches {
		due, ok := byCoach[c.ID]
		if !ok || c.Email == "" {
			continue
		}
		reqs = append(reqs, email.SendRequest{
			To:      []string{c.Email},
			Subject: fmt.Sprintf("%d student(s) due for renewal", len(due)),
			HTML:    renderReminderDigest(c.Name, due, now),
		})
	}
	if len(reqs) == 0 {
		return SendRenewalRemindersResult{}, nil
	}

	if _, err := deps.EmailSender.SendBatch(ctx, reqs); err != nil {
		return SendRenewalRemindersResult{}, fmt.Errorf("send reminder digests: %w", err)
	}

	slog.Info("renewal_reminders_sent", "coaches", len(reqs), "students", total)
	return SendRenewalRemindersResult{CoachesNotified: len(reqs), StudentsListed: total}, nil
}

// renderReminderDigest builds the HTML body for one coach's digest.
func renderReminderDigest(coachName string, due []student.Student, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(coachName))
	b.WriteString("<p>These students are coming up for renewal:</p><ul>")
	for _, s := range due {
		days := s.DaysUntilExpiry(now)
		fmt.Fprintf(&b, "<li>%s (%s) expires in %d day(s)</li>",
			html.EscapeString(s.Name), html.EscapeString(s.Package), days)
	}
	b.WriteString("</ul><p>Book their renewal calls before the window closes.</p>")
	return b.String()
}
