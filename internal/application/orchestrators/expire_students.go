package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	"dtcteamcrm/internal/domain/student"
)

// StudentStoreForSweep defines the store interface needed by the
// expiration sweep.
type StudentStoreForSweep interface {
	List(ctx context.Context, filter studentStore.ListFilter) ([]student.Student, error)
	Save(ctx context.Context, s student.Student) error
}

// ExpireStudentsDeps holds dependencies for ExpireStudents.
type ExpireStudentsDeps struct {
	StudentStore StudentStoreForSweep
}

// ExpireStudentsResult reports what the sweep did.
type ExpireStudentsResult struct {
	Checked int
	Expired int
}

// ExecuteExpireStudents transitions every active student whose end date
// has passed to EXPIRED. Students without an end date are never touched.
// PRE: none
// POST: all lapsed ACTIVE students are EXPIRED; the sweep is idempotent
func ExecuteExpireStudents(ctx context.Context, deps ExpireStudentsDeps) (ExpireStudentsResult, error) {
	now := timeNow()

	lapsed, err := deps.StudentStore.List(ctx, studentStore.ListFilter{
		Status:    student.StatusActive,
		EndBefore: now,
	})
	if err != nil {
		return ExpireStudentsResult{}, fmt.Errorf("list lapsed students: %w", err)
	}

	result := ExpireStudentsResult{Checked: len(lapsed)}
	for _, s := range lapsed {
		// The store filter is a strict less-than on the stored text date,
		// the domain predicate stays authoritative.
		if !s.HasExpired(now) {
			continue
		}
		if err := s.Expire(); err != nil {
			slog.Warn("expire_skip", "student_id", s.ID, "error", err.Error())
			continue
		}
		s.UpdatedAt = now
		if err := deps.StudentStore.Save(ctx, s); err != nil {
			return result, fmt.Errorf("save expired student %s: %w", s.ID, err)
		}
		result.Expired++
	}

	if result.Expired > 0 {
		slog.Info("expiration_sweep", "checked", result.Checked, "expired", result.Expired)
	}
	return result, nil
}

// StartExpirationWorker starts a background goroutine that periodically
// runs the expiration sweep.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartExpirationWorker(deps ExpireStudentsDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if _, err := ExecuteExpireStudents(ctx, deps); err != nil {
					slog.Error("expiration_sweep_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("expiration_worker_stopped")
				return
			}
		}
	}()
}
