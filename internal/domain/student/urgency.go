package student

import (
	"time"

	"dtcteamcrm/internal/dateutil"
)

// Contact cadence thresholds. Renewed students get a daily touch, active
// prospects a 24-hour follow-up, finished subscriptions a cool-off of ten
// days between attempts.
const (
	renewedContactDays = 1
	activeContactHours = 24
	expiredContactDays = 10
)

// Renewal pipeline windows in days left before expiry.
const (
	RenewalUrgentDays   = 7
	RenewalUpcomingDays = 30
)

// IsContactUrgent reports whether the student is due another contact at
// the given instant. A student who has never been contacted is always due.
// PRE: now is the caller's reference clock
// INVARIANT: the receiver is not mutated
func (s *Student) IsContactUrgent(now time.Time) bool {
	if s.LastContactDate.IsZero() {
		return true
	}
	switch {
	case s.Status == StatusActive && s.IsRenewed:
		// Renewed students are contacted daily, so crossing midnight is
		// enough even when fewer than 24 hours have passed.
		return dateutil.CalendarDaysBetween(s.LastContactDate, now) >= renewedContactDays
	case s.Status == StatusActive:
		return dateutil.HoursBetween(s.LastContactDate, now) >= activeContactHours
	case s.Status == StatusExpired || s.Status == StatusNotRenewed:
		return dateutil.DaysBetween(s.LastContactDate, now) >= expiredContactDays
	}
	return false
}

// HasExpired reports whether an end date has passed at the given instant.
// A zero end date means the subscription has no recorded end and is never
// considered expired.
// INVARIANT: now exactly equal to the end date is not expired
func HasExpired(endDate, now time.Time) bool {
	if endDate.IsZero() {
		return false
	}
	return now.After(endDate)
}

// HasExpired reports whether the student's subscription end date has
// passed at the given instant.
func (s *Student) HasExpired(now time.Time) bool {
	return HasExpired(s.EndDate, now)
}

// DaysUntilExpiry returns the number of whole days between now and the
// end date, negative once the date is in the past.
func (s *Student) DaysUntilExpiry(now time.Time) int {
	return dateutil.DaysBetween(now, s.EndDate)
}

// InRenewalWindow reports whether an active, unrenewed student expires
// soon enough to enter the renewal pipeline, and whether the slot is the
// urgent one.
// POST: urgent implies inWindow
func (s *Student) InRenewalWindow(now time.Time) (inWindow, urgent bool) {
	if s.Status != StatusActive || s.IsRenewed {
		return false, false
	}
	days := s.DaysUntilExpiry(now)
	if days < 0 || days > RenewalUpcomingDays {
		return false, false
	}
	return true, days <= RenewalUrgentDays
}
