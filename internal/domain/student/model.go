package student

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxNotesLength = 5000
)

// Subscription status constants. Stored verbatim in the database and
// exchanged with clients, so the values are fixed.
const (
	StatusActive     = "ACTIVE"
	StatusExpired    = "EXPIRED"
	StatusNotRenewed = "NOT_RENEWED"
)

// Contact outcome constants recorded after a renewal call.
const (
	OutcomePositive              = "POSITIVE"
	OutcomeNegativePrice         = "NEGATIVE_PRICE"
	OutcomeNegativeNotInterested = "NEGATIVE_NOT_INTERESTED"
	OutcomeNegativeOther         = "NEGATIVE_OTHER"
	OutcomeNeutralBusy           = "NEUTRAL_BUSY"
	OutcomeNoAnswer              = "NO_ANSWER"
)

// Difficulty tags coaches attach to students.
const (
	TagSlowLearner   = "SLOW_LEARNER"
	TagLowMotivation = "LOW_MOTIVATION"
	TagScheduling    = "SCHEDULING"
	TagLanguage      = "LANGUAGE"
)

// Domain errors
var (
	ErrAlreadyExpired     = errors.New("student subscription is already expired")
	ErrNotActive          = errors.New("student subscription is not active")
	ErrContactNotForward  = errors.New("contact date would move backwards")
	ErrUnknownOutcome     = errors.New("unknown contact outcome")
	ErrNoLessonsRemaining = errors.New("student has no lessons remaining")
)

// Student holds subscription state for one paying student.
type Student struct {
	ID              string
	Name            string
	Phone           string
	Email           string
	Package         string
	StartDate       time.Time
	EndDate         time.Time
	TotalLessons    int
	UsedLessons     int
	Status          string
	CoachID         string
	OriginalCoachID string

	IsRenewed   bool
	RenewalDate time.Time
	CallBooked  bool

	LastContactDate    time.Time
	ContactOutcome     string
	ContactOutcomeDate time.Time
	ContactNotes       string

	CoachComment   string
	Notes          string
	DifficultyTags []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Student has valid data.
// PRE: Student struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name must not be empty, Status and Package must be known values
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("student name cannot be empty")
	}
	if len(s.Name) > MaxNameLength {
		return errors.New("student name cannot exceed 100 characters")
	}
	if len(s.Notes) > MaxNotesLength {
		return errors.New("student notes cannot exceed 5000 characters")
	}
	if s.Status != StatusActive && s.Status != StatusExpired && s.Status != StatusNotRenewed {
		return errors.New("status must be 'ACTIVE', 'EXPIRED', or 'NOT_RENEWED'")
	}
	if !KnownPackage(s.Package) {
		return errors.New("unknown subscription package")
	}
	if s.ContactOutcome != "" && !KnownOutcome(s.ContactOutcome) {
		return ErrUnknownOutcome
	}
	if s.UsedLessons < 0 || s.TotalLessons < 0 {
		return errors.New("lesson counts cannot be negative")
	}
	for _, tag := range s.DifficultyTags {
		if !KnownTag(tag) {
			return errors.New("unknown difficulty tag: " + tag)
		}
	}
	return nil
}

// KnownOutcome reports whether v is one of the recorded contact outcomes.
func KnownOutcome(v string) bool {
	switch v {
	case OutcomePositive, OutcomeNegativePrice, OutcomeNegativeNotInterested,
		OutcomeNegativeOther, OutcomeNeutralBusy, OutcomeNoAnswer:
		return true
	}
	return false
}

// IsActive returns true if the subscription is currently active.
// INVARIANT: Status field is not mutated
func (s *Student) IsActive() bool {
	return s.Status == StatusActive
}

// LessonsRemaining returns the unused lesson count, never negative.
func (s *Student) LessonsRemaining() int {
	if r := s.TotalLessons - s.UsedLessons; r > 0 {
		return r
	}
	return 0
}

// MarkContacted moves the last-contact date forward to now.
// PRE: now is at or after the current LastContactDate
// POST: LastContactDate equals now
// INVARIANT: the contact date only ever moves forward
func (s *Student) MarkContacted(now time.Time) error {
	if !s.LastContactDate.IsZero() && now.Before(s.LastContactDate) {
		return ErrContactNotForward
	}
	s.LastContactDate = now
	return nil
}

// RecordOutcome stores the result of a renewal call.
// POST: outcome, notes and the outcome timestamp are set
func (s *Student) RecordOutcome(outcome, notes string, now time.Time) error {
	if !KnownOutcome(outcome) {
		return ErrUnknownOutcome
	}
	s.ContactOutcome = outcome
	s.ContactNotes = notes
	s.ContactOutcomeDate = now
	return nil
}

// Renew flags the student as renewed. The agreed renewal date becomes
// the new end date as-is; package durations only apply at registration
// and import.
// PRE: renewalDate is the agreed end of the extended cycle
// POST: IsRenewed is true, EndDate equals renewalDate
func (s *Student) Renew(renewalDate time.Time) {
	s.IsRenewed = true
	s.RenewalDate = renewalDate
	s.EndDate = renewalDate
}

// ReassignCoach moves the student to a new coach, remembering the first
// coach they ever had.
// POST: CoachID is newCoachID; OriginalCoachID is set once and never changes
func (s *Student) ReassignCoach(newCoachID string) {
	if s.OriginalCoachID == "" {
		s.OriginalCoachID = s.CoachID
	}
	s.CoachID = newCoachID
}

// Expire transitions an active subscription to expired.
// PRE: Status is ACTIVE
// POST: Status is EXPIRED
func (s *Student) Expire() error {
	if s.Status == StatusExpired {
		return ErrAlreadyExpired
	}
	if s.Status != StatusActive {
		return ErrNotActive
	}
	s.Status = StatusExpired
	return nil
}

// UseLesson consumes one lesson from the plan.
// PRE: at least one lesson remains
// POST: UsedLessons is incremented by one
func (s *Student) UseLesson() error {
	if s.LessonsRemaining() == 0 {
		return ErrNoLessonsRemaining
	}
	s.UsedLessons++
	return nil
}

// KnownTag reports whether v is one of the fixed difficulty tags.
func KnownTag(v string) bool {
	switch v {
	case TagSlowLearner, TagLowMotivation, TagScheduling, TagLanguage:
		return true
	}
	return false
}

// HasTag reports whether the student carries the given difficulty tag.
func (s *Student) HasTag(tag string) bool {
	for _, t := range s.DifficultyTags {
		if t == tag {
			return true
		}
	}
	return false
}
