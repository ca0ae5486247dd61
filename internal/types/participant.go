package types

import (
	"time"
)

// StatusKind is the closed set of administrative status overrides. An active
// override suppresses duration-based alerting independent of presence facts.
type StatusKind string

const (
	StatusNone       StatusKind = ""
	StatusLate       StatusKind = "late"
	StatusLeaveOut   StatusKind = "leave"
	StatusEarlyLeave StatusKind = "early_leave"
	StatusVacation   StatusKind = "vacation"
	StatusAbsence    StatusKind = "absence"
)

func (k StatusKind) Valid() bool {
	switch k {
	case StatusNone, StatusLate, StatusLeaveOut, StatusEarlyLeave, StatusVacation, StatusAbsence:
		return true
	}
	return false
}

// Suppressing reports whether the override excludes its participant from the
// camera-off and left-too-long duration checks.
func (k StatusKind) Suppressing() bool {
	return k != StatusNone
}

// ExcusedKind distinguishes the two acknowledged step-out states.
type ExcusedKind string

const (
	ExcusedNone       ExcusedKind = ""
	ExcusedOut        ExcusedKind = "out"
	ExcusedEarlyLeave ExcusedKind = "early_leave"
)

// Participant is one tracked classroom attendee. Presence facts are mutated
// only by ingestion and reconciliation; alert bookkeeping is transient and
// cleared at each reset boundary.
type Participant struct {
	ID          int64
	DisplayName string
	ChatHandle  string // Discord user ID; empty when the participant has no linked account
	IsAdmin     bool

	// Presence facts. CameraOn and LastLeaveTime are mutually exclusive:
	// setting one clears the other.
	CameraOn         bool
	LastStatusChange time.Time
	LastLeaveTime    time.Time // zero while present

	// Status override.
	Status            StatusKind
	StatusSetAt       time.Time
	AlarmBlockedUntil time.Time
	StatusAutoReset   time.Time // override auto-clears once this date passes

	// Excused step-out, acknowledged through the delivery layer. Separate
	// from the status override: it redirects the left-too-long check to the
	// participant instead of suppressing it.
	Excused     bool
	ExcusedType ExcusedKind

	// Alert bookkeeping.
	LastAlertSent       time.Time
	AlertCount          int
	LastAbsenceAlert    time.Time
	LastAdminLeaveAlert time.Time
	LastReturnRequest   time.Time
	ResponseStatus      string
	ResponseTime        time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Left reports whether the participant has disconnected without returning.
func (p *Participant) Left() bool {
	return !p.LastLeaveTime.IsZero()
}

// ActiveStatus returns the status override, or StatusNone once the override's
// auto-reset date has passed in the classroom's timezone.
func (p *Participant) ActiveStatus(now time.Time, loc *time.Location) StatusKind {
	if p.Status == StatusNone {
		return StatusNone
	}
	if !p.StatusAutoReset.IsZero() {
		reset := p.StatusAutoReset.In(loc)
		endOfDay := time.Date(reset.Year(), reset.Month(), reset.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if !now.Before(endOfDay) {
			return StatusNone
		}
	}
	return p.Status
}

// AlarmBlocked reports whether alerting is suppressed for this participant at
// the given instant. A participant is blocked while an explicit block-until
// timestamp is in the future, while a late/leave override has seen no state
// change since it was set, or while an early-leave/vacation/absence override
// covers the remainder of its calendar day.
func (p *Participant) AlarmBlocked(now time.Time, loc *time.Location) bool {
	if !p.AlarmBlockedUntil.IsZero() && now.Before(p.AlarmBlockedUntil) {
		return true
	}

	switch p.ActiveStatus(now, loc) {
	case StatusLate, StatusLeaveOut:
		// The override holds until a state change proves the participant
		// came back.
		return !p.LastStatusChange.After(p.StatusSetAt)
	case StatusEarlyLeave, StatusVacation, StatusAbsence:
		set := p.StatusSetAt.In(loc)
		endOfDay := time.Date(set.Year(), set.Month(), set.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		return now.Before(endOfDay)
	}
	return false
}
