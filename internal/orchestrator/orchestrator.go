// Package orchestrator is the coordination point between the transport, the
// alert engine, the participant directory, and the dashboard. Everything
// outward-facing talks to it rather than to the internals directly.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Baehyeonu/classwatch/internal/config"
	"github.com/Baehyeonu/classwatch/internal/directory"
	"github.com/Baehyeonu/classwatch/internal/engine"
	"github.com/Baehyeonu/classwatch/internal/ingest"
	"github.com/Baehyeonu/classwatch/internal/schedule"
	"github.com/Baehyeonu/classwatch/internal/types"
)

// Response states a participant can land in by answering an alert prompt.
const (
	ResponseReturning = engine.ResponseReturning
	ResponseStillAway = "still_away"
	ResponseExcused   = "excused"
)

type Orchestrator struct {
	dir      *directory.Directory
	settings *config.Settings
	gate     *schedule.Gate
	holidays *schedule.HolidayCalendar
	joined   *types.JoinedSet
	ing      *ingest.Ingestor
	rec      *ingest.Reconciler
	eng      *engine.Engine

	Listeners *Listeners
}

func New(
	dir *directory.Directory,
	settings *config.Settings,
	gate *schedule.Gate,
	holidays *schedule.HolidayCalendar,
	joined *types.JoinedSet,
	ing *ingest.Ingestor,
	rec *ingest.Reconciler,
	eng *engine.Engine,
	listeners *Listeners,
) *Orchestrator {
	return &Orchestrator{
		dir:       dir,
		settings:  settings,
		gate:      gate,
		holidays:  holidays,
		joined:    joined,
		ing:       ing,
		rec:       rec,
		eng:       eng,
		Listeners: listeners,
	}
}

// HandleIncomingMessage feeds one live chat message into ingestion.
func (o *Orchestrator) HandleIncomingMessage(ctx context.Context, text string, ts time.Time) {
	o.ing.HandleMessage(ctx, text, ts)
}

// Resync replays the full lookback window from chat history.
func (o *Orchestrator) Resync(ctx context.Context) error {
	return o.rec.Reconcile(ctx, o.settings.Current().LookbackWindow)
}

// PollRecent replays only the trailing poll window. Safe on a short interval.
func (o *Orchestrator) PollRecent(ctx context.Context) error {
	v := o.settings.Current()
	return o.rec.PollRecent(ctx, v.RecentPollInterval+v.StaleMessageGrace)
}

// Snapshot aggregates the dashboard counters from durable state plus the
// joined-today view. Administrators are excluded from every count.
func (o *Orchestrator) Snapshot(ctx context.Context, now time.Time) (types.Snapshot, error) {
	v := o.settings.Current()

	all, err := o.dir.All(ctx)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("could not aggregate dashboard state: %w", err)
	}

	snap := types.Snapshot{UpdatedAt: now}
	for i := range all {
		p := &all[i]
		if p.IsAdmin {
			continue
		}
		if !o.joined.Contains(p.ID) {
			snap.NotJoinedCount++
			continue
		}
		if p.Left() {
			snap.LeftCount++
			continue
		}
		snap.TotalActive++
		if p.CameraOn {
			snap.CamerasOn++
			continue
		}
		snap.CamerasOff++
		if !p.LastStatusChange.IsZero() &&
			now.Sub(p.LastStatusChange) >= v.CameraOffThreshold &&
			!p.ActiveStatus(now, v.Timezone).Suppressing() {
			snap.ThresholdExceeded++
		}
	}
	return snap, nil
}

// PublishSnapshot pushes a fresh aggregate to all dashboard viewers. Runs on
// the dashboard tick; skipped silently when nobody is connected.
func (o *Orchestrator) PublishSnapshot(ctx context.Context, now time.Time) {
	if o.Listeners.Count() == 0 {
		return
	}
	snap, err := o.Snapshot(ctx, now)
	if err != nil {
		return
	}
	o.Listeners.Publish(Update{Kind: "snapshot", Snapshot: &snap})
}

func (o *Orchestrator) JoinedToday() []int64 {
	return o.joined.IDs()
}

// Pause controls forward to the engine so the delivery layer never holds an
// engine reference.

func (o *Orchestrator) PauseAlerts()      { o.eng.PauseAlerts() }
func (o *Orchestrator) ResumeAlerts()     { o.eng.ResumeAlerts() }
func (o *Orchestrator) PauseMonitoring()  { o.eng.PauseMonitoring() }
func (o *Orchestrator) ResumeMonitoring() { o.eng.ResumeMonitoring() }

// SetStatus applies an administrative status override. autoReset of zero
// means the override holds until cleared by hand or by a camera-on for the
// self-clearing kinds.
func (o *Orchestrator) SetStatus(
	ctx context.Context,
	id int64,
	kind types.StatusKind,
	blockFor time.Duration,
	autoReset time.Time,
) error {
	if !kind.Valid() || kind == types.StatusNone {
		return fmt.Errorf("unknown status kind %q", kind)
	}
	now := time.Now()
	var blockedUntil time.Time
	if blockFor > 0 {
		blockedUntil = now.Add(blockFor)
	}
	return o.dir.SetStatusOverride(ctx, id, kind, now, blockedUntil, autoReset)
}

func (o *Orchestrator) ClearStatus(ctx context.Context, id int64) error {
	return o.dir.ClearStatusOverride(ctx, id)
}

// RecordResponse handles a participant's answer to an alert prompt.
func (o *Orchestrator) RecordResponse(ctx context.Context, id int64, status string) error {
	now := time.Now()
	v := o.settings.Current()

	if err := o.dir.RecordResponse(ctx, id, status, now); err != nil {
		return err
	}

	switch status {
	case ResponseExcused:
		// An acknowledged step-out redirects reminders to the participant.
		return o.dir.SetExcused(ctx, id, types.ExcusedOut, now)
	case ResponseStillAway:
		// Pull the next reminder closer than the regular cadence.
		rewindTo := now.Add(v.AbsentReminderTime - v.AbsenceAlertCooldown)
		return o.dir.RearmAbsenceReminder(ctx, id, rewindTo)
	}
	return nil
}

// MarkExcused flags an acknowledged step-out or early leave directly, e.g.
// from an admin command.
func (o *Orchestrator) MarkExcused(ctx context.Context, id int64, kind types.ExcusedKind) error {
	return o.dir.SetExcused(ctx, id, kind, time.Now())
}

func (o *Orchestrator) ClearExcused(ctx context.Context, id int64) error {
	return o.dir.ClearAbsence(ctx, id)
}

// Holiday management for the schedule gate.

func (o *Orchestrator) AddHoliday(date time.Time) (bool, error) {
	return o.holidays.AddManual(date)
}

func (o *Orchestrator) RemoveHoliday(date time.Time) (bool, error) {
	return o.holidays.RemoveManual(date)
}

func (o *Orchestrator) ManualHolidays() []string { return o.holidays.ManualHolidays() }

// Participants exposes the directory read model for the delivery and server
// layers.
func (o *Orchestrator) Participants(ctx context.Context) ([]types.Participant, error) {
	return o.dir.All(ctx)
}

func (o *Orchestrator) ParticipantByHandle(ctx context.Context, handle string) (types.Participant, error) {
	return o.dir.ByHandle(ctx, handle)
}

func (o *Orchestrator) ParticipantByName(ctx context.Context, name string) (types.Participant, error) {
	return o.dir.ByName(ctx, name)
}

// AdminHandles lists the chat handles alerts escalate to. Backed by the
// fail-open admin cache so a cold database read cannot drop an escalation.
func (o *Orchestrator) AdminHandles(ctx context.Context) []string {
	if err := o.dir.Admins.EnsureLoaded(ctx); err != nil {
		return nil
	}
	return o.dir.Admins.Handles()
}

func (o *Orchestrator) IsAdminHandle(ctx context.Context, handle string) bool {
	_ = o.dir.Admins.EnsureLoaded(ctx)
	return o.dir.Admins.IsAdmin(handle)
}

func (o *Orchestrator) Settings() *config.Settings {
	return o.settings
}

func (o *Orchestrator) Schedule() *schedule.Gate {
	return o.gate
}
