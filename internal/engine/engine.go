// Package engine runs the periodic duration checks that turn presence facts
// into notifications: camera off too long, left too long, overdue return
// promises. It owns the alerting cadence but never delivers messages itself;
// delivery goes through the Notifier.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Baehyeonu/classwatch/internal/config"
	"github.com/Baehyeonu/classwatch/internal/directory"
	"github.com/Baehyeonu/classwatch/internal/ingest"
	"github.com/Baehyeonu/classwatch/internal/schedule"
	"github.com/Baehyeonu/classwatch/internal/types"
)

// Notifier delivers alert messages. Errors are logged and counted as an
// attempt; the cooldown still advances so a flaky delivery channel cannot
// turn into a message storm.
type Notifier interface {
	NotifyParticipant(ctx context.Context, chatHandle, message string) error
	NotifyAdmins(ctx context.Context, message string) error
}

// ResponseReturning is the response state a participant lands in after
// answering a camera-off prompt with "coming back soon".
const ResponseReturning = "returning"

type Engine struct {
	dir       *directory.Directory
	settings  *config.Settings
	gate      *schedule.Gate
	joined    *types.JoinedSet
	dedup     *types.DedupLedger
	ing       *ingest.Ingestor
	notifier  Notifier
	broadcast ingest.Broadcaster
	startTime time.Time

	mu               sync.Mutex
	lastReset        time.Time
	alertsPaused     bool
	monitoringPaused bool
	scheduleKnown    bool
	wasClass         bool
	wasLunch         bool
}

func New(
	dir *directory.Directory,
	settings *config.Settings,
	gate *schedule.Gate,
	joined *types.JoinedSet,
	dedup *types.DedupLedger,
	ing *ingest.Ingestor,
	notifier Notifier,
	broadcast ingest.Broadcaster,
) *Engine {
	return &Engine{
		dir:       dir,
		settings:  settings,
		gate:      gate,
		joined:    joined,
		dedup:     dedup,
		ing:       ing,
		notifier:  notifier,
		broadcast: broadcast,
		startTime: time.Now(),
	}
}

// Run ticks the duration checks until stop closes. Intended to live in a
// run.Group actor.
func (e *Engine) Run(stop <-chan struct{}) error {
	ticker := time.NewTicker(e.settings.Current().CheckInterval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return nil
		case now := <-ticker.C:
			e.tick(ctx, now)
		}
	}
}

func (e *Engine) tick(ctx context.Context, now time.Time) {
	e.maybeDailyReset(ctx, now)
	e.checkScheduleTransitions(ctx, now)

	e.mu.Lock()
	monitoringPaused := e.monitoringPaused
	alertsPaused := e.alertsPaused
	e.mu.Unlock()

	if monitoringPaused || alertsPaused {
		return
	}
	if e.gate.IsWeekendOrHoliday(now) {
		return
	}
	// Right after start the presence picture is still being rebuilt from
	// history; alerting on it would fire on stale facts.
	if now.Sub(e.startTime) < e.settings.Current().WarmupTime {
		return
	}
	if !e.gate.IsClassTime(now) {
		return
	}

	e.checkLeft(ctx, now)
	e.checkReturnRequests(ctx, now)
	e.checkCameraOff(ctx, now)
}

// PauseAlerts stops notifications and duration checks; presence tracking
// continues unaffected.
func (e *Engine) PauseAlerts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alertsPaused = true
}

func (e *Engine) ResumeAlerts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alertsPaused = false
}

func (e *Engine) PauseMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitoringPaused = true
}

func (e *Engine) ResumeMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitoringPaused = false
}

// ResetAt returns the instant of the most recent daily reset, or zero when
// none has run this process.
func (e *Engine) ResetAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReset
}

// checkCameraOff finds participants whose camera has been off past the
// threshold and notifies them, escalating to the administrators on repeat
// offenses instead of re-messaging the participant.
func (e *Engine) checkCameraOff(ctx context.Context, now time.Time) {
	v := e.settings.Current()
	resetAt := e.ResetAt()

	all, err := e.dir.All(ctx)
	if err != nil {
		log.Println("error: could not list participants for camera check:", err)
		return
	}

	var alerted []int64
	var escalations []string
	for i := range all {
		p := &all[i]
		if p.IsAdmin || p.CameraOn || p.Left() || p.Excused {
			continue
		}
		if !e.joined.Contains(p.ID) {
			continue
		}
		if p.LastStatusChange.IsZero() {
			continue
		}
		// Facts from before the reset boundary describe yesterday's class.
		if !resetAt.IsZero() && p.LastStatusChange.Before(resetAt) {
			continue
		}
		if p.ActiveStatus(now, v.Timezone).Suppressing() {
			continue
		}
		if p.AlarmBlocked(now, v.Timezone) {
			continue
		}

		offFor := now.Sub(p.LastStatusChange)
		if offFor < v.CameraOffThreshold {
			continue
		}
		if !shouldAlert(p.LastAlertSent, v.AlertCooldown, now) {
			continue
		}

		minutes := int(offFor.Minutes())
		if p.AlertCount == 0 {
			if p.ChatHandle == "" {
				continue
			}
			msg := fmt.Sprintf("📷 %s님, 카메라가 %d분째 꺼져 있어요. 확인 부탁드립니다!",
				p.DisplayName, minutes)
			if err := e.notifier.NotifyParticipant(ctx, p.ChatHandle, msg); err != nil {
				log.Printf("error: could not send camera alert to %q: %s", p.DisplayName, err)
			}
		} else {
			escalations = append(escalations, fmt.Sprintf("%s (%d분)", p.DisplayName, minutes))
		}
		alerted = append(alerted, p.ID)
	}

	if len(escalations) > 0 {
		msg := "⚠️ 카메라 꺼짐 지속 (안내 후 미복귀):\n• " + strings.Join(escalations, "\n• ")
		if err := e.notifier.NotifyAdmins(ctx, msg); err != nil {
			log.Println("error: could not send camera escalation to admins:", err)
		}
	}

	if len(alerted) > 0 {
		if err := e.dir.RecordAlertsSent(ctx, alerted, now); err != nil {
			log.Println("error: could not record camera alerts:", err)
		}
		e.broadcast.SystemLog("warn", "engine", "camera_off_alert",
			fmt.Sprintf("%d camera-off alerts sent", len(alerted)))
	}
}

// checkLeft handles participants who disconnected and stayed gone past the
// leave threshold. Excused participants get a direct nudge; everyone else is
// reported to the administrators in one batch.
func (e *Engine) checkLeft(ctx context.Context, now time.Time) {
	v := e.settings.Current()

	all, err := e.dir.All(ctx)
	if err != nil {
		log.Println("error: could not list participants for leave check:", err)
		return
	}

	var adminLines []string
	var adminIDs []int64
	for i := range all {
		p := &all[i]
		if p.IsAdmin || !p.Left() {
			continue
		}
		if !e.joined.Contains(p.ID) {
			continue
		}
		if p.ActiveStatus(now, v.Timezone).Suppressing() {
			continue
		}
		if p.AlarmBlocked(now, v.Timezone) {
			continue
		}

		leftFor := now.Sub(p.LastLeaveTime)
		if leftFor < v.LeaveAlertThreshold {
			continue
		}
		minutes := int(leftFor.Minutes())

		if p.Excused {
			if p.ChatHandle == "" || !shouldAlert(p.LastAbsenceAlert, v.AbsenceAlertCooldown, now) {
				continue
			}
			msg := fmt.Sprintf("🚪 자리 비움이 %d분을 넘었어요. 복귀하시면 카메라를 켜주세요!", minutes)
			if err := e.notifier.NotifyParticipant(ctx, p.ChatHandle, msg); err != nil {
				log.Printf("error: could not send absence reminder to %q: %s", p.DisplayName, err)
			}
			if err := e.dir.RecordAbsenceAlert(ctx, p.ID, now); err != nil {
				log.Printf("error: could not record absence reminder for %q: %s", p.DisplayName, err)
			}
			continue
		}

		if !shouldAlert(p.LastAdminLeaveAlert, v.LeaveAdminAlertCooldown, now) {
			continue
		}
		adminLines = append(adminLines, fmt.Sprintf("%s (%d분)", p.DisplayName, minutes))
		adminIDs = append(adminIDs, p.ID)
	}

	if len(adminLines) == 0 {
		return
	}
	msg := "🚪 장시간 퇴장 상태:\n• " + strings.Join(adminLines, "\n• ")
	if err := e.notifier.NotifyAdmins(ctx, msg); err != nil {
		log.Println("error: could not send leave report to admins:", err)
	}
	if err := e.dir.RecordAdminLeaveAlerts(ctx, adminIDs, now); err != nil {
		log.Println("error: could not record admin leave alerts:", err)
	}
	e.broadcast.SystemLog("warn", "engine", "left_too_long",
		fmt.Sprintf("%d participants away past threshold", len(adminIDs)))
}

// checkReturnRequests follows up on participants who answered an alert with
// "coming back soon" but whose camera is still off past the reminder window.
func (e *Engine) checkReturnRequests(ctx context.Context, now time.Time) {
	v := e.settings.Current()

	all, err := e.dir.All(ctx)
	if err != nil {
		log.Println("error: could not list participants for return check:", err)
		return
	}

	for i := range all {
		p := &all[i]
		if p.IsAdmin || p.ResponseStatus != ResponseReturning {
			continue
		}
		if p.CameraOn || p.ChatHandle == "" {
			continue
		}

		// The reminder cadence restarts from the later of the response and
		// the last reminder.
		anchor := p.ResponseTime
		if p.LastReturnRequest.After(anchor) {
			anchor = p.LastReturnRequest
		}
		if anchor.IsZero() || now.Sub(anchor) < v.ReturnReminderTime {
			continue
		}

		msg := "⏰ 곧 돌아오신다고 하셨는데 아직 카메라가 꺼져 있어요. 복귀하셨다면 카메라를 켜주세요!"
		if err := e.notifier.NotifyParticipant(ctx, p.ChatHandle, msg); err != nil {
			log.Printf("error: could not send return reminder to %q: %s", p.DisplayName, err)
		}
		if err := e.dir.RecordReturnRequest(ctx, p.ID, now); err != nil {
			log.Printf("error: could not record return reminder for %q: %s", p.DisplayName, err)
		}
	}
}

// checkScheduleTransitions detects class and lunch boundary crossings
// between ticks and resets camera-off timers around lunch so break time
// never counts toward a threshold.
func (e *Engine) checkScheduleTransitions(ctx context.Context, now time.Time) {
	isClass := e.gate.IsClassTime(now) && !e.gate.IsWeekendOrHoliday(now)
	isLunch := e.gate.IsLunchTime(now)

	e.mu.Lock()
	known := e.scheduleKnown
	wasClass, wasLunch := e.wasClass, e.wasLunch
	e.scheduleKnown = true
	e.wasClass, e.wasLunch = isClass, isLunch
	e.mu.Unlock()

	if !known {
		return
	}

	switch {
	case isLunch && !wasLunch:
		e.broadcast.SystemLog("info", "engine", "schedule", "lunch break started")
		e.resetOffTimers(ctx, now)
	case !isLunch && wasLunch:
		e.broadcast.SystemLog("info", "engine", "schedule", "lunch break ended")
		e.resetOffTimers(ctx, now)
	case isClass && !wasClass:
		e.broadcast.SystemLog("info", "engine", "schedule", "class monitoring started")
	case !isClass && wasClass && !isLunch:
		e.broadcast.SystemLog("info", "engine", "schedule", "class monitoring ended")
	}
}

// resetOffTimers restamps the camera-off clock for everyone currently off,
// so elapsed time starts counting from the boundary.
func (e *Engine) resetOffTimers(ctx context.Context, at time.Time) {
	ids := e.joined.IDs()
	if len(ids) == 0 {
		return
	}
	if err := e.dir.ResetCameraOffTimers(ctx, ids, at); err != nil {
		log.Println("error: could not reset camera-off timers:", err)
	}
}

// shouldAlert implements the cooldown rule: alert on the first occasion, then
// only once the full cooldown has elapsed. Exactly-elapsed counts as elapsed.
func shouldAlert(last time.Time, cooldown time.Duration, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return !now.Before(last.Add(cooldown))
}
