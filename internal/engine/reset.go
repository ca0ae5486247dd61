package engine

import (
	"context"
	"fmt"
	"log"
	"time"
)

// maybeDailyReset runs the daily reset once the configured wall-clock time
// passes. Presence facts survive; only alert bookkeeping, status overrides,
// and the joined-today view restart.
func (e *Engine) maybeDailyReset(ctx context.Context, now time.Time) {
	v := e.settings.Current()
	if !v.DailyResetEnabled {
		return
	}

	scheduled := v.DailyResetTime.On(now, v.Timezone)
	if now.Before(scheduled) {
		return
	}

	e.mu.Lock()
	done := !e.lastReset.Before(scheduled)
	e.mu.Unlock()
	if done {
		return
	}

	e.performReset(ctx, scheduled)
}

// StartupReset re-anchors reset state after a restart. When today's reset
// time has already passed, it checks for activity after the scheduled
// instant: any means the reset (or a day's worth of fresh transitions)
// already happened, so clearing again would wipe today's overrides. A clean
// pre-class restart with no activity performs the missed reset instead.
func (e *Engine) StartupReset(ctx context.Context, now time.Time) {
	v := e.settings.Current()
	if !v.DailyResetEnabled {
		return
	}

	scheduled := v.DailyResetTime.On(now, v.Timezone)
	if now.Before(scheduled) {
		return
	}

	all, err := e.dir.All(ctx)
	if err != nil {
		log.Println("error: could not inspect participants for startup reset:", err)
		return
	}
	for _, p := range all {
		if p.LastStatusChange.After(scheduled) {
			e.mu.Lock()
			e.lastReset = scheduled
			e.mu.Unlock()
			log.Println("daily reset already reflected in participant state, skipping")
			return
		}
	}

	e.performReset(ctx, scheduled)
}

// performReset clears alert bookkeeping for everything at or before the
// boundary while live ingestion queues, then restarts the joined-today and
// dedup views. Rows with transitions after the boundary keep their state.
func (e *Engine) performReset(ctx context.Context, boundary time.Time) {
	e.ing.Suspend()
	defer e.ing.Resume(ctx)

	if err := e.dir.ResetAlertBookkeeping(ctx, boundary); err != nil {
		log.Println("error: daily reset could not clear alert bookkeeping:", err)
		return
	}
	if err := e.dir.ClearResponseState(ctx); err != nil {
		log.Println("WARN: daily reset could not clear response state:", err)
	}
	e.joined.Clear()
	e.dedup.Clear()

	e.mu.Lock()
	e.lastReset = boundary
	e.mu.Unlock()

	v := e.settings.Current()
	log.Println("daily reset completed for boundary", boundary.In(v.Timezone).Format("2006-01-02 15:04"))
	e.broadcast.SystemLog("info", "engine", "daily_reset",
		fmt.Sprintf("daily reset completed (%s)", boundary.In(v.Timezone).Format("15:04")))
}
