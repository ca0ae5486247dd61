package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Baehyeonu/classwatch/internal/types"
)

// History fetches archived chat messages from the transport, oldest first is
// not guaranteed; callers sort before replay.
type History interface {
	FetchSince(ctx context.Context, oldest time.Time) ([]RawMessage, error)
}

// RawMessage is one archived chat message as the transport returns it.
type RawMessage struct {
	Text      string
	Timestamp time.Time
}

// Reconciler rebuilds in-memory presence state from chat history so a
// restart or missed window never leaves the monitor blind to earlier
// transitions.
type Reconciler struct {
	ing     *Ingestor
	history History

	// resetAt reports the most recent daily-reset instant, or zero when no
	// reset has run this process. It anchors the joined-today boundary.
	resetAt func() time.Time
}

func NewReconciler(ing *Ingestor, history History, resetAt func() time.Time) *Reconciler {
	if resetAt == nil {
		resetAt = func() time.Time { return time.Time{} }
	}
	return &Reconciler{ing: ing, history: history, resetAt: resetAt}
}

// boundary is the instant separating "today's class" from older history for
// joined-today purposes: the last daily reset when one ran, otherwise the
// configured reset time projected onto today (or yesterday when the reset
// time has not passed yet), otherwise local midnight.
func (r *Reconciler) boundary(now time.Time) time.Time {
	if at := r.resetAt(); !at.IsZero() {
		return at
	}

	v := r.ing.settings.Current()
	local := now.In(v.Timezone)
	if v.DailyResetEnabled {
		at := time.Date(local.Year(), local.Month(), local.Day(),
			v.DailyResetTime.Hour, v.DailyResetTime.Minute, 0, 0, v.Timezone)
		if at.After(now) {
			at = at.AddDate(0, 0, -1)
		}
		return at
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, v.Timezone)
}

// Reconcile replays the full lookback window from history and rebuilds the
// joined-today set from scratch. Live messages queue while the replay runs
// and drain afterwards, so ordering holds even when the class is active.
func (r *Reconciler) Reconcile(ctx context.Context, lookback time.Duration) error {
	now := time.Now()
	boundary := r.boundary(now)

	messages, err := r.history.FetchSince(ctx, now.Add(-lookback))
	if err != nil {
		return fmt.Errorf("could not fetch chat history: %w", err)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	r.ing.Suspend()
	defer r.ing.Resume(ctx)

	r.ing.joined.Clear()
	r.ing.dedup.Clear()

	applied := 0
	for _, msg := range messages {
		kind, subject, ok := Classify(msg.Text)
		if !ok {
			continue
		}
		if r.ing.Apply(ctx, kind, subject, msg.Timestamp, types.OriginReplay, boundary) {
			applied++
		}
	}

	// Participants whose last transition landed on the current local day are
	// present regardless of whether the message fell inside the fetch
	// window.
	if err := r.sweepJoined(ctx, now); err != nil {
		log.Println("WARN: could not sweep joined participants:", err)
	}

	if err := r.ing.dir.ClearResponseState(ctx); err != nil {
		log.Println("WARN: could not clear stale response state:", err)
	}

	log.Printf("history reconciled: %d of %d messages applied, %d joined today",
		applied, len(messages), r.ing.joined.Len())
	r.ing.broadcast.SystemLog("info", "reconciler", "resync",
		fmt.Sprintf("history reconciled, %d participants joined today", r.ing.joined.Len()))
	return nil
}

// PollRecent replays only the trailing window without disturbing the joined
// set, the dedup ledger, or response state. The ledger makes the replay
// idempotent, so this runs safely on a short interval to pick up messages
// the live socket dropped.
func (r *Reconciler) PollRecent(ctx context.Context, window time.Duration) error {
	now := time.Now()
	boundary := r.boundary(now)

	messages, err := r.history.FetchSince(ctx, now.Add(-window))
	if err != nil {
		return fmt.Errorf("could not fetch recent chat history: %w", err)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	r.ing.Suspend()
	defer r.ing.Resume(ctx)

	for _, msg := range messages {
		kind, subject, ok := Classify(msg.Text)
		if !ok {
			continue
		}
		r.ing.Apply(ctx, kind, subject, msg.Timestamp, types.OriginReplay, boundary)
	}
	return nil
}

func (r *Reconciler) sweepJoined(ctx context.Context, now time.Time) error {
	v := r.ing.settings.Current()
	local := now.In(v.Timezone)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, v.Timezone)

	all, err := r.ing.dir.All(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if !p.LastStatusChange.IsZero() && !p.LastStatusChange.Before(dayStart) {
			r.ing.joined.Add(p.ID)
		}
	}
	return nil
}
