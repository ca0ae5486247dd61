// Package ingest turns free-text chat notifications into typed presence
// transitions and applies them to the participant directory, both live and
// as timestamp-ordered history replays.
package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Baehyeonu/classwatch/internal/config"
	"github.com/Baehyeonu/classwatch/internal/directory"
	"github.com/Baehyeonu/classwatch/internal/types"
)

// Broadcaster pushes state-change and log events to connected dashboard
// viewers. Implementations are fire-and-forget; delivery failures are
// swallowed, never propagated.
type Broadcaster interface {
	StatusChanged(update types.StatusUpdate)
	SystemLog(level, source, eventType, message string)
}

type queuedMessage struct {
	text string
	ts   time.Time
}

// Ingestor is the live entry point for chat messages. While a reconciliation
// pass or a daily reset is running, incoming messages queue FIFO and drain
// once the blocking operation completes.
type Ingestor struct {
	dir       *directory.Directory
	settings  *config.Settings
	joined    *types.JoinedSet
	dedup     *types.DedupLedger
	broadcast Broadcaster
	startTime time.Time

	mu        sync.Mutex
	suspended int
	queue     []queuedMessage
}

func NewIngestor(
	dir *directory.Directory,
	settings *config.Settings,
	joined *types.JoinedSet,
	dedup *types.DedupLedger,
	broadcast Broadcaster,
) *Ingestor {
	return &Ingestor{
		dir:       dir,
		settings:  settings,
		joined:    joined,
		dedup:     dedup,
		broadcast: broadcast,
		startTime: time.Now(),
	}
}

// HandleMessage processes one live chat message. Messages older than the
// process start (beyond a short grace window) are dropped: the transport can
// redeliver stale messages after a reconnect, and those belong to history
// replay, not live ingestion.
//
// The lock is held across the queue-or-apply decision and the apply itself,
// so a suspension starting concurrently either sees the message fully
// applied or finds it queued; it can never land between the check and the
// apply and let a replay interleave with a half-processed live event.
func (in *Ingestor) HandleMessage(ctx context.Context, text string, ts time.Time) {
	v := in.settings.Current()
	if ts.Before(in.startTime.Add(-v.StaleMessageGrace)) {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.suspended > 0 {
		in.queue = append(in.queue, queuedMessage{text: text, ts: ts})
		return
	}

	if kind, subject, ok := Classify(text); ok {
		in.Apply(ctx, kind, subject, ts, types.OriginLive, time.Time{})
	}
}

// Suspend queues live messages until the matching Resume. Suspensions nest
// so an overlapping reconciliation and daily reset cannot release each
// other's hold early.
func (in *Ingestor) Suspend() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.suspended++
}

// Resume releases one suspension and, once none remain, drains the queue in
// arrival order. The drain runs under the lock: a live message arriving
// mid-drain blocks until the drain finishes instead of jumping ahead of
// older queued messages.
func (in *Ingestor) Resume(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.suspended > 0 {
		in.suspended--
	}
	if in.suspended > 0 {
		return
	}

	for _, msg := range in.queue {
		if kind, subject, ok := Classify(msg.text); ok {
			in.Apply(ctx, kind, subject, msg.ts, types.OriginLive, time.Time{})
		}
	}
	in.queue = nil
}

// Apply resolves the subject and applies one typed transition. For replayed
// events the boundary decides joined-today membership: only messages at or
// after the current reset boundary mark a participant as having joined
// today, though older messages still update presence facts.
func (in *Ingestor) Apply(
	ctx context.Context,
	kind types.EventKind,
	rawSubject string,
	ts time.Time,
	origin types.Origin,
	boundary time.Time,
) bool {
	v := in.settings.Current()

	if Ignorable(rawSubject, v.IgnoreKeywords) {
		return false
	}

	p, ok := in.dir.Resolve(ctx, rawSubject, v.RoleKeywords)
	if !ok {
		return false
	}

	if in.dedup.Duplicate(p.ID, kind, ts, v.DedupEpsilon) {
		return false
	}

	if err := in.transition(ctx, &p, kind, ts); err != nil {
		log.Printf("error: could not apply %s for %q: %s", kind, p.DisplayName, err)
		return false
	}

	switch origin {
	case types.OriginLive:
		in.joined.Add(p.ID)
	case types.OriginReplay:
		if !ts.Before(boundary) {
			in.joined.Add(p.ID)
		}
	}

	if origin == types.OriginLive {
		in.broadcast.StatusChanged(types.StatusUpdate{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Kind:          kind,
			CameraOn:      kind == types.EventCameraOn,
			Timestamp:     ts,
		})
	}

	return true
}

func (in *Ingestor) transition(ctx context.Context, p *types.Participant, kind types.EventKind, ts time.Time) error {
	switch kind {
	case types.EventCameraOn:
		// The state change is itself evidence the participant returned, so
		// an excused step-out and a late/out override both clear.
		if err := in.dir.ClearAbsence(ctx, p.ID); err != nil {
			return err
		}
		if err := in.dir.ApplyCameraOn(ctx, p.ID, ts); err != nil {
			return err
		}
		if p.Status == types.StatusLate || p.Status == types.StatusLeaveOut {
			return in.dir.ClearStatusOverride(ctx, p.ID)
		}
		return nil

	case types.EventCameraOff:
		return in.dir.ApplyCameraOff(ctx, p.ID, ts)

	case types.EventJoin:
		// A join can arrive without an explicit camera message; record the
		// camera as off, the platform default on entry.
		if err := in.dir.ClearAbsence(ctx, p.ID); err != nil {
			return err
		}
		return in.dir.ApplyCameraOff(ctx, p.ID, ts)

	case types.EventLeave:
		return in.dir.RecordLeave(ctx, p.ID, ts)
	}
	return nil
}
