package types

import (
	"sync"
	"time"
)

type dedupKey struct {
	participant int64
	kind        EventKind
}

// DedupLedger suppresses near-duplicate deliveries of the same physical
// event. It records the last-seen message timestamp per (participant, kind)
// and drops events that do not advance it by more than the epsilon window.
// Best-effort only; cleared on reconciliation.
type DedupLedger struct {
	seen map[dedupKey]time.Time
	mu   sync.Mutex
}

func NewDedupLedger() *DedupLedger {
	return &DedupLedger{
		seen: make(map[dedupKey]time.Time),
	}
}

// Duplicate reports whether an event at ts repeats one already recorded
// within epsilon, recording ts otherwise. Events at or before the last-seen
// timestamp are also treated as duplicates, which keeps history replays from
// re-applying transitions a newer event has superseded.
func (dl *DedupLedger) Duplicate(participantID int64, kind EventKind, ts time.Time, epsilon time.Duration) bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	key := dedupKey{participant: participantID, kind: kind}
	if prior, exists := dl.seen[key]; exists && !ts.After(prior.Add(epsilon)) {
		return true
	}

	dl.seen[key] = ts
	return false
}

func (dl *DedupLedger) Clear() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	clear(dl.seen)
}
