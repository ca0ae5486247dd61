package orchestrator

import (
	"sync"
	"time"

	"github.com/Baehyeonu/classwatch/internal/types"
)

// Update is one dashboard feed item. Exactly one payload field is set,
// matching Kind.
type Update struct {
	Kind     string              `json:"kind"` // "status" | "log" | "snapshot"
	Status   *types.StatusUpdate `json:"status,omitempty"`
	Log      *types.SystemLog    `json:"log,omitempty"`
	Snapshot *types.Snapshot     `json:"snapshot,omitempty"`
}

// Listeners fans dashboard updates out to connected viewers. Sends never
// block: a viewer that stops draining loses updates, not the publisher.
type Listeners struct {
	listeners      map[string]chan Update
	totalListeners int
	mu             sync.RWMutex
}

func NewListeners() *Listeners {
	return &Listeners{
		listeners: make(map[string]chan Update),
	}
}

func (l *Listeners) Listen(viewerID string) <-chan Update {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, exists := l.listeners[viewerID]; exists {
		return c
	}

	c := make(chan Update, 16)
	l.listeners[viewerID] = c
	l.totalListeners++
	return c
}

func (l *Listeners) Remove(viewerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.listeners[viewerID]
	if !exists {
		return
	}
	close(c)
	delete(l.listeners, viewerID)
	l.totalListeners--
}

func (l *Listeners) Publish(update Update) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, c := range l.listeners {
		select {
		case c <- update:
		default:
		}
	}
}

func (l *Listeners) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.totalListeners
}

// StatusChanged and SystemLog satisfy the ingestion broadcaster so live
// transitions reach viewers without the ingest layer knowing about channels.

func (l *Listeners) StatusChanged(update types.StatusUpdate) {
	l.Publish(Update{Kind: "status", Status: &update})
}

func (l *Listeners) SystemLog(level, source, eventType, message string) {
	l.Publish(Update{Kind: "log", Log: &types.SystemLog{
		Level:     level,
		Source:    source,
		EventType: eventType,
		Message:   message,
		Timestamp: time.Now(),
	}})
}
