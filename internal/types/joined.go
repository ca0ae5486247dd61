package types

import "sync"

// JoinedSet tracks which participants have produced at least one event since
// the last reset boundary. Membership is independent of current presence: a
// participant who joined and then left stays in the set until the next reset.
type JoinedSet struct {
	ids map[int64]struct{}
	mu  sync.RWMutex
}

func NewJoinedSet() *JoinedSet {
	return &JoinedSet{
		ids: make(map[int64]struct{}),
	}
}

func (js *JoinedSet) Add(id int64) {
	js.mu.Lock()
	defer js.mu.Unlock()

	js.ids[id] = struct{}{}
}

func (js *JoinedSet) Contains(id int64) bool {
	js.mu.RLock()
	defer js.mu.RUnlock()

	_, exists := js.ids[id]
	return exists
}

func (js *JoinedSet) Clear() {
	js.mu.Lock()
	defer js.mu.Unlock()

	clear(js.ids)
}

func (js *JoinedSet) Len() int {
	js.mu.RLock()
	defer js.mu.RUnlock()

	return len(js.ids)
}

// IDs returns a copy of the current membership.
func (js *JoinedSet) IDs() []int64 {
	js.mu.RLock()
	defer js.mu.RUnlock()

	all := make([]int64, 0, len(js.ids))
	for id := range js.ids {
		all = append(all, id)
	}
	return all
}
