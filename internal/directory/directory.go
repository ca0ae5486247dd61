// Package directory layers name resolution and in-memory caches over the
// durable participant store. The store stays the authority; the caches are
// best-effort accelerators rebuilt on demand.
package directory

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/Baehyeonu/classwatch/internal/names"
	"github.com/Baehyeonu/classwatch/internal/store"
	"github.com/Baehyeonu/classwatch/internal/types"
	"github.com/agnivade/levenshtein"
)

// maxNameDistance bounds the fuzzy fallback: anything further than one edit
// from a known name is treated as unknown.
const maxNameDistance = 1

type Directory struct {
	*store.Store

	cache  *nameCache
	Admins *AdminCache

	failMu         sync.Mutex
	failedSubjects map[string]struct{}
}

func New(s *store.Store) *Directory {
	return &Directory{
		Store:          s,
		cache:          newNameCache(),
		Admins:         NewAdminCache(s),
		failedSubjects: make(map[string]struct{}),
	}
}

// Resolve maps a raw display string to a participant. Resolution order:
// exact cache hit on any candidate, exact store lookup by the raw text,
// exact store lookup by each candidate, then a bounded edit-distance match
// against all known canonical names. Ties at the same distance go to the
// earliest candidate, then the lowest participant ID.
func (d *Directory) Resolve(ctx context.Context, rawSubject string, roleKeywords []string) (types.Participant, bool) {
	if len(roleKeywords) == 0 {
		roleKeywords = names.DefaultRoleKeywords
	}
	candidates := names.Candidates(rawSubject, roleKeywords)

	for _, candidate := range candidates {
		if id, hit := d.cache.get(candidate); hit {
			p, err := d.ByID(ctx, id)
			if err == nil {
				d.cache.putAll(candidates, p.ID)
				return p, true
			}
			// Stale cache entry; fall through to the store.
			d.cache.remove(candidate)
		}
	}

	if raw := strings.TrimSpace(rawSubject); raw != "" {
		if p, err := d.ByName(ctx, raw); err == nil {
			d.cache.putAll(candidates, p.ID)
			return p, true
		}
	}

	for _, candidate := range candidates {
		p, err := d.ByName(ctx, candidate)
		if err == nil {
			d.cache.putAll(candidates, p.ID)
			return p, true
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Println("error: could not look up participant:", err)
			return types.Participant{}, false
		}
	}

	if p, ok := d.fuzzyMatch(ctx, candidates); ok {
		d.cache.putAll(candidates, p.ID)
		return p, true
	}

	d.logResolveFailure(rawSubject, candidates)
	return types.Participant{}, false
}

// fuzzyMatch scans all canonical names for the closest within the distance
// bound. All() returns rows ordered by ID, which makes the lowest-ID rule
// fall out of iteration order.
func (d *Directory) fuzzyMatch(ctx context.Context, candidates []string) (types.Participant, bool) {
	if len(candidates) == 0 {
		return types.Participant{}, false
	}

	all, err := d.All(ctx)
	if err != nil {
		log.Println("error: could not list participants for fuzzy match:", err)
		return types.Participant{}, false
	}

	for _, candidate := range candidates {
		best := -1
		bestDistance := maxNameDistance + 1
		for i, p := range all {
			distance := levenshtein.ComputeDistance(candidate, p.DisplayName)
			if distance < bestDistance {
				best = i
				bestDistance = distance
			}
		}
		if best >= 0 && bestDistance <= maxNameDistance {
			return all[best], true
		}
	}
	return types.Participant{}, false
}

// logResolveFailure reports an unmatched subject once per distinct raw text
// for the process lifetime so a persistently unregistered name cannot spam
// the log.
func (d *Directory) logResolveFailure(rawSubject string, candidates []string) {
	d.failMu.Lock()
	defer d.failMu.Unlock()

	if _, seen := d.failedSubjects[rawSubject]; seen {
		return
	}
	d.failedSubjects[rawSubject] = struct{}{}
	log.Printf("WARN: no registered participant matches %q (tried %v)", rawSubject, candidates)
}

// InvalidateCache drops the resolution cache, e.g. after a rename.
func (d *Directory) InvalidateCache() {
	d.cache.clear()
}
