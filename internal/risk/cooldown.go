package risk

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// CooldownTracker dedups recently traded opportunities by their token-id set,
// preventing flapping-book re-entry on the same arb under a fresh trade id.
type CooldownTracker struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewCooldownTracker creates a tracker with the given suppression window.
func NewCooldownTracker(cooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{
		seen:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Key canonicalises a token-id set: sorted and joined, so the same arb hashes
// identically regardless of leg order.
func Key(tokenIDs []string) string {
	ids := append([]string(nil), tokenIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// IsSuppressed reports whether the token-id set was recorded within the window.
func (t *CooldownTracker) IsSuppressed(tokenIDs []string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.seen[Key(tokenIDs)]
	return ok && t.now().Sub(last) < t.cooldown
}

// Record stamps the token-id set with the current time.
func (t *CooldownTracker) Record(tokenIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[Key(tokenIDs)] = t.now()
}

// Prune drops entries older than twice the cooldown window.
func (t *CooldownTracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	horizon := t.now().Add(-2 * t.cooldown)
	for key, last := range t.seen {
		if last.Before(horizon) {
			delete(t.seen, key)
		}
	}
}

// Len returns the number of tracked keys.
func (t *CooldownTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
