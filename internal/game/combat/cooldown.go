package combat

import (
	"sync"
	"time"

	"github.com/udisondev/wasteland/internal/model"
)

// CooldownTracker remembers when each weapon last fired.
// Keyed by weapon name, so two copies of the same weapon share a cooldown.
//
// Thread-safety: mutex-guarded.
type CooldownTracker struct {
	now func() time.Time

	mu    sync.Mutex
	fired map[string]time.Time
}

// NewCooldownTracker creates a tracker. now may be nil (time.Now).
func NewCooldownTracker(now func() time.Time) *CooldownTracker {
	if now == nil {
		now = time.Now
	}
	return &CooldownTracker{
		now:   now,
		fired: make(map[string]time.Time),
	}
}

// Remaining returns how long until w can fire again (0 = ready).
func (t *CooldownTracker) Remaining(w *model.Weapon) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.fired[w.Name]
	if !ok || w.Cooldown <= 0 {
		return 0
	}
	return max(0, w.Cooldown-t.now().Sub(last))
}

// Ready reports whether w is off cooldown.
func (t *CooldownTracker) Ready(w *model.Weapon) bool {
	return t.Remaining(w) == 0
}

// Mark records that w fired now.
func (t *CooldownTracker) Mark(w *model.Weapon) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired[w.Name] = t.now()
}

// Reset forgets all timestamps.
func (t *CooldownTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.fired)
}
