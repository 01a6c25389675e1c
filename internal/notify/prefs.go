package notify

import (
	"sync"
	"time"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

// PrefCache is the in-memory mirror of notification preferences. It is
// written only by the profile-save path and read by the dispatcher and
// reminder scheduler, so background timer callbacks never wait on the
// database. Merge rule is last-write-wins per user.
type PrefCache struct {
	mu      sync.RWMutex
	entries map[int64]prefEntry
}

type prefEntry struct {
	prefs model.NotificationPrefs
	at    time.Time
}

func NewPrefCache() *PrefCache {
	return &PrefCache{entries: make(map[int64]prefEntry)}
}

// Put stores the preference set for a user, replacing any older entry.
func (c *PrefCache) Put(userID int64, prefs model.NotificationPrefs) {
	c.mu.Lock()
	c.entries[userID] = prefEntry{prefs: prefs, at: time.Now()}
	c.mu.Unlock()
}

// Get returns the mirrored preferences, if present.
func (c *PrefCache) Get(userID int64) (model.NotificationPrefs, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	return e.prefs, ok
}

// Drop removes a user's entry; called on logout and partner disconnect.
func (c *PrefCache) Drop(userID int64) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
