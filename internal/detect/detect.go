// Package detect identifies newly appeared partner content between two
// successive listings of a user's visible items. Detection is a pure diff
// over id sets; the Tracker adds the at-most-once guarantee by refreshing
// its previous-id set after every pass.
package detect

import "time"

// DefaultRecencyWindow bounds how old an item may be and still count as
// newly created; it keeps a first listing after startup from replaying
// history as fresh events.
const DefaultRecencyWindow = 5 * time.Minute

// Item is the detection-relevant slice of a note or journal entry.
type Item struct {
	ID        int64
	AuthorID  int64
	CreatedAt time.Time
}

// DetectNew returns the items that qualify as new partner content: absent
// from previousIDs, authored by someone other than self, created within the
// recency window, and only while a partner is linked.
func DetectNew(previousIDs map[int64]struct{}, current []Item, selfUserID int64, hasPartner bool, window time.Duration, now time.Time) []Item {
	if !hasPartner {
		return nil
	}

	var fresh []Item
	for _, it := range current {
		if _, seen := previousIDs[it.ID]; seen {
			continue
		}
		if it.AuthorID == selfUserID {
			continue
		}
		if now.Sub(it.CreatedAt) >= window {
			continue
		}
		fresh = append(fresh, it)
	}
	return fresh
}

// Tracker remembers the previously observed id set for one user and one
// item kind. Observe reports the new partner items and then unconditionally
// refreshes the set to the full current listing, so an id is reported at
// most once per Tracker lifetime.
type Tracker struct {
	prev   map[int64]struct{}
	window time.Duration
	now    func() time.Time
}

func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	return &Tracker{
		prev:   make(map[int64]struct{}),
		window: window,
		now:    time.Now,
	}
}

// Observe diffs the current listing against the previous one.
func (t *Tracker) Observe(current []Item, selfUserID int64, hasPartner bool) []Item {
	fresh := DetectNew(t.prev, current, selfUserID, hasPartner, t.window, t.now())

	next := make(map[int64]struct{}, len(current))
	for _, it := range current {
		next[it.ID] = struct{}{}
	}
	t.prev = next

	return fresh
}
