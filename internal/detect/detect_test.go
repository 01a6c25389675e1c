package detect

import (
	"testing"
	"time"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func item(id, author int64, age time.Duration) Item {
	return Item{ID: id, AuthorID: author, CreatedAt: now.Add(-age)}
}

func TestDetectNewQualifiers(t *testing.T) {
	prev := map[int64]struct{}{1: {}}
	current := []Item{
		item(1, 2, time.Minute),     // already seen
		item(2, 1, time.Minute),     // own item
		item(3, 2, time.Minute),     // qualifies
		item(4, 2, 10*time.Minute),  // too old
		item(5, 2, 5*time.Minute),   // exactly at window boundary: too old
		item(6, 2, 4*time.Minute+59*time.Second), // just inside
	}

	fresh := DetectNew(prev, current, 1, true, 5*time.Minute, now)
	if len(fresh) != 2 {
		t.Fatalf("got %d fresh items, want 2: %+v", len(fresh), fresh)
	}
	if fresh[0].ID != 3 || fresh[1].ID != 6 {
		t.Errorf("fresh ids = %d, %d, want 3, 6", fresh[0].ID, fresh[1].ID)
	}
}

func TestDetectNewNoPartner(t *testing.T) {
	current := []Item{item(3, 2, time.Minute)}
	if fresh := DetectNew(nil, current, 1, false, 5*time.Minute, now); fresh != nil {
		t.Errorf("expected nil without a partner, got %+v", fresh)
	}
}

func TestDetectNewNeverReportsSelf(t *testing.T) {
	current := []Item{item(3, 1, time.Second)}
	if fresh := DetectNew(map[int64]struct{}{}, current, 1, true, 5*time.Minute, now); len(fresh) != 0 {
		t.Errorf("expected no self items, got %+v", fresh)
	}
}

func TestTrackerReportsAtMostOnce(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.now = func() time.Time { return now }

	current := []Item{item(3, 2, time.Minute)}

	fresh := tr.Observe(current, 1, true)
	if len(fresh) != 1 || fresh[0].ID != 3 {
		t.Fatalf("first pass: got %+v, want item 3", fresh)
	}

	// Same listing again: nothing new.
	if fresh := tr.Observe(current, 1, true); len(fresh) != 0 {
		t.Errorf("second pass: got %+v, want none", fresh)
	}
}

func TestTrackerRefreshesEvenWhenNothingFound(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.now = func() time.Time { return now }

	// An old partner item appears; it does not qualify (outside window),
	// but the id set must still refresh so it is never reported later.
	old := []Item{item(7, 2, time.Hour)}
	if fresh := tr.Observe(old, 1, true); len(fresh) != 0 {
		t.Fatalf("old item reported: %+v", fresh)
	}

	// Make the same item look fresh; it was already observed, so it still
	// must not be reported.
	fresher := []Item{{ID: 7, AuthorID: 2, CreatedAt: now.Add(-time.Second)}}
	if fresh := tr.Observe(fresher, 1, true); len(fresh) != 0 {
		t.Errorf("previously observed item reported: %+v", fresh)
	}
}

func TestTrackerForgetsRemovedIDs(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.now = func() time.Time { return now }

	tr.Observe([]Item{item(3, 2, time.Minute)}, 1, true)
	// Item 3 disappears (deleted), then a different item 4 arrives.
	fresh := tr.Observe([]Item{item(4, 2, time.Minute)}, 1, true)
	if len(fresh) != 1 || fresh[0].ID != 4 {
		t.Errorf("got %+v, want item 4", fresh)
	}
}
