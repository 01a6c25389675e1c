package notify

import (
	"strings"
	"testing"

	"github.com/tejashvi-kumawat/love-note/internal/database"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

func newTestWatcher(t *testing.T) (*Watcher, *fakeForeground, *store.UserStore, *store.NoteStore, *store.JournalStore, *PrefCache) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	notes := store.NewNoteStore(db)
	journal := store.NewJournalStore(db)

	fg := &fakeForeground{connected: true}
	prefs := NewPrefCache()
	d := NewDispatcher(prefs, store.NewProfileStore(db), store.NewPushStore(db), nil, fg, discardLogger())
	w := NewWatcher(users, notes, journal, d, discardLogger())
	return w, fg, users, notes, journal, prefs
}

func linkCouple(t *testing.T, users *store.UserStore) (*model.User, *model.User) {
	t.Helper()
	a, err := users.Create("mia", "mia@example.com", "x")
	if err != nil {
		t.Fatalf("create mia: %v", err)
	}
	b, err := users.Create("leo", "leo@example.com", "x")
	if err != nil {
		t.Fatalf("create leo: %v", err)
	}
	if err := users.LinkPartners(a.ID, b.ID); err != nil {
		t.Fatalf("link partners: %v", err)
	}
	return a, b
}

func TestWatcherReportsFreshPartnerNote(t *testing.T) {
	w, fg, users, notes, _, prefs := newTestWatcher(t)
	a, b := linkCouple(t, users)
	prefs.Put(b.ID, grantedPrefs())

	w.pass() // baseline

	if _, err := notes.Create(a.ID, "Hi", "thinking of you", true); err != nil {
		t.Fatalf("create note: %v", err)
	}
	w.pass()

	if fg.count() != 1 {
		t.Fatalf("delivered %d messages, want 1", fg.count())
	}
	msg := fg.messages[0]
	if msg.Type != model.NotifNoteCreated {
		t.Errorf("message type = %q, want %q", msg.Type, model.NotifNoteCreated)
	}
	if !strings.Contains(msg.Body, "mia") {
		t.Errorf("body %q does not name the author", msg.Body)
	}

	// The same note must not be reported on later passes.
	w.pass()
	if fg.count() != 1 {
		t.Errorf("note reported again: %d messages", fg.count())
	}
}

func TestWatcherIgnoresOwnContent(t *testing.T) {
	w, fg, users, notes, _, prefs := newTestWatcher(t)
	a, b := linkCouple(t, users)
	prefs.Put(a.ID, grantedPrefs())
	prefs.Put(b.ID, grantedPrefs())

	w.pass()
	if _, err := notes.Create(a.ID, "Hi", "body", true); err != nil {
		t.Fatalf("create note: %v", err)
	}
	w.pass()

	// Only the partner gets notified, never the author.
	if fg.count() != 1 {
		t.Fatalf("delivered %d messages, want 1", fg.count())
	}
}

func TestWatcherReportsJournalEntries(t *testing.T) {
	w, fg, users, _, journal, prefs := newTestWatcher(t)
	a, b := linkCouple(t, users)
	prefs.Put(b.ID, grantedPrefs())

	w.pass()
	if _, err := journal.Create(a.ID, "Today", "was lovely", "2025-06-10", "happy", true); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	w.pass()

	if fg.count() != 1 {
		t.Fatalf("delivered %d messages, want 1", fg.count())
	}
	if fg.messages[0].Type != model.NotifJournalCreated {
		t.Errorf("message type = %q, want %q", fg.messages[0].Type, model.NotifJournalCreated)
	}
}

func TestWatcherSkipsUnpartneredUsers(t *testing.T) {
	w, fg, users, notes, _, prefs := newTestWatcher(t)
	solo, err := users.Create("solo", "solo@example.com", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	prefs.Put(solo.ID, grantedPrefs())

	w.pass()
	if _, err := notes.Create(solo.ID, "Hi", "body", true); err != nil {
		t.Fatalf("create note: %v", err)
	}
	w.pass()

	if fg.count() != 0 {
		t.Errorf("delivered %d messages for unpartnered user, want 0", fg.count())
	}
}

func TestWatcherDropsTrackersAfterUnlink(t *testing.T) {
	w, _, users, _, _, _ := newTestWatcher(t)
	a, b := linkCouple(t, users)

	w.pass()
	if len(w.trackers) != 2 {
		t.Fatalf("%d trackers after pass, want 2", len(w.trackers))
	}

	if err := users.UnlinkPartners(a.ID, b.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	w.pass()
	if len(w.trackers) != 0 {
		t.Errorf("%d trackers after unlink, want 0", len(w.trackers))
	}
}
