package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashvi-kumawat/love-note/internal/detect"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

const watchInterval = 30 * time.Second

// Watcher periodically re-lists each partnered user's visible notes and
// journal entries and raises created events for fresh partner content. It
// catches content the direct handler path could not deliver, for example
// when the recipient had no connected channel at write time; the per-ref
// sent record keeps the two paths from double-notifying.
type Watcher struct {
	users      *store.UserStore
	notes      *store.NoteStore
	journal    *store.JournalStore
	dispatcher *Dispatcher
	logger     *slog.Logger
	interval   time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	trackers map[int64]*userTrackers
}

type userTrackers struct {
	notes   *detect.Tracker
	journal *detect.Tracker
}

func NewWatcher(users *store.UserStore, notes *store.NoteStore, journal *store.JournalStore, dispatcher *Dispatcher, logger *slog.Logger) *Watcher {
	return &Watcher{
		users:      users,
		notes:      notes,
		journal:    journal,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   watchInterval,
		trackers:   make(map[int64]*userTrackers),
	}
}

// Start launches the polling loop. Safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
	w.logger.Info("content watcher started", "interval", w.interval)
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Prime the trackers so the first tick diffs against a real baseline
	// instead of treating the whole table as new.
	w.pass()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass()
		}
	}
}

func (w *Watcher) pass() {
	users, err := w.users.ListPartnered()
	if err != nil {
		w.logger.Error("list partnered users", "error", err)
		return
	}

	active := make(map[int64]struct{}, len(users))
	for i := range users {
		u := &users[i]
		active[u.ID] = struct{}{}
		w.observeUser(u)
	}

	// Drop state for users whose partnership ended.
	w.mu.Lock()
	for id := range w.trackers {
		if _, ok := active[id]; !ok {
			delete(w.trackers, id)
		}
	}
	w.mu.Unlock()
}

func (w *Watcher) observeUser(u *model.User) {
	t := w.trackersFor(u.ID)

	notes, err := w.notes.ListVisible(u, "", "")
	if err != nil {
		w.logger.Error("watch notes", "user_id", u.ID, "error", err)
	} else {
		items := make([]detect.Item, len(notes))
		for i, n := range notes {
			items[i] = detect.Item{ID: n.ID, AuthorID: n.AuthorID, CreatedAt: n.CreatedAt}
		}
		for _, fresh := range t.notes.Observe(items, u.ID, u.HasPartner()) {
			w.dispatcher.Dispatch(Event{
				Kind:   model.NotifNoteCreated,
				UserID: u.ID,
				Title:  "New love note 💌",
				Body:   w.authorLine(fresh.AuthorID, "left you a note"),
				RefID:  fmt.Sprintf("note-%d", fresh.ID),
			})
		}
	}

	entries, err := w.journal.ListVisible(u)
	if err != nil {
		w.logger.Error("watch journal", "user_id", u.ID, "error", err)
		return
	}
	items := make([]detect.Item, len(entries))
	for i, e := range entries {
		items[i] = detect.Item{ID: e.ID, AuthorID: e.AuthorID, CreatedAt: e.CreatedAt}
	}
	for _, fresh := range t.journal.Observe(items, u.ID, u.HasPartner()) {
		w.dispatcher.Dispatch(Event{
			Kind:   model.NotifJournalCreated,
			UserID: u.ID,
			Title:  "New journal entry 📓",
			Body:   w.authorLine(fresh.AuthorID, "shared a journal entry"),
			RefID:  fmt.Sprintf("journal-%d", fresh.ID),
		})
	}
}

func (w *Watcher) trackersFor(userID int64) *userTrackers {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.trackers[userID]
	if !ok {
		t = &userTrackers{
			notes:   detect.NewTracker(detect.DefaultRecencyWindow),
			journal: detect.NewTracker(detect.DefaultRecencyWindow),
		}
		w.trackers[userID] = t
	}
	return t
}

func (w *Watcher) authorLine(authorID int64, action string) string {
	author, err := w.users.GetByID(authorID)
	if err != nil || author == nil {
		return "Your partner " + action
	}
	return author.Username + " " + action
}
