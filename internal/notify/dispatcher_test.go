package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/tejashvi-kumawat/love-note/internal/database"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/push"
	"github.com/tejashvi-kumawat/love-note/internal/store"
	"github.com/tejashvi-kumawat/love-note/internal/websocket"
)

type fakeForeground struct {
	mu        sync.Mutex
	messages  []websocket.Message
	connected bool
}

func (f *fakeForeground) SendToUser(userID int64, msg websocket.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return false
	}
	f.messages = append(f.messages, msg)
	return true
}

func (f *fakeForeground) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeBackground struct {
	err   error
	calls int
}

func (f *fakeBackground) Send(ctx context.Context, sub *model.PushSubscription, payload push.Payload) error {
	f.calls++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, background BackgroundChannel, foreground ForegroundChannel) (*Dispatcher, *PrefCache, *store.PushStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	if _, err := users.Create("mia", "mia@example.com", "x"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	prefs := NewPrefCache()
	pushStore := store.NewPushStore(db)
	d := NewDispatcher(prefs, store.NewProfileStore(db), pushStore, background, foreground, discardLogger())
	return d, prefs, pushStore
}

func grantedPrefs() model.NotificationPrefs {
	p := model.DefaultPrefs()
	p.Enabled = true
	p.Permission = model.PermissionGranted
	return p
}

func TestDispatchGating(t *testing.T) {
	tests := []struct {
		name  string
		prefs func() model.NotificationPrefs
		want  bool
	}{
		{"master switch off", func() model.NotificationPrefs {
			p := grantedPrefs()
			p.Enabled = false
			return p
		}, false},
		{"category off", func() model.NotificationPrefs {
			p := grantedPrefs()
			p.NoteCreated = false
			return p
		}, false},
		{"permission default", func() model.NotificationPrefs {
			p := grantedPrefs()
			p.Permission = model.PermissionDefault
			return p
		}, false},
		{"permission denied", func() model.NotificationPrefs {
			p := grantedPrefs()
			p.Permission = model.PermissionDenied
			return p
		}, false},
		{"permission unsupported", func() model.NotificationPrefs {
			p := grantedPrefs()
			p.Permission = model.PermissionUnsupported
			return p
		}, false},
		{"granted and enabled", grantedPrefs, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := &fakeForeground{connected: true}
			d, prefs, _ := newTestDispatcher(t, nil, fg)
			prefs.Put(1, tt.prefs())

			got := d.Dispatch(Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b"})
			if got != tt.want {
				t.Errorf("Dispatch() = %v, want %v", got, tt.want)
			}
			if tt.want && fg.count() != 1 {
				t.Errorf("delivered %d messages, want 1", fg.count())
			}
			if !tt.want && fg.count() != 0 {
				t.Errorf("delivered %d messages, want 0", fg.count())
			}
		})
	}
}

func TestDispatchDedup(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	prefs.Put(1, grantedPrefs())

	ev := Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b", RefID: "note-7"}
	if !d.Dispatch(ev) {
		t.Fatal("first dispatch not delivered")
	}
	if d.Dispatch(ev) {
		t.Error("second dispatch of same ref delivered")
	}
	if fg.count() != 1 {
		t.Errorf("delivered %d messages, want 1", fg.count())
	}
}

func TestDispatchNoRecordWhenUndelivered(t *testing.T) {
	fg := &fakeForeground{connected: false}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	prefs.Put(1, grantedPrefs())

	ev := Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b", RefID: "note-9"}
	if d.Dispatch(ev) {
		t.Fatal("dispatch delivered with no connected channel")
	}

	// Channel comes back: the same event must still go out.
	fg.mu.Lock()
	fg.connected = true
	fg.mu.Unlock()
	if !d.Dispatch(ev) {
		t.Error("redispatch after reconnect not delivered")
	}
}

func TestDispatchExpiredSubscriptionRemoved(t *testing.T) {
	fg := &fakeForeground{connected: true}
	bg := &fakeBackground{err: push.ErrExpired}
	d, prefs, pushStore := newTestDispatcher(t, bg, fg)
	prefs.Put(1, grantedPrefs())

	if _, err := pushStore.CreateSubscription(1, "https://push.example/ep1", "p", "a", "phone"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	if !d.Dispatch(Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b"}) {
		t.Fatal("dispatch not delivered via fallback")
	}
	if bg.calls != 1 {
		t.Errorf("background called %d times, want 1", bg.calls)
	}

	subs, err := pushStore.ListByUser(1)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expired subscription still present: %d", len(subs))
	}
	if fg.count() != 1 {
		t.Errorf("fallback delivered %d messages, want 1", fg.count())
	}
}

func TestDispatchPrefsFallThroughToStore(t *testing.T) {
	// No cache entry: the dispatcher reads the stored profile, which has
	// the master switch off by default.
	fg := &fakeForeground{connected: true}
	d, _, _ := newTestDispatcher(t, nil, fg)

	if d.Dispatch(Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b"}) {
		t.Error("dispatched with default (disabled) stored prefs")
	}
}

func TestTransientNotificationAutoCloses(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	prefs.Put(1, grantedPrefs())

	d.Dispatch(Event{Kind: model.NotifNoteLiked, UserID: 1, Title: "t", Body: "b"})
	d.Dispatch(Event{Kind: model.NotifNoteCreated, UserID: 1, Title: "t", Body: "b"})

	fg.mu.Lock()
	defer fg.mu.Unlock()
	liked, created := fg.messages[0], fg.messages[1]
	if liked.RequireInteraction || liked.AutoCloseMS == 0 {
		t.Errorf("liked message not transient: %+v", liked)
	}
	if !created.RequireInteraction || created.AutoCloseMS != 0 {
		t.Errorf("created message not persistent: %+v", created)
	}
}
