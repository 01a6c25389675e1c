package store

import (
	"testing"
	"time"
)

func TestCreateSubscriptionUpsertsByEndpoint(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	push := NewPushStore(db)
	a, _ := createCouple(t, users)

	first, err := push.CreateSubscription(a.ID, "https://push.example/ep1", "key1", "auth1", "phone")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Re-subscribing the same endpoint refreshes keys instead of
	// duplicating the row.
	second, err := push.CreateSubscription(a.ID, "https://push.example/ep1", "key2", "auth2", "phone")
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %d vs %d", second.ID, first.ID)
	}
	if second.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want key2", second.P256dhKey)
	}

	subs, err := push.ListByUser(a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("%d subscriptions, want 1", len(subs))
	}
}

func TestDeleteSubscriptionScopedToUser(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	push := NewPushStore(db)
	a, b := createCouple(t, users)

	sub, err := push.CreateSubscription(a.ID, "https://push.example/ep1", "k", "x", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Another user cannot remove it.
	if err := push.DeleteSubscription(sub.ID, b.ID); err != nil {
		t.Fatalf("cross-user delete: %v", err)
	}
	if got, _ := push.GetByID(sub.ID, a.ID); got == nil {
		t.Fatal("subscription removed by the wrong user")
	}

	if err := push.DeleteSubscription(sub.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := push.GetByID(sub.ID, a.ID); got != nil {
		t.Error("subscription survives delete")
	}
}

func TestSentRecordDedup(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	push := NewPushStore(db)
	a, _ := createCouple(t, users)

	sent, err := push.WasSent(a.ID, "note_created", "note-1")
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("unsent ref reported as sent")
	}

	if err := push.RecordSent(a.ID, "note_created", "note-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Recording twice is fine.
	if err := push.RecordSent(a.ID, "note_created", "note-1"); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	sent, err = push.WasSent(a.ID, "note_created", "note-1")
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Error("recorded ref not reported as sent")
	}

	// The same ref for another kind is independent.
	sent, _ = push.WasSent(a.ID, "note_updated", "note-1")
	if sent {
		t.Error("kind leaks across sent records")
	}

	if err := push.CleanupSent(time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	sent, _ = push.WasSent(a.ID, "note_created", "note-1")
	if sent {
		t.Error("cleanup left the record behind")
	}
}
