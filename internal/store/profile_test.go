package store

import (
	"testing"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

func TestProfileGetOrCreateDefaults(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	profiles := NewProfileStore(db)
	a, _ := createCouple(t, users)

	p, err := profiles.GetOrCreate(a.ID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if p.Prefs.Enabled {
		t.Error("notifications enabled by default")
	}
	if !p.Prefs.NoteCreated || !p.Prefs.JournalReminder {
		t.Error("category defaults should be on")
	}
	if p.Prefs.ReminderTime != "21:00" {
		t.Errorf("reminder time = %q, want 21:00", p.Prefs.ReminderTime)
	}
	if p.Prefs.Permission != model.PermissionDefault {
		t.Errorf("permission = %q, want default", p.Prefs.Permission)
	}

	// Idempotent.
	again, err := profiles.GetOrCreate(a.ID)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if again.UserID != p.UserID {
		t.Error("second call created a different profile")
	}
}

func TestProfileUpdate(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	profiles := NewProfileStore(db)
	a, _ := createCouple(t, users)

	p, err := profiles.GetOrCreate(a.ID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	p.Bio = "hopeless romantic"
	p.ShareBio = true
	p.Prefs.Enabled = true
	p.Prefs.NoteLiked = false
	p.Prefs.Permission = model.PermissionGranted
	p.Prefs.ReminderTime = "07:30"

	saved, err := profiles.Update(p)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Bio != "hopeless romantic" || !saved.ShareBio {
		t.Errorf("saved profile = %+v", saved)
	}
	if !saved.Prefs.Enabled || saved.Prefs.NoteLiked {
		t.Errorf("saved prefs = %+v", saved.Prefs)
	}
	if saved.Prefs.ReminderTime != "07:30" {
		t.Errorf("reminder time = %q, want 07:30", saved.Prefs.ReminderTime)
	}
	if saved.Prefs.Permission != model.PermissionGranted {
		t.Errorf("permission = %q, want granted", saved.Prefs.Permission)
	}
}

func TestListReminderEnabled(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	profiles := NewProfileStore(db)
	a, b := createCouple(t, users)

	pa, _ := profiles.GetOrCreate(a.ID)
	pa.Prefs.Enabled = true
	if _, err := profiles.Update(pa); err != nil {
		t.Fatalf("update: %v", err)
	}

	pb, _ := profiles.GetOrCreate(b.ID)
	pb.Prefs.Enabled = true
	pb.Prefs.JournalReminder = false
	if _, err := profiles.Update(pb); err != nil {
		t.Fatalf("update: %v", err)
	}

	ids, err := profiles.ListReminderEnabled()
	if err != nil {
		t.Fatalf("list reminder enabled: %v", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("reminder-enabled ids = %v, want [%d]", ids, a.ID)
	}
}
