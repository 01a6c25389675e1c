package notify

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		hh, mm  int
		wantErr bool
	}{
		{"21:00", 21, 0, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"9:05", 9, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		hh, mm, err := ParseTimeOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && (hh != tt.hh || mm != tt.mm) {
			t.Errorf("ParseTimeOfDay(%q) = %d:%d, want %d:%d", tt.in, hh, mm, tt.hh, tt.mm)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 6, 10, 21, 5, 0, 0, loc)

	// 21:00 already passed today.
	next := NextOccurrence(now, 21, 0)
	want := time.Date(2025, 6, 11, 21, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("NextOccurrence past = %v, want %v", next, want)
	}

	// 22:00 still ahead today.
	next = NextOccurrence(now, 22, 0)
	want = time.Date(2025, 6, 10, 22, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("NextOccurrence future = %v, want %v", next, want)
	}

	// Exactly now rolls to tomorrow.
	next = NextOccurrence(now, 21, 5)
	want = time.Date(2025, 6, 11, 21, 5, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("NextOccurrence now = %v, want %v", next, want)
	}
}

func TestScheduleReplacesTimer(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, _, _ := newTestDispatcher(t, nil, fg)
	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)

	if err := s.Schedule(1, "21:00"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	gen1 := s.timers[1].generation

	if err := s.Schedule(1, "08:30"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) != 1 {
		t.Fatalf("%d timers armed, want 1", len(s.timers))
	}
	at := s.timers[1]
	if at.timeOfDay != "08:30" {
		t.Errorf("armed time = %q, want 08:30", at.timeOfDay)
	}
	if at.generation != gen1+1 {
		t.Errorf("generation = %d, want %d", at.generation, gen1+1)
	}
}

func TestScheduleRejectsInvalidTime(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, _, _ := newTestDispatcher(t, nil, fg)
	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)

	if err := s.Schedule(1, "25:00"); err == nil {
		t.Error("invalid time accepted")
	}
	if len(s.timers) != 0 {
		t.Errorf("%d timers armed after invalid schedule", len(s.timers))
	}
}

func TestCancelDisarms(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, _, _ := newTestDispatcher(t, nil, fg)
	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)

	if err := s.Schedule(1, "21:00"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Cancel(1)
	if len(s.timers) != 0 {
		t.Error("timer still armed after cancel")
	}
	// Cancel of an unarmed user is a no-op.
	s.Cancel(2)
}

func TestRearmFollowsPrefs(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)

	p := grantedPrefs()
	p.ReminderTime = "07:15"
	prefs.Put(1, p)

	s.Rearm(1)
	if at, ok := s.timers[1]; !ok || at.timeOfDay != "07:15" {
		t.Fatalf("rearm did not arm at preference time: %+v", s.timers[1])
	}

	// Turning the reminder category off disarms on the next rearm.
	p.JournalReminder = false
	prefs.Put(1, p)
	s.Rearm(1)
	if _, ok := s.timers[1]; ok {
		t.Error("timer still armed with reminder category off")
	}
}

func TestFireDispatchesReminder(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	prefs.Put(1, grantedPrefs())

	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)
	fixed := time.Date(2025, 6, 10, 20, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.Schedule(1, "21:00"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.fire(1, s.timers[1].generation)

	if fg.count() != 1 {
		t.Fatalf("reminder delivered %d messages, want 1", fg.count())
	}
	// A second fire the same day is deduplicated by the per-day ref.
	s.fire(1, s.timers[1].generation)
	if fg.count() != 1 {
		t.Errorf("same-day refire delivered again: %d messages", fg.count())
	}
}

func TestStaleFireIsNoop(t *testing.T) {
	fg := &fakeForeground{connected: true}
	d, prefs, _ := newTestDispatcher(t, nil, fg)
	prefs.Put(1, grantedPrefs())

	s := NewReminderScheduler(d, discardLogger())
	t.Cleanup(s.Stop)

	if err := s.Schedule(1, "21:00"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	stale := s.timers[1].generation
	if err := s.Schedule(1, "22:00"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	s.fire(1, stale)
	if fg.count() != 0 {
		t.Errorf("stale fire delivered %d messages", fg.count())
	}
}
