package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

// ReminderScheduler arms one timer per user for the daily journal reminder.
// Each fire re-reads preferences, dispatches at most once per calendar day,
// and re-arms itself for the next day. Re-scheduling a user cancels the
// previous timer; generation counters make a stale fire a no-op even if it
// races the cancellation.
type ReminderScheduler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	timers map[int64]*armedTimer
}

type armedTimer struct {
	timer      *time.Timer
	generation uint64
	timeOfDay  string
}

func NewReminderScheduler(dispatcher *Dispatcher, logger *slog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		timers:     make(map[int64]*armedTimer),
	}
}

// Schedule arms (or re-arms) the user's daily reminder at the given local
// time of day ("HH:MM"). Invalid times are rejected.
func (s *ReminderScheduler) Schedule(userID int64, timeOfDay string) error {
	hh, mm, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.timers[userID]
	var generation uint64
	if prev != nil {
		prev.timer.Stop()
		generation = prev.generation + 1
	}

	at := &armedTimer{generation: generation, timeOfDay: timeOfDay}
	delay := NextOccurrence(s.now(), hh, mm).Sub(s.now())
	at.timer = time.AfterFunc(delay, func() { s.fire(userID, generation) })
	s.timers[userID] = at

	s.logger.Debug("reminder armed", "user_id", userID, "at", timeOfDay, "in", delay.Round(time.Second))
	return nil
}

// Cancel disarms the user's reminder if one is armed.
func (s *ReminderScheduler) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.timers[userID]; ok {
		at.timer.Stop()
		delete(s.timers, userID)
	}
}

// Rearm re-computes the user's timer from current preferences. Called when a
// client reconnects (the armed delay may have drifted across a sleep) and
// after a preference save.
func (s *ReminderScheduler) Rearm(userID int64) {
	prefs, err := s.dispatcher.PrefsFor(userID)
	if err != nil {
		s.logger.Error("rearm reminder", "user_id", userID, "error", err)
		return
	}
	if !prefs.Enabled || !prefs.JournalReminder {
		s.Cancel(userID)
		return
	}
	if err := s.Schedule(userID, prefs.ReminderTime); err != nil {
		s.logger.Error("rearm reminder", "user_id", userID, "error", err)
	}
}

// Stop disarms every timer.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.timers {
		at.timer.Stop()
		delete(s.timers, id)
	}
}

func (s *ReminderScheduler) fire(userID int64, generation uint64) {
	s.mu.Lock()
	at, ok := s.timers[userID]
	if !ok || at.generation != generation {
		s.mu.Unlock()
		return
	}
	timeOfDay := at.timeOfDay
	s.mu.Unlock()

	// Preferences may have changed since the timer was armed.
	prefs, err := s.dispatcher.PrefsFor(userID)
	if err == nil && prefs.Enabled && prefs.JournalReminder {
		day := s.now().Format("2006-01-02")
		s.dispatcher.Dispatch(Event{
			Kind:   model.NotifJournalReminder,
			UserID: userID,
			Title:  "Journal reminder",
			Body:   "Don't forget to write in your journal today 💕",
			RefID:  "reminder-" + day,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok = s.timers[userID]
	if !ok || at.generation != generation {
		return
	}
	hh, mm, _ := ParseTimeOfDay(timeOfDay)
	delay := NextOccurrence(s.now(), hh, mm).Sub(s.now())
	at.timer = time.AfterFunc(delay, func() { s.fire(userID, generation) })
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(v string) (hh, mm int, err error) {
	h, m, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time of day %q", v)
	}
	hh, err = strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, fmt.Errorf("invalid time of day %q", v)
	}
	mm, err = strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", v)
	}
	return hh, mm, nil
}

// NextOccurrence returns the next wall-clock instant at hh:mm, today if it
// has not passed yet, otherwise tomorrow.
func NextOccurrence(now time.Time, hh, mm int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
