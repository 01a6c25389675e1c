// Package notify converts semantic events (partner created a note, liked a
// note, journal reminder due) into at most one delivered notification each,
// gated by the user's preference flags and reported permission state, with
// channel fallback from Web Push to a connected WebSocket tab.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/push"
	"github.com/tejashvi-kumawat/love-note/internal/store"
	"github.com/tejashvi-kumawat/love-note/internal/websocket"
)

const (
	// backgroundBudget bounds how long Dispatch waits on the push
	// service before falling back to the foreground channel.
	backgroundBudget = time.Second

	// autoCloseMS is the auto-dismiss timer sent with ephemeral
	// foreground notifications.
	autoCloseMS = 5000

	notificationIcon = "/icon-192.svg"
)

// Event is one semantic notification addressed to a single recipient.
// RefID, when set, deduplicates: an event with a kind/ref pair already
// recorded as sent is silently dropped.
type Event struct {
	Kind   string
	UserID int64
	Title  string
	Body   string
	RefID  string
}

// BackgroundChannel is the push delivery primitive (*push.Service).
type BackgroundChannel interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload push.Payload) error
}

// ForegroundChannel delivers to a connected tab (*websocket.Hub).
type ForegroundChannel interface {
	SendToUser(userID int64, msg websocket.Message) bool
}

// Dispatcher routes events to the best available channel.
type Dispatcher struct {
	prefs      *PrefCache
	profiles   *store.ProfileStore
	pushStore  *store.PushStore
	background BackgroundChannel // nil when VAPID keys are not configured
	foreground ForegroundChannel
	logger     *slog.Logger
}

func NewDispatcher(prefs *PrefCache, profiles *store.ProfileStore, pushStore *store.PushStore, background BackgroundChannel, foreground ForegroundChannel, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		prefs:      prefs,
		profiles:   profiles,
		pushStore:  pushStore,
		background: background,
		foreground: foreground,
		logger:     logger,
	}
}

// PrefsFor reads the user's preferences through the mirror, falling back to
// the profile store on a cache miss.
func (d *Dispatcher) PrefsFor(userID int64) (model.NotificationPrefs, error) {
	if p, ok := d.prefs.Get(userID); ok {
		return p, nil
	}
	profile, err := d.profiles.GetOrCreate(userID)
	if err != nil {
		return model.NotificationPrefs{}, err
	}
	d.prefs.Put(userID, profile.Prefs)
	return profile.Prefs, nil
}

// Dispatch delivers the event, or decides not to. Returns whether a
// notification actually went out. Dispatch never prompts for permission:
// permission state only ever changes through an explicit client update.
func (d *Dispatcher) Dispatch(ev Event) bool {
	prefs, err := d.PrefsFor(ev.UserID)
	if err != nil {
		d.logger.Error("read preferences", "user_id", ev.UserID, "error", err)
		return false
	}

	if !prefs.Enabled || !categoryEnabled(prefs, ev.Kind) {
		return false
	}
	if prefs.Permission != model.PermissionGranted {
		return false
	}

	if ev.RefID != "" {
		sent, err := d.pushStore.WasSent(ev.UserID, ev.Kind, ev.RefID)
		if err != nil {
			d.logger.Error("check sent", "error", err)
		}
		if sent {
			return false
		}
	}

	delivered := d.deliver(ev)
	if delivered && ev.RefID != "" {
		if err := d.pushStore.RecordSent(ev.UserID, ev.Kind, ev.RefID); err != nil {
			d.logger.Error("record sent", "error", err)
		}
	}
	return delivered
}

func (d *Dispatcher) deliver(ev Event) bool {
	tag, interaction := descriptor(ev.Kind)

	if d.background != nil {
		if d.sendPush(ev, tag, interaction) {
			return true
		}
	}

	msg := websocket.Message{
		Type:               ev.Kind,
		Title:              ev.Title,
		Body:               ev.Body,
		URL:                urlFor(ev.Kind),
		Tag:                tag,
		RequireInteraction: interaction,
	}
	if !interaction {
		msg.AutoCloseMS = autoCloseMS
	}
	return d.foreground.SendToUser(ev.UserID, msg)
}

func (d *Dispatcher) sendPush(ev Event, tag string, interaction bool) bool {
	subs, err := d.pushStore.ListByUser(ev.UserID)
	if err != nil {
		d.logger.Error("list subscriptions", "error", err)
		return false
	}
	if len(subs) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), backgroundBudget)
	defer cancel()

	payload := push.Payload{
		Title:              ev.Title,
		Body:               ev.Body,
		Icon:               notificationIcon,
		URL:                urlFor(ev.Kind),
		Tag:                tag,
		RequireInteraction: interaction,
	}

	delivered := false
	for i := range subs {
		if err := d.background.Send(ctx, &subs[i], payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				if err := d.pushStore.DeleteByEndpoint(subs[i].Endpoint); err != nil {
					d.logger.Error("delete expired subscription", "error", err)
				}
			} else {
				d.logger.Warn("push send", "error", err)
			}
			continue
		}
		delivered = true
	}
	return delivered
}

func categoryEnabled(prefs model.NotificationPrefs, kind string) bool {
	switch kind {
	case model.NotifNoteCreated:
		return prefs.NoteCreated
	case model.NotifNoteUpdated, model.NotifNoteDeletionRequested:
		return prefs.NoteUpdated
	case model.NotifNoteLiked:
		return prefs.NoteLiked
	case model.NotifJournalCreated:
		return prefs.JournalCreated
	case model.NotifJournalUpdated, model.NotifJournalDeletionRequested:
		return prefs.JournalUpdated
	case model.NotifJournalReminder:
		return prefs.JournalReminder
	}
	return false
}

// descriptor maps an event kind to its stable tag (the delivery channel
// replaces an undismissed notification of the same tag) and whether it
// stays on screen until dismissed.
func descriptor(kind string) (tag string, requireInteraction bool) {
	switch kind {
	case model.NotifNoteLiked, model.NotifJournalReminder:
		return kind, false
	default:
		return kind, true
	}
}

func urlFor(kind string) string {
	switch kind {
	case model.NotifJournalCreated, model.NotifJournalUpdated, model.NotifJournalDeletionRequested, model.NotifJournalReminder:
		return "/journal"
	default:
		return "/notes"
	}
}
