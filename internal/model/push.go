package model

import "time"

// Notification event kinds
const (
	NotifNoteCreated              = "note_created"
	NotifNoteUpdated              = "note_updated"
	NotifNoteLiked                = "note_liked"
	NotifNoteDeletionRequested    = "note_deletion_requested"
	NotifJournalCreated           = "journal_created"
	NotifJournalUpdated           = "journal_updated"
	NotifJournalDeletionRequested = "journal_deletion_requested"
	NotifJournalReminder          = "journal_reminder"
)

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
