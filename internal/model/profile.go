package model

import "time"

// Notification permission states as reported by the client.
const (
	PermissionUnsupported = "unsupported"
	PermissionDefault     = "default"
	PermissionDenied      = "denied"
	PermissionGranted     = "granted"
)

// NotificationPrefs is the canonical per-user notification preference set.
// One snake_case name per field; mirrored into the in-memory preference
// cache for the dispatcher's fast path.
type NotificationPrefs struct {
	Enabled         bool   `json:"notifications_enabled"`
	NoteCreated     bool   `json:"notify_note_created"`
	NoteUpdated     bool   `json:"notify_note_updated"`
	NoteLiked       bool   `json:"notify_note_liked"`
	JournalCreated  bool   `json:"notify_journal_created"`
	JournalUpdated  bool   `json:"notify_journal_updated"`
	JournalReminder bool   `json:"notify_journal_reminder"`
	ReminderTime    string `json:"journal_reminder_time"`
	Permission      string `json:"permission"`
}

type Profile struct {
	UserID           int64             `json:"user_id"`
	Bio              string            `json:"bio"`
	Birthday         *string           `json:"birthday"`
	Anniversary      *string           `json:"anniversary"`
	LoveLanguage     string            `json:"love_language"`
	ShareBio         bool              `json:"share_bio"`
	ShareBirthday    bool              `json:"share_birthday"`
	ShareAnniversary bool              `json:"share_anniversary"`
	ShareLoveLang    bool              `json:"share_love_language"`
	Prefs            NotificationPrefs `json:"prefs"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// PartnerProfile is the view of a profile exposed to the linked partner.
// Fields the owner has not opted to share are nilled out.
type PartnerProfile struct {
	Bio          *string `json:"bio"`
	Birthday     *string `json:"birthday"`
	Anniversary  *string `json:"anniversary"`
	LoveLanguage *string `json:"love_language"`
}

// PartnerView filters the profile down to the fields shared with the partner.
func (p *Profile) PartnerView() PartnerProfile {
	var v PartnerProfile
	if p.ShareBio {
		v.Bio = &p.Bio
	}
	if p.ShareBirthday {
		v.Birthday = p.Birthday
	}
	if p.ShareAnniversary {
		v.Anniversary = p.Anniversary
	}
	if p.ShareLoveLang {
		v.LoveLanguage = &p.LoveLanguage
	}
	return v
}

// DefaultPrefs returns the preference set for a new profile: master switch
// off, every category on, 21:00 reminder.
func DefaultPrefs() NotificationPrefs {
	return NotificationPrefs{
		Enabled:         false,
		NoteCreated:     true,
		NoteUpdated:     true,
		NoteLiked:       true,
		JournalCreated:  true,
		JournalUpdated:  true,
		JournalReminder: true,
		ReminderTime:    "21:00",
		Permission:      PermissionDefault,
	}
}
