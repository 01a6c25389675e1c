package store

import (
	"database/sql"
	"fmt"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileCols = `user_id, bio, birthday, anniversary, love_language,
	share_bio, share_birthday, share_anniversary, share_love_language,
	notifications_enabled, notify_note_created, notify_note_updated, notify_note_liked,
	notify_journal_created, notify_journal_updated, notify_journal_reminder,
	journal_reminder_time, permission, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var birthday, anniversary sql.NullString
	var shareBio, shareBday, shareAnn, shareLL int
	var enabled, nc, nu, nl, jc, ju, jr int

	err := scanner.Scan(
		&p.UserID, &p.Bio, &birthday, &anniversary, &p.LoveLanguage,
		&shareBio, &shareBday, &shareAnn, &shareLL,
		&enabled, &nc, &nu, &nl, &jc, &ju, &jr,
		&p.Prefs.ReminderTime, &p.Prefs.Permission, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		p.Birthday = &birthday.String
	}
	if anniversary.Valid {
		p.Anniversary = &anniversary.String
	}
	p.ShareBio = shareBio != 0
	p.ShareBirthday = shareBday != 0
	p.ShareAnniversary = shareAnn != 0
	p.ShareLoveLang = shareLL != 0
	p.Prefs.Enabled = enabled != 0
	p.Prefs.NoteCreated = nc != 0
	p.Prefs.NoteUpdated = nu != 0
	p.Prefs.NoteLiked = nl != 0
	p.Prefs.JournalCreated = jc != 0
	p.Prefs.JournalUpdated = ju != 0
	p.Prefs.JournalReminder = jr != 0
	return &p, nil
}

// GetOrCreate returns the user's profile, creating a default row on first
// access.
func (s *ProfileStore) GetOrCreate(userID int64) (*model.Profile, error) {
	p, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO profiles (user_id) VALUES (?)`, userID); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.get(userID)
}

func (s *ProfileStore) get(userID int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Update persists the full profile, preference block included.
func (s *ProfileStore) Update(p *model.Profile) (*model.Profile, error) {
	var birthday, anniversary sql.NullString
	if p.Birthday != nil {
		birthday = sql.NullString{String: *p.Birthday, Valid: true}
	}
	if p.Anniversary != nil {
		anniversary = sql.NullString{String: *p.Anniversary, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE profiles SET bio = ?, birthday = ?, anniversary = ?, love_language = ?,
		 share_bio = ?, share_birthday = ?, share_anniversary = ?, share_love_language = ?,
		 notifications_enabled = ?, notify_note_created = ?, notify_note_updated = ?, notify_note_liked = ?,
		 notify_journal_created = ?, notify_journal_updated = ?, notify_journal_reminder = ?,
		 journal_reminder_time = ?, permission = ?, updated_at = datetime('now')
		 WHERE user_id = ?`,
		p.Bio, birthday, anniversary, p.LoveLanguage,
		boolInt(p.ShareBio), boolInt(p.ShareBirthday), boolInt(p.ShareAnniversary), boolInt(p.ShareLoveLang),
		boolInt(p.Prefs.Enabled), boolInt(p.Prefs.NoteCreated), boolInt(p.Prefs.NoteUpdated), boolInt(p.Prefs.NoteLiked),
		boolInt(p.Prefs.JournalCreated), boolInt(p.Prefs.JournalUpdated), boolInt(p.Prefs.JournalReminder),
		p.Prefs.ReminderTime, p.Prefs.Permission,
		p.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.get(p.UserID)
}

// ListReminderEnabled returns user ids with the master switch and the
// journal reminder preference both on, for scheduler bootstrap.
func (s *ProfileStore) ListReminderEnabled() ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM profiles WHERE notifications_enabled = 1 AND notify_journal_reminder = 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminder users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
