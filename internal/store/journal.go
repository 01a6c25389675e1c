package store

import (
	"database/sql"
	"fmt"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.JournalEntry, error) {
	var e model.JournalEntry
	var shared int
	var editBy, delBy sql.NullInt64
	var pTitle, pBody sql.NullString

	err := scanner.Scan(
		&e.ID, &e.Title, &e.Body, &e.AuthorID, &e.EntryDate, &e.Mood, &shared,
		&editBy, &delBy, &pTitle, &pBody,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Shared = shared != 0
	if editBy.Valid {
		e.EditRequestedBy = &editBy.Int64
	}
	if delBy.Valid {
		e.DeletionRequestedBy = &delBy.Int64
	}
	if pTitle.Valid {
		e.PendingTitle = &pTitle.String
	}
	if pBody.Valid {
		e.PendingBody = &pBody.String
	}
	return &e, nil
}

const entryCols = `id, title, body, author_id, entry_date, mood, shared, edit_requested_by, deletion_requested_by, pending_title, pending_body, created_at, updated_at`

// Create inserts a journal entry. The (author, entry_date) uniqueness
// constraint means a second entry for the same day fails; callers should
// check GetByAuthorAndDate first to surface a clean conflict.
func (s *JournalStore) Create(authorID int64, title, body, entryDate, mood string, shared bool) (*model.JournalEntry, error) {
	var sh int
	if shared {
		sh = 1
	}
	result, err := s.db.Exec(
		`INSERT INTO journal_entries (title, body, author_id, entry_date, mood, shared) VALUES (?, ?, ?, ?, ?, ?)`,
		title, body, authorID, entryDate, mood, sh,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *JournalStore) GetByID(id int64) (*model.JournalEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM journal_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return e, nil
}

func (s *JournalStore) GetByAuthorAndDate(authorID int64, entryDate string) (*model.JournalEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM journal_entries WHERE author_id = ? AND entry_date = ?`, authorID, entryDate)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry by date: %w", err)
	}
	return e, nil
}

// ListVisible returns the user's own entries plus the partner's shared
// entries, newest date first.
func (s *JournalStore) ListVisible(user *model.User) ([]model.JournalEntry, error) {
	query := `SELECT ` + entryCols + ` FROM journal_entries WHERE author_id = ?`
	args := []any{user.ID}
	if user.PartnerID != nil {
		query = `SELECT ` + entryCols + ` FROM journal_entries WHERE (author_id = ? OR (author_id = ? AND shared = 1))`
		args = []any{user.ID, *user.PartnerID}
	}
	query += ` ORDER BY entry_date DESC, created_at DESC`

	return s.queryEntries(query, args...)
}

// ListVisibleByDate returns visible entries for one calendar day.
func (s *JournalStore) ListVisibleByDate(user *model.User, entryDate string) ([]model.JournalEntry, error) {
	query := `SELECT ` + entryCols + ` FROM journal_entries WHERE entry_date = ? AND author_id = ?`
	args := []any{entryDate, user.ID}
	if user.PartnerID != nil {
		query = `SELECT ` + entryCols + ` FROM journal_entries WHERE entry_date = ? AND (author_id = ? OR (author_id = ? AND shared = 1))`
		args = []any{entryDate, user.ID, *user.PartnerID}
	}
	query += ` ORDER BY created_at DESC`

	return s.queryEntries(query, args...)
}

func (s *JournalStore) queryEntries(query string, args ...any) ([]model.JournalEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *JournalStore) StageEdit(id, actorID int64, title, body string) error {
	_, err := s.db.Exec(
		`UPDATE journal_entries SET edit_requested_by = ?, pending_title = ?, pending_body = ?, updated_at = datetime('now') WHERE id = ?`,
		actorID, title, body, id,
	)
	if err != nil {
		return fmt.Errorf("stage journal edit: %w", err)
	}
	return nil
}

func (s *JournalStore) ApplyEdit(id int64, title, body, mood string) error {
	_, err := s.db.Exec(
		`UPDATE journal_entries SET title = ?, body = ?, mood = ?, edit_requested_by = NULL, pending_title = NULL, pending_body = NULL, updated_at = datetime('now') WHERE id = ?`,
		title, body, mood, id,
	)
	if err != nil {
		return fmt.Errorf("apply journal edit: %w", err)
	}
	return nil
}

func (s *JournalStore) CancelEdit(id int64) error {
	_, err := s.db.Exec(
		`UPDATE journal_entries SET edit_requested_by = NULL, pending_title = NULL, pending_body = NULL, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("cancel journal edit: %w", err)
	}
	return nil
}

func (s *JournalStore) StageDeletion(id, actorID int64) error {
	_, err := s.db.Exec(
		`UPDATE journal_entries SET deletion_requested_by = ?, updated_at = datetime('now') WHERE id = ?`,
		actorID, id,
	)
	if err != nil {
		return fmt.Errorf("stage journal deletion: %w", err)
	}
	return nil
}

func (s *JournalStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	return nil
}
