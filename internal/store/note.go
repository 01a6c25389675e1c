package store

import (
	"database/sql"
	"fmt"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var shared int
	var editBy, delBy sql.NullInt64
	var pTitle, pBody sql.NullString

	err := scanner.Scan(
		&n.ID, &n.Title, &n.Body, &n.AuthorID, &shared,
		&editBy, &delBy, &pTitle, &pBody,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Shared = shared != 0
	if editBy.Valid {
		n.EditRequestedBy = &editBy.Int64
	}
	if delBy.Valid {
		n.DeletionRequestedBy = &delBy.Int64
	}
	if pTitle.Valid {
		n.PendingTitle = &pTitle.String
	}
	if pBody.Valid {
		n.PendingBody = &pBody.String
	}
	return &n, nil
}

const noteCols = `id, title, body, author_id, shared, edit_requested_by, deletion_requested_by, pending_title, pending_body, created_at, updated_at`

func (s *NoteStore) Create(authorID int64, title, body string, shared bool) (*model.Note, error) {
	var sh int
	if shared {
		sh = 1
	}
	result, err := s.db.Exec(
		`INSERT INTO notes (title, body, author_id, shared) VALUES (?, ?, ?, ?)`,
		title, body, authorID, sh,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, authorID)
}

// GetByID returns the note with like records attached; IsLiked reflects the
// given viewer. Returns nil when the note does not exist.
func (s *NoteStore) GetByID(id, viewerID int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if err := s.attachLikes(n, viewerID); err != nil {
		return nil, err
	}
	return n, nil
}

// ListVisible returns the user's own notes plus the partner's shared notes,
// newest update first. search filters by title, body, or both.
func (s *NoteStore) ListVisible(user *model.User, search, searchType string) ([]model.Note, error) {
	query := `SELECT ` + noteCols + ` FROM notes WHERE author_id = ?`
	args := []any{user.ID}
	if user.PartnerID != nil {
		query = `SELECT ` + noteCols + ` FROM notes WHERE (author_id = ? OR (author_id = ? AND shared = 1))`
		args = []any{user.ID, *user.PartnerID}
	}

	if search != "" {
		pattern := "%" + search + "%"
		switch searchType {
		case "title":
			query += ` AND title LIKE ?`
			args = append(args, pattern)
		case "body":
			query += ` AND body LIKE ?`
			args = append(args, pattern)
		default:
			query += ` AND (title LIKE ? OR body LIKE ?)`
			args = append(args, pattern, pattern)
		}
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range notes {
		if err := s.attachLikes(&notes[i], user.ID); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// StageEdit stores the actor's draft as the pending proposal. Real content
// stays untouched until the counterpart approves.
func (s *NoteStore) StageEdit(id, actorID int64, title, body string) error {
	_, err := s.db.Exec(
		`UPDATE notes SET edit_requested_by = ?, pending_title = ?, pending_body = ?, updated_at = datetime('now') WHERE id = ?`,
		actorID, title, body, id,
	)
	if err != nil {
		return fmt.Errorf("stage note edit: %w", err)
	}
	return nil
}

// ApplyEdit commits content as the real title/body and clears all pending
// edit markers.
func (s *NoteStore) ApplyEdit(id int64, title, body string) error {
	_, err := s.db.Exec(
		`UPDATE notes SET title = ?, body = ?, edit_requested_by = NULL, pending_title = NULL, pending_body = NULL, updated_at = datetime('now') WHERE id = ?`,
		title, body, id,
	)
	if err != nil {
		return fmt.Errorf("apply note edit: %w", err)
	}
	return nil
}

// CancelEdit clears the pending edit without touching content.
func (s *NoteStore) CancelEdit(id int64) error {
	_, err := s.db.Exec(
		`UPDATE notes SET edit_requested_by = NULL, pending_title = NULL, pending_body = NULL, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("cancel note edit: %w", err)
	}
	return nil
}

func (s *NoteStore) StageDeletion(id, actorID int64) error {
	_, err := s.db.Exec(
		`UPDATE notes SET deletion_requested_by = ?, updated_at = datetime('now') WHERE id = ?`,
		actorID, id,
	)
	if err != nil {
		return fmt.Errorf("stage note deletion: %w", err)
	}
	return nil
}

// Delete removes the note; like rows go with it via FK cascade.
func (s *NoteStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// ToggleLike likes the note for the user, or removes an existing like.
// Returns whether the note is liked after the call.
func (s *NoteStore) ToggleLike(noteID, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM note_likes WHERE note_id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return false, fmt.Errorf("unlike note: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	if _, err := s.db.Exec(`INSERT INTO note_likes (note_id, user_id) VALUES (?, ?)`, noteID, userID); err != nil {
		return false, fmt.Errorf("like note: %w", err)
	}
	return true, nil
}

// Likes returns the like records for a note, newest first.
func (s *NoteStore) Likes(noteID int64) ([]model.NoteLike, error) {
	rows, err := s.db.Query(
		`SELECT id, note_id, user_id, created_at FROM note_likes WHERE note_id = ? ORDER BY created_at DESC`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list note likes: %w", err)
	}
	defer rows.Close()

	var likes []model.NoteLike
	for rows.Next() {
		var l model.NoteLike
		if err := rows.Scan(&l.ID, &l.NoteID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note like: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (s *NoteStore) attachLikes(n *model.Note, viewerID int64) error {
	likes, err := s.Likes(n.ID)
	if err != nil {
		return err
	}
	n.Likes = likes
	n.LikeCount = len(likes)
	n.IsLiked = false
	for _, l := range likes {
		if l.UserID == viewerID {
			n.IsLiked = true
			break
		}
	}
	return nil
}
