package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var partnerID sql.NullInt64
	err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.PartnerCode, &partnerID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if partnerID.Valid {
		u.PartnerID = &partnerID.Int64
	}
	return &u, nil
}

const userCols = `id, username, email, partner_code, partner_id, created_at, updated_at`

// Create inserts a user with a fresh crypto-random partner code.
func (s *UserStore) Create(username, email, passwordHash string) (*model.User, error) {
	codeBytes := make([]byte, 6)
	if _, err := rand.Read(codeBytes); err != nil {
		return nil, fmt.Errorf("generate partner code: %w", err)
	}
	code := hex.EncodeToString(codeBytes)

	result, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash, partner_code) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, code,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByPartnerCode(code string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE partner_code = ?`, code)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by partner code: %w", err)
	}
	return u, nil
}

// PasswordHash returns the stored bcrypt hash for login verification.
func (s *UserStore) PasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

// LinkPartners sets both sides of the partnership in one transaction.
func (s *UserStore) LinkPartners(aID, bID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin link partners: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE users SET partner_id = ?, updated_at = datetime('now') WHERE id = ?`, bID, aID); err != nil {
		return fmt.Errorf("link partner: %w", err)
	}
	if _, err := tx.Exec(`UPDATE users SET partner_id = ?, updated_at = datetime('now') WHERE id = ?`, aID, bID); err != nil {
		return fmt.Errorf("link partner: %w", err)
	}
	return tx.Commit()
}

// UnlinkPartners clears both sides of the partnership; visibility into the
// other's shared items ends immediately.
func (s *UserStore) UnlinkPartners(aID, bID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin unlink partners: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE users SET partner_id = NULL, updated_at = datetime('now') WHERE id IN (?, ?)`, aID, bID); err != nil {
		return fmt.Errorf("unlink partners: %w", err)
	}
	return tx.Commit()
}

// ListPartnered returns all users currently linked to a partner; the
// content watcher polls listings for exactly this set.
func (s *UserStore) ListPartnered() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users WHERE partner_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list partnered users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
