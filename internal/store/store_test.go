package store

import (
	"database/sql"
	"testing"

	"github.com/tejashvi-kumawat/love-note/internal/database"
	"github.com/tejashvi-kumawat/love-note/internal/model"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createCouple(t *testing.T, users *UserStore) (*model.User, *model.User) {
	t.Helper()
	a, err := users.Create("mia", "mia@example.com", "hash-a")
	if err != nil {
		t.Fatalf("create mia: %v", err)
	}
	b, err := users.Create("leo", "leo@example.com", "hash-b")
	if err != nil {
		t.Fatalf("create leo: %v", err)
	}
	if err := users.LinkPartners(a.ID, b.ID); err != nil {
		t.Fatalf("link partners: %v", err)
	}
	a, err = users.GetByID(a.ID)
	if err != nil {
		t.Fatalf("reload mia: %v", err)
	}
	b, err = users.GetByID(b.ID)
	if err != nil {
		t.Fatalf("reload leo: %v", err)
	}
	return a, b
}
