package store

import "testing"

func TestCreateUserGeneratesPartnerCode(t *testing.T) {
	users := NewUserStore(setupDB(t))

	a, err := users.Create("mia", "mia@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PartnerCode == "" {
		t.Error("no partner code generated")
	}
	if a.PartnerID != nil {
		t.Error("new user already has a partner")
	}

	b, err := users.Create("leo", "leo@example.com", "hash")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if a.PartnerCode == b.PartnerCode {
		t.Error("partner codes are not unique")
	}
}

func TestGetByPartnerCode(t *testing.T) {
	users := NewUserStore(setupDB(t))
	a, err := users.Create("mia", "mia@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := users.GetByPartnerCode(a.PartnerCode)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if found == nil || found.ID != a.ID {
		t.Errorf("got %+v, want user %d", found, a.ID)
	}

	missing, err := users.GetByPartnerCode("nope")
	if err != nil {
		t.Fatalf("get by unknown code: %v", err)
	}
	if missing != nil {
		t.Errorf("unknown code returned %+v", missing)
	}
}

func TestLinkAndUnlinkPartners(t *testing.T) {
	users := NewUserStore(setupDB(t))
	a, b := createCouple(t, users)

	if a.PartnerID == nil || *a.PartnerID != b.ID {
		t.Errorf("mia's partner = %v, want %d", a.PartnerID, b.ID)
	}
	if b.PartnerID == nil || *b.PartnerID != a.ID {
		t.Errorf("leo's partner = %v, want %d", b.PartnerID, a.ID)
	}

	if err := users.UnlinkPartners(a.ID, b.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	a, _ = users.GetByID(a.ID)
	b, _ = users.GetByID(b.ID)
	if a.PartnerID != nil || b.PartnerID != nil {
		t.Error("partner ids survive unlink")
	}
}

func TestListPartnered(t *testing.T) {
	users := NewUserStore(setupDB(t))
	a, b := createCouple(t, users)
	if _, err := users.Create("solo", "solo@example.com", "hash"); err != nil {
		t.Fatalf("create solo: %v", err)
	}

	listed, err := users.ListPartnered()
	if err != nil {
		t.Fatalf("list partnered: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d users, want 2", len(listed))
	}
	ids := map[int64]bool{listed[0].ID: true, listed[1].ID: true}
	if !ids[a.ID] || !ids[b.ID] {
		t.Errorf("listed wrong users: %v", ids)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	users := NewUserStore(setupDB(t))
	a, err := users.Create("mia", "mia@example.com", "the-hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	hash, err := users.PasswordHash(a.ID)
	if err != nil {
		t.Fatalf("password hash: %v", err)
	}
	if hash != "the-hash" {
		t.Errorf("hash = %q, want the-hash", hash)
	}
}
