package model

import "time"

type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PartnerCode string    `json:"partner_code"`
	PartnerID   *int64    `json:"partner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPartner reports whether the user is currently linked to a partner.
func (u *User) HasPartner() bool {
	return u.PartnerID != nil
}

// UserSummary is the reduced view of a user embedded in item responses.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}
