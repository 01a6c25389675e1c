package model

import "time"

type JournalEntry struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Body                string    `json:"body"`
	AuthorID            int64     `json:"author_id"`
	EntryDate           string    `json:"date"`
	Mood                string    `json:"mood"`
	Shared              bool      `json:"shared"`
	EditRequestedBy     *int64    `json:"edit_requested_by"`
	DeletionRequestedBy *int64    `json:"deletion_requested_by"`
	PendingTitle        *string   `json:"pending_title"`
	PendingBody         *string   `json:"pending_body"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
