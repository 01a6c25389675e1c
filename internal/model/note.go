package model

import "time"

type Note struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Body                string     `json:"body"`
	AuthorID            int64      `json:"author_id"`
	Shared              bool       `json:"shared"`
	EditRequestedBy     *int64     `json:"edit_requested_by"`
	DeletionRequestedBy *int64     `json:"deletion_requested_by"`
	PendingTitle        *string    `json:"pending_title"`
	PendingBody         *string    `json:"pending_body"`
	Likes               []NoteLike `json:"likes"`
	LikeCount           int        `json:"like_count"`
	IsLiked             bool       `json:"is_liked"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type NoteLike struct {
	ID        int64     `json:"id"`
	NoteID    int64     `json:"note_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
