package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/consent"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

type NoteHandler struct {
	notes      *store.NoteStore
	users      *store.UserStore
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, us *store.UserStore, d *notify.Dispatcher, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: ns, users: us, dispatcher: d, logger: logger}
}

type noteRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Shared *bool  `json:"shared"`
}

// List handles GET /api/notes?search=&type=
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	searchType := r.URL.Query().Get("type")

	notes, err := h.notes.ListVisible(user, search, searchType)
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// Get handles GET /api/notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	note, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Create handles POST /api/notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	shared := true
	if req.Shared != nil {
		shared = *req.Shared
	}

	note, err := h.notes.Create(user.ID, req.Title, req.Body, shared)
	if err != nil {
		h.logger.Error("create note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	if shared && user.PartnerID != nil {
		h.dispatcher.Dispatch(notify.Event{
			Kind:   model.NotifNoteCreated,
			UserID: *user.PartnerID,
			Title:  "New love note 💌",
			Body:   user.Username + " left you a note",
			RefID:  fmt.Sprintf("note-%d", note.ID),
		})
	}

	writeJSON(w, http.StatusCreated, note)
}

// Update handles PUT /api/notes/{id}. On a shared note the save either
// stages a pending edit or, when the partner already has one pending,
// applies the caller's content as the approval.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	note, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	author, st, err := h.consentState(note)
	if err != nil {
		h.logger.Error("load note author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}

	verdict, err := consent.DecideEdit(st, user.ID)
	switch {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can edit this note")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "a deletion is pending on this note")
		return
	case err != nil:
		h.logger.Error("decide edit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}

	switch verdict {
	case consent.EditStaged, consent.EditRestaged:
		if err := h.notes.StageEdit(note.ID, user.ID, req.Title, req.Body); err != nil {
			h.logger.Error("stage note edit", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update note")
			return
		}
		if verdict == consent.EditStaged {
			h.notifyOther(user, author, model.NotifNoteUpdated,
				"Edit proposed ✏️", user.Username+" suggested a change to a note")
		}
		h.respondWith(w, note.ID, user.ID, "edit_requested")

	case consent.EditApplied:
		if err := h.notes.ApplyEdit(note.ID, req.Title, req.Body); err != nil {
			h.logger.Error("apply note edit", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update note")
			return
		}
		h.notifyOther(user, author, model.NotifNoteUpdated,
			"Note updated ✏️", user.Username+" updated a note")
		h.respondWith(w, note.ID, user.ID, "applied")
	}
}

// CancelEdit handles POST /api/notes/{id}/cancel-edit
func (h *NoteHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	note, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	_, st, err := h.consentState(note)
	if err != nil {
		h.logger.Error("load note author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel edit")
		return
	}

	switch err := consent.DecideCancelEdit(st, user.ID); {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can act on this note")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "no pending edit of yours to cancel")
		return
	}

	if err := h.notes.CancelEdit(note.ID); err != nil {
		h.logger.Error("cancel note edit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel edit")
		return
	}
	h.respondWith(w, note.ID, user.ID, "edit_cancelled")
}

// Delete handles DELETE /api/notes/{id}. The first request stages the
// deletion; the partner's request approves it and removes the note.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	note, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	author, st, err := h.consentState(note)
	if err != nil {
		h.logger.Error("load note author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}

	verdict, err := consent.DecideDelete(st, user.ID)
	switch {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can delete this note")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "an edit is pending on this note; cancel it first")
		return
	case err != nil:
		h.logger.Error("decide delete", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}

	switch verdict {
	case consent.DeleteStaged:
		if err := h.notes.StageDeletion(note.ID, user.ID); err != nil {
			h.logger.Error("stage note deletion", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete note")
			return
		}
		h.notifyOther(user, author, model.NotifNoteDeletionRequested,
			"Deletion requested 🗑️", user.Username+" wants to delete a note")
		h.respondWith(w, note.ID, user.ID, "deletion_requested")

	case consent.DeleteConfirmedPending:
		h.respondWith(w, note.ID, user.ID, "deletion_pending")

	case consent.DeleteApproved:
		if err := h.notes.Delete(note.ID); err != nil {
			h.logger.Error("delete note", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete note")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// ToggleLike handles POST /api/notes/{id}/like
func (h *NoteHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	note, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	liked, err := h.notes.ToggleLike(note.ID, user.ID)
	if err != nil {
		h.logger.Error("toggle like", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to like note")
		return
	}

	if liked && note.AuthorID != user.ID {
		h.dispatcher.Dispatch(notify.Event{
			Kind:   model.NotifNoteLiked,
			UserID: note.AuthorID,
			Title:  "Your note was liked ❤️",
			Body:   user.Username + " liked your note",
		})
	}

	likes, err := h.notes.Likes(note.ID)
	if err != nil {
		h.logger.Error("list likes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to like note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "like_count": len(likes)})
}

// loadVisible fetches the note and enforces visibility: the author always,
// the author's partner only when the note is shared.
func (h *NoteHandler) loadVisible(w http.ResponseWriter, r *http.Request, user *model.User) (*model.Note, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return nil, false
	}

	note, err := h.notes.GetByID(id, user.ID)
	if err != nil {
		h.logger.Error("load note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load note")
		return nil, false
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return nil, false
	}

	if note.AuthorID != user.ID {
		partnered := user.PartnerID != nil && *user.PartnerID == note.AuthorID
		if !partnered || !note.Shared {
			writeError(w, http.StatusNotFound, "note not found")
			return nil, false
		}
	}
	return note, true
}

func (h *NoteHandler) consentState(note *model.Note) (*model.User, consent.State, error) {
	author, err := h.users.GetByID(note.AuthorID)
	if err != nil {
		return nil, consent.State{}, err
	}
	if author == nil {
		return nil, consent.State{}, fmt.Errorf("note %d has no author", note.ID)
	}
	return author, consent.State{
		AuthorID:            note.AuthorID,
		PartnerID:           author.PartnerID,
		EditRequestedBy:     note.EditRequestedBy,
		DeletionRequestedBy: note.DeletionRequestedBy,
	}, nil
}

// notifyOther addresses whichever of the couple did not act.
func (h *NoteHandler) notifyOther(actor, author *model.User, kind, title, body string) {
	var recipient int64
	if actor.ID == author.ID {
		if author.PartnerID == nil {
			return
		}
		recipient = *author.PartnerID
	} else {
		recipient = author.ID
	}
	h.dispatcher.Dispatch(notify.Event{Kind: kind, UserID: recipient, Title: title, Body: body})
}

func (h *NoteHandler) respondWith(w http.ResponseWriter, noteID, viewerID int64, status string) {
	note, err := h.notes.GetByID(noteID, viewerID)
	if err != nil || note == nil {
		h.logger.Error("reload note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "note": note})
}
