package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/consent"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

type JournalHandler struct {
	journal    *store.JournalStore
	users      *store.UserStore
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

func NewJournalHandler(js *store.JournalStore, us *store.UserStore, d *notify.Dispatcher, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: js, users: us, dispatcher: d, logger: logger}
}

var entryDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type journalRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Date   string `json:"date"`
	Mood   string `json:"mood"`
	Shared *bool  `json:"shared"`
}

// List handles GET /api/journal and GET /api/journal?date=YYYY-MM-DD
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var (
		entries []model.JournalEntry
		err     error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		if !entryDatePattern.MatchString(date) {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		entries, err = h.journal.ListVisibleByDate(user, date)
	} else {
		entries, err = h.journal.ListVisible(user)
	}
	if err != nil {
		h.logger.Error("list journal entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list journal entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Get handles GET /api/journal/{id}
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	entry, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Create handles POST /api/journal. One entry per author per day.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !entryDatePattern.MatchString(req.Date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if existing, err := h.journal.GetByAuthorAndDate(user.ID, req.Date); err != nil {
		h.logger.Error("check journal date", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create journal entry")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "you already have an entry for that day")
		return
	}

	shared := true
	if req.Shared != nil {
		shared = *req.Shared
	}

	entry, err := h.journal.Create(user.ID, req.Title, req.Body, req.Date, req.Mood, shared)
	if err != nil {
		h.logger.Error("create journal entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create journal entry")
		return
	}

	if shared && user.PartnerID != nil {
		h.dispatcher.Dispatch(notify.Event{
			Kind:   model.NotifJournalCreated,
			UserID: *user.PartnerID,
			Title:  "New journal entry 📓",
			Body:   user.Username + " shared a journal entry",
			RefID:  fmt.Sprintf("journal-%d", entry.ID),
		})
	}

	writeJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /api/journal/{id} under the same approval workflow as
// notes.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	entry, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Mood == "" {
		req.Mood = entry.Mood
	}

	author, st, err := h.consentState(entry)
	if err != nil {
		h.logger.Error("load entry author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update journal entry")
		return
	}

	verdict, err := consent.DecideEdit(st, user.ID)
	switch {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can edit this entry")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "a deletion is pending on this entry")
		return
	case err != nil:
		h.logger.Error("decide edit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update journal entry")
		return
	}

	switch verdict {
	case consent.EditStaged, consent.EditRestaged:
		if err := h.journal.StageEdit(entry.ID, user.ID, req.Title, req.Body); err != nil {
			h.logger.Error("stage entry edit", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update journal entry")
			return
		}
		if verdict == consent.EditStaged {
			h.notifyOther(user, author, model.NotifJournalUpdated,
				"Edit proposed ✏️", user.Username+" suggested a change to a journal entry")
		}
		h.respondWith(w, entry.ID, "edit_requested")

	case consent.EditApplied:
		if err := h.journal.ApplyEdit(entry.ID, req.Title, req.Body, req.Mood); err != nil {
			h.logger.Error("apply entry edit", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update journal entry")
			return
		}
		h.notifyOther(user, author, model.NotifJournalUpdated,
			"Journal entry updated ✏️", user.Username+" updated a journal entry")
		h.respondWith(w, entry.ID, "applied")
	}
}

// CancelEdit handles POST /api/journal/{id}/cancel-edit
func (h *JournalHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	entry, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	_, st, err := h.consentState(entry)
	if err != nil {
		h.logger.Error("load entry author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel edit")
		return
	}

	switch err := consent.DecideCancelEdit(st, user.ID); {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can act on this entry")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "no pending edit of yours to cancel")
		return
	}

	if err := h.journal.CancelEdit(entry.ID); err != nil {
		h.logger.Error("cancel entry edit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel edit")
		return
	}
	h.respondWith(w, entry.ID, "edit_cancelled")
}

// Delete handles DELETE /api/journal/{id}
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	entry, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	author, st, err := h.consentState(entry)
	if err != nil {
		h.logger.Error("load entry author", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete journal entry")
		return
	}

	verdict, err := consent.DecideDelete(st, user.ID)
	switch {
	case errors.Is(err, consent.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "only the author or their partner can delete this entry")
		return
	case errors.Is(err, consent.ErrConflict):
		writeError(w, http.StatusConflict, "an edit is pending on this entry; cancel it first")
		return
	case err != nil:
		h.logger.Error("decide delete", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete journal entry")
		return
	}

	switch verdict {
	case consent.DeleteStaged:
		if err := h.journal.StageDeletion(entry.ID, user.ID); err != nil {
			h.logger.Error("stage entry deletion", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete journal entry")
			return
		}
		h.notifyOther(user, author, model.NotifJournalDeletionRequested,
			"Deletion requested 🗑️", user.Username+" wants to delete a journal entry")
		h.respondWith(w, entry.ID, "deletion_requested")

	case consent.DeleteConfirmedPending:
		h.respondWith(w, entry.ID, "deletion_pending")

	case consent.DeleteApproved:
		if err := h.journal.Delete(entry.ID); err != nil {
			h.logger.Error("delete journal entry", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete journal entry")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (h *JournalHandler) loadVisible(w http.ResponseWriter, r *http.Request, user *model.User) (*model.JournalEntry, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return nil, false
	}

	entry, err := h.journal.GetByID(id)
	if err != nil {
		h.logger.Error("load journal entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load journal entry")
		return nil, false
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return nil, false
	}

	if entry.AuthorID != user.ID {
		partnered := user.PartnerID != nil && *user.PartnerID == entry.AuthorID
		if !partnered || !entry.Shared {
			writeError(w, http.StatusNotFound, "journal entry not found")
			return nil, false
		}
	}
	return entry, true
}

func (h *JournalHandler) consentState(entry *model.JournalEntry) (*model.User, consent.State, error) {
	author, err := h.users.GetByID(entry.AuthorID)
	if err != nil {
		return nil, consent.State{}, err
	}
	if author == nil {
		return nil, consent.State{}, fmt.Errorf("journal entry %d has no author", entry.ID)
	}
	return author, consent.State{
		AuthorID:            entry.AuthorID,
		PartnerID:           author.PartnerID,
		EditRequestedBy:     entry.EditRequestedBy,
		DeletionRequestedBy: entry.DeletionRequestedBy,
	}, nil
}

func (h *JournalHandler) notifyOther(actor, author *model.User, kind, title, body string) {
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

func (h *JournalHandler) respondWith(w http.ResponseWriter, entryID int64, status string) {
	entry, err := h.journal.GetByID(entryID)
	if err != nil || entry == nil {
		h.logger.Error("reload journal entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load journal entry")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "entry": entry})
}
