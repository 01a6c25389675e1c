package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

type ProfileHandler struct {
	profiles  *store.ProfileStore
	users     *store.UserStore
	prefs     *notify.PrefCache
	scheduler *notify.ReminderScheduler
	logger    *slog.Logger
}

func NewProfileHandler(ps *store.ProfileStore, us *store.UserStore, prefs *notify.PrefCache, scheduler *notify.ReminderScheduler, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, users: us, prefs: prefs, scheduler: scheduler, logger: logger}
}

var validPermissions = map[string]bool{
	model.PermissionUnsupported: true,
	model.PermissionDefault:     true,
	model.PermissionDenied:      true,
	model.PermissionGranted:     true,
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	profile, err := h.profiles.GetOrCreate(user.ID)
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/profile. Saving is the only path that writes the
// in-memory preference mirror, and it re-arms or disarms the journal
// reminder to match the new preferences.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	current, err := h.profiles.GetOrCreate(user.ID)
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	// Decode over the current values so omitted fields keep their state.
	updated := *current
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	updated.UserID = user.ID

	if !validPermissions[updated.Prefs.Permission] {
		writeError(w, http.StatusBadRequest, "invalid notification permission state")
		return
	}
	if updated.Prefs.ReminderTime != "" {
		if _, _, err := notify.ParseTimeOfDay(updated.Prefs.ReminderTime); err != nil {
			writeError(w, http.StatusBadRequest, "reminder time must be HH:MM")
			return
		}
	}

	saved, err := h.profiles.Update(&updated)
	if err != nil {
		h.logger.Error("save profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	h.prefs.Put(user.ID, saved.Prefs)
	if saved.Prefs.Enabled && saved.Prefs.JournalReminder {
		h.scheduler.Rearm(user.ID)
	} else {
		h.scheduler.Cancel(user.ID)
	}

	writeJSON(w, http.StatusOK, saved)
}

// Partner handles GET /api/profile/partner: the linked partner's profile
// restricted to the fields they chose to share.
func (h *ProfileHandler) Partner(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	if user.PartnerID == nil {
		writeError(w, http.StatusNotFound, "no partner connected")
		return
	}

	profile, err := h.profiles.GetOrCreate(*user.PartnerID)
	if err != nil {
		h.logger.Error("load partner profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load partner profile")
		return
	}

	partner, err := h.users.GetByID(*user.PartnerID)
	if err != nil || partner == nil {
		h.logger.Error("load partner", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load partner profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"partner": partner.Summary(),
		"profile": profile.PartnerView(),
	})
}
