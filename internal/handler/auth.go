package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

type AuthHandler struct {
	users     *store.UserStore
	tokens    *auth.TokenManager
	prefs     *notify.PrefCache
	scheduler *notify.ReminderScheduler
	logger    *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tm *auth.TokenManager, prefs *notify.PrefCache, scheduler *notify.ReminderScheduler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, tokens: tm, prefs: prefs, scheduler: scheduler, logger: logger}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Password != req.Password2 {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	if existing, err := h.users.GetByUsername(req.Username); err != nil {
		h.logger.Error("check username", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "username is taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.users.Create(req.Username, req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.issueTokens(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		h.logger.Error("look up user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	hash, err := h.users.PasswordHash(user.ID)
	if err != nil {
		h.logger.Error("load password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	h.issueTokens(w, http.StatusOK, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/auth/refresh. A valid refresh token yields a
// brand new access/refresh pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID, err := h.tokens.Verify(req.RefreshToken, auth.TokenRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.issueTokens(w, http.StatusOK, user)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	resp := map[string]any{"user": user}
	if user.PartnerID != nil {
		partner, err := h.users.GetByID(*user.PartnerID)
		if err == nil && partner != nil {
			resp["partner"] = partner.Summary()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. Tokens are stateless; the server
// side just drops the preference mirror entry and disarms the reminder.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	h.prefs.Drop(user.ID)
	h.scheduler.Cancel(user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type connectRequest struct {
	PartnerCode string `json:"partner_code"`
}

// ConnectPartner handles POST /api/auth/partner/connect
func (h *AuthHandler) ConnectPartner(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if user.HasPartner() {
		writeError(w, http.StatusConflict, "you already have a partner")
		return
	}

	code := strings.TrimSpace(req.PartnerCode)
	partner, err := h.users.GetByPartnerCode(code)
	if err != nil {
		h.logger.Error("look up partner code", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to connect partner")
		return
	}
	if partner == nil {
		writeError(w, http.StatusNotFound, "no user with that partner code")
		return
	}
	if partner.ID == user.ID {
		writeError(w, http.StatusBadRequest, "you cannot partner with yourself")
		return
	}
	if partner.HasPartner() {
		writeError(w, http.StatusConflict, "that user already has a partner")
		return
	}

	if err := h.users.LinkPartners(user.ID, partner.ID); err != nil {
		h.logger.Error("link partners", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to connect partner")
		return
	}

	h.logger.Info("partners linked", "user_id", user.ID, "partner_id", partner.ID)
	writeJSON(w, http.StatusOK, map[string]any{"partner": partner.Summary()})
}

// DisconnectPartner handles POST /api/auth/partner/disconnect
func (h *AuthHandler) DisconnectPartner(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	if !user.HasPartner() {
		writeError(w, http.StatusBadRequest, "no partner connected")
		return
	}

	partnerID := *user.PartnerID
	if err := h.users.UnlinkPartners(user.ID, partnerID); err != nil {
		h.logger.Error("unlink partners", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disconnect partner")
		return
	}

	h.prefs.Drop(user.ID)
	h.prefs.Drop(partnerID)

	h.logger.Info("partners unlinked", "user_id", user.ID, "partner_id", partnerID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, status int, user *model.User) {
	access, refresh, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, status, tokenResponse{AccessToken: access, RefreshToken: refresh, User: user})
}
