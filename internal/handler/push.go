package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/model"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/push"
	"github.com/tejashvi-kumawat/love-note/internal/store"
)

// PushHandler manages Web Push subscriptions. service is nil when VAPID
// keys are not configured; subscription endpoints then answer 503 and the
// dispatcher falls back to the WebSocket channel.
type PushHandler struct {
	pushStore  *store.PushStore
	service    *push.Service
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, d *notify.Dispatcher, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, dispatcher: d, logger: logger}
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe. Re-subscribing an existing
// endpoint updates its keys in place.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	user := auth.UserFrom(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(user.ID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List handles GET /api/push/subscriptions
func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	subs, err := h.pushStore.ListByUser(user.ID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	sub, err := h.pushStore.GetByID(id, user.ID)
	if err != nil {
		h.logger.Error("load push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.pushStore.DeleteSubscription(id, user.ID); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// Test handles POST /api/push/test: sends the caller a test notification
// through the normal dispatch path so it honors their preferences.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	delivered := h.dispatcher.Dispatch(notify.Event{
		Kind:   model.NotifNoteCreated,
		UserID: user.ID,
		Title:  "Test notification 💕",
		Body:   "Notifications are working!",
	})
	writeJSON(w, http.StatusOK, map[string]any{"delivered": delivered})
}
