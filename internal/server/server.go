package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tejashvi-kumawat/love-note/internal/auth"
	"github.com/tejashvi-kumawat/love-note/internal/handler"
	"github.com/tejashvi-kumawat/love-note/internal/middleware"
	"github.com/tejashvi-kumawat/love-note/internal/notify"
	"github.com/tejashvi-kumawat/love-note/internal/push"
	"github.com/tejashvi-kumawat/love-note/internal/store"
	ws "github.com/tejashvi-kumawat/love-note/internal/websocket"
)

// Config carries the optional VAPID key pair. Push stays disabled when the
// keys are empty; notifications then reach connected tabs only.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db     *sql.DB
	hub    *ws.Hub
	tokens *auth.TokenManager

	userStore    *store.UserStore
	profileStore *store.ProfileStore
	pushStore    *store.PushStore

	authH    *handler.AuthHandler
	noteH    *handler.NoteHandler
	journalH *handler.JournalHandler
	profileH *handler.ProfileHandler
	pushH    *handler.PushHandler

	dispatcher  *notify.Dispatcher
	scheduler   *notify.ReminderScheduler
	watcher     *notify.Watcher
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, tokens *auth.TokenManager, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	noteStore := store.NewNoteStore(db)
	journalStore := store.NewJournalStore(db)
	profileStore := store.NewProfileStore(db)
	pushStore := store.NewPushStore(db)

	var pushSvc *push.Service
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	} else {
		logger.Warn("VAPID keys not configured, web push disabled")
	}

	prefCache := notify.NewPrefCache()
	notifyLogger := logger.With("component", "notify")

	var background notify.BackgroundChannel
	if pushSvc != nil {
		background = pushSvc
	}
	dispatcher := notify.NewDispatcher(prefCache, profileStore, pushStore, background, hub, notifyLogger)
	scheduler := notify.NewReminderScheduler(dispatcher, notifyLogger)
	watcher := notify.NewWatcher(userStore, noteStore, journalStore, dispatcher, notifyLogger)

	// A reconnecting client gets its reminder timer recomputed; the armed
	// delay can drift across a device sleep.
	hub.OnConnect(scheduler.Rearm)

	return &Server{
		db:           db,
		hub:          hub,
		tokens:       tokens,
		userStore:    userStore,
		profileStore: profileStore,
		pushStore:    pushStore,
		authH:        handler.NewAuthHandler(userStore, tokens, prefCache, scheduler, logger.With("component", "auth")),
		noteH:        handler.NewNoteHandler(noteStore, userStore, dispatcher, logger.With("component", "note")),
		journalH:     handler.NewJournalHandler(journalStore, userStore, dispatcher, logger.With("component", "journal")),
		profileH:     handler.NewProfileHandler(profileStore, userStore, prefCache, scheduler, logger.With("component", "profile")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, dispatcher, logger.With("component", "push")),
		dispatcher:   dispatcher,
		scheduler:    scheduler,
		watcher:      watcher,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// Start launches the background workers: the content watcher and a reminder
// timer for every user who has the daily reminder enabled.
func (s *Server) Start(ctx context.Context) {
	s.watcher.Start(ctx)

	ids, err := s.profileStore.ListReminderEnabled()
	if err != nil {
		s.logger.Error("bootstrap reminders", "error", err)
		return
	}
	for _, id := range ids {
		s.scheduler.Rearm(id)
	}
	s.logger.Info("reminders armed", "count", len(ids))
}

// Stop halts the background workers.
func (s *Server) Stop() {
	s.watcher.Stop()
	s.scheduler.Stop()
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushStore returns the push store for cleanup tasks.
func (s *Server) PushStore() *store.PushStore {
	return s.pushStore
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/refresh", s.rateLimitedHandler(s.authH.Refresh))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Account
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("POST /api/auth/partner/connect", s.authH.ConnectPartner)
	mux.HandleFunc("POST /api/auth/partner/disconnect", s.authH.DisconnectPartner)

	// Notes
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("POST /api/notes", s.noteH.Create)
	mux.HandleFunc("GET /api/notes/{id}", s.noteH.Get)
	mux.HandleFunc("PUT /api/notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", s.noteH.Delete)
	mux.HandleFunc("POST /api/notes/{id}/cancel-edit", s.noteH.CancelEdit)
	mux.HandleFunc("POST /api/notes/{id}/like", s.noteH.ToggleLike)

	// Journal
	mux.HandleFunc("GET /api/journal", s.journalH.List)
	mux.HandleFunc("POST /api/journal", s.journalH.Create)
	mux.HandleFunc("GET /api/journal/{id}", s.journalH.Get)
	mux.HandleFunc("PUT /api/journal/{id}", s.journalH.Update)
	mux.HandleFunc("DELETE /api/journal/{id}", s.journalH.Delete)
	mux.HandleFunc("POST /api/journal/{id}/cancel-edit", s.journalH.CancelEdit)

	// Profile
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)
	mux.HandleFunc("GET /api/profile/partner", s.profileH.Partner)

	// Push subscriptions
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/push/test", s.pushH.Test)
}
