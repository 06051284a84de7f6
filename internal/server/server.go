package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hogarfin/hogarfin/internal/backup"
	"github.com/hogarfin/hogarfin/internal/handler"
	"github.com/hogarfin/hogarfin/internal/middleware"
	"github.com/hogarfin/hogarfin/internal/push"
	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
	ws "github.com/hogarfin/hogarfin/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	memberH       *handler.MemberHandler
	transactionH  *handler.TransactionHandler
	rateH         *handler.RateHandler
	balanceH      *handler.BalanceHandler
	backupH       *handler.BackupHandler
	settingsH     *handler.SettingsHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	transactionStore := store.NewTransactionStore(db)
	rateStore := store.NewRateStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)
	pushStore := store.NewPushStore(db)

	rateSvc := rates.NewService(rateStore)

	backupLogger := logger.With("component", "backup")
	backupMgr := backup.NewManager(backupCfg, db, backupStore, settingsStore, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: ws.EntityBackup,
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, backupLogger)

	// Push notifications only run with a configured VAPID key pair.
	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushStore, rateStore, settingsStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, pushLogger)
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(householdStore, sessionStore, logger.With("component", "auth")),
		memberH:       handler.NewMemberHandler(householdStore, hub, logger.With("component", "member")),
		transactionH:  handler.NewTransactionHandler(transactionStore, householdStore, rateSvc, hub, logger.With("component", "transaction")),
		rateH:         handler.NewRateHandler(rateSvc, rateStore, hub, logger.With("component", "rate")),
		balanceH:      handler.NewBalanceHandler(transactionStore, rateSvc, logger.With("component", "balance")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, settingsStore, backupLogger),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the rate reminder scheduler, nil without VAPID keys.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind the session cookie
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.ClientIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session routes
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/session", s.authH.Session)

	// Household member routes
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("PUT /api/members", s.memberH.Replace)
	mux.HandleFunc("PUT /api/household/pin", s.memberH.UpdatePIN)

	// Transaction routes
	mux.HandleFunc("GET /api/transactions", s.transactionH.List)
	mux.HandleFunc("POST /api/transactions", s.transactionH.Create)
	mux.HandleFunc("PUT /api/transactions/{id}", s.transactionH.Update)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.transactionH.Delete)

	// Exchange rate routes
	mux.HandleFunc("GET /api/rates/latest", s.rateH.Latest)
	mux.HandleFunc("GET /api/rates/{date}", s.rateH.ForDate)
	mux.HandleFunc("PUT /api/rates", s.rateH.Save)
	mux.HandleFunc("POST /api/rates/fetch", s.rateH.Fetch)

	// Balance routes
	mux.HandleFunc("GET /api/balances", s.balanceH.Get)

	// Backup routes
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)

	// Settings routes
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("GET /api/push/preferences", s.pushH.GetPreferences)
		mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub))
}
