package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trainsync/internal/notify"
	"github.com/claude/trainsync/internal/storage"
	"github.com/claude/trainsync/internal/store"
	"github.com/claude/trainsync/internal/strava"
	"github.com/claude/trainsync/internal/syncer"
)

// SyncRunner triggers and reports cloud reconciliation. *syncer.Reconciler satisfies it.
type SyncRunner interface {
	Reconcile(ctx context.Context) (syncer.Outcome, error)
	Status(ctx context.Context) syncer.Status
}

// StravaAuth is the OAuth side of the Strava connection. *strava.Auth satisfies it.
type StravaAuth interface {
	AuthCodeURL() (string, error)
	Exchange(ctx context.Context, state, code string) error
	Connected(ctx context.Context) bool
	Disconnect(ctx context.Context) error
}

// StravaImporter runs one activity import. *strava.Importer satisfies it.
type StravaImporter interface {
	Run(ctx context.Context, dryRun bool) (strava.Result, error)
	LastImport(ctx context.Context) (time.Time, error)
}

// ImportLogs lists recorded import runs. *storage.Local satisfies it.
type ImportLogs interface {
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Deps are the components behind the app API. Sync, StravaAuth, Importer
// and MCP may be nil when the feature is not configured.
type Deps struct {
	Store      *store.Store
	KV         store.KV
	ImportLogs ImportLogs
	Notices    *notify.Center
	Sync       SyncRunner
	StravaAuth StravaAuth
	Importer   StravaImporter
	MCP        http.Handler
	// Domain is used in calendar event UIDs.
	Domain string
}

// Server is the personal app API.
type Server struct {
	store   *store.Store
	kv      store.KV
	logs    ImportLogs
	notices *notify.Center
	sync    SyncRunner
	auth    StravaAuth
	imp     StravaImporter
	mcp     http.Handler
	domain  string
	log     *slog.Logger
	now     func() time.Time
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(d Deps, log *slog.Logger) *Server {
	s := &Server{
		store:   d.Store,
		kv:      d.KV,
		logs:    d.ImportLogs,
		notices: d.Notices,
		sync:    d.Sync,
		auth:    d.StravaAuth,
		imp:     d.Importer,
		mcp:     d.MCP,
		domain:  d.Domain,
		log:     log,
		now:     time.Now,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/import", s.handleImportSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}", s.handleUpdateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)
		r.Post("/sessions/{id}/plan/{section}/{index}/toggle", s.handleToggleExercise)

		r.Get("/stats", s.handleStats)
		r.Get("/badges", s.handleBadges)

		r.Get("/quick-check", s.handleGetQuickCheck)
		r.Put("/quick-check", s.handlePutQuickCheck)

		r.Post("/protein", s.handleAddProtein)
		r.Delete("/protein/{id}", s.handleDeleteProtein)
		r.Put("/protein/goal", s.handleProteinGoal)
		r.Get("/protein/summary", s.handleProteinSummary)

		r.Post("/weight", s.handleLogWeight)
		r.Put("/weight/goal", s.handleWeightGoal)

		r.Get("/backup", s.handleExportBackup)
		r.Post("/backup/restore", s.handleRestoreBackup)
		r.Post("/backup/local", s.handleSaveLocalBackup)
		r.Post("/backup/local/restore", s.handleRestoreLocalBackup)

		r.Post("/sync", s.handleSync)
		r.Get("/sync/status", s.handleSyncStatus)

		r.Get("/notices", s.handleListNotices)
		r.Delete("/notices/{id}", s.handleDismissNotice)

		r.Get("/strava/status", s.handleStravaStatus)
		r.Get("/strava/connect", s.handleStravaConnect)
		r.Get("/strava/callback", s.handleStravaCallback)
		r.Delete("/strava/connection", s.handleStravaDisconnect)
		r.Post("/strava/import", s.handleStravaImport)

		r.Get("/import-logs", s.handleImportLogs)
	})

	s.router.Get("/calendar.ics", s.handleCalendar)

	if s.mcp != nil {
		s.router.Handle("/mcp", s.mcp)
	}
}
