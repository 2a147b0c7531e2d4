package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trainsync/internal/strava"
)

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sync is not configured"})
		return
	}

	outcome, err := s.sync.Reconcile(r.Context())
	if err != nil {
		s.notices.Error("sync", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome,
		"status":  s.sync.Status(r.Context()),
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"status":  s.sync.Status(r.Context()),
	})
}

func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notices.List())
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	if !s.notices.Dismiss(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notice not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStravaStatus(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusOK, map[string]any{"configured": false, "connected": false})
		return
	}
	resp := map[string]any{
		"configured": true,
		"connected":  s.auth.Connected(r.Context()),
	}
	if s.imp != nil {
		last, err := s.imp.LastImport(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !last.IsZero() {
			resp["last_import"] = last
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStravaConnect redirects the browser to the Strava consent page.
func (s *Server) handleStravaConnect(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "strava is not configured"})
		return
	}
	url, err := s.auth.AuthCodeURL()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleStravaCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "strava is not configured"})
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "strava authorization failed: " + e})
		return
	}
	if q.Get("code") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code parameter required"})
		return
	}

	if err := s.auth.Exchange(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		if errors.Is(err, strava.ErrStateMismatch) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.notices.Error("strava", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("strava connected")
	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

func (s *Server) handleStravaDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "strava is not configured"})
		return
	}
	if err := s.auth.Disconnect(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStravaImport pulls new activities. ?dry_run=true previews without saving.
func (s *Server) handleStravaImport(w http.ResponseWriter, r *http.Request) {
	if s.imp == nil || s.auth == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "strava is not configured"})
		return
	}
	if !s.auth.Connected(r.Context()) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": strava.ErrNotConnected.Error()})
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"
	res, err := s.imp.Run(r.Context(), dryRun)
	if err != nil {
		s.notices.Error("strava", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.logs.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
