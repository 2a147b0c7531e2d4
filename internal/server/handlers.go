package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/store"
)

// maxBodyBytes bounds request bodies; backups are the largest payload.
const maxBodyBytes = 10 << 20

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.Sessions()

	if v := r.URL.Query().Get("week"); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil || week < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
			return
		}
		filtered := make([]models.TrainingSession, 0, len(sessions))
		for _, ts := range sessions {
			if ts.Week == week {
				filtered = append(filtered, ts)
			}
		}
		sessions = filtered
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ts, ok := s.store.Session(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// handleCreateSession adds a manually logged session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var ts models.TrainingSession
	if !decodeBody(w, r, &ts) {
		return
	}
	if ts.ID == "" {
		ts.ID = "manual-" + uuid.NewString()
	}
	if ts.Source == "" {
		ts.Source = models.SourceManual
	}
	if _, exists := s.store.Session(ts.ID); exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session " + ts.ID + " already exists"})
		return
	}

	state, err := s.store.Update(r.Context(), ts)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var ts models.TrainingSession
	if !decodeBody(w, r, &ts) {
		return
	}
	ts.ID = chi.URLParam(r, "id")

	state, err := s.store.Update(r.Context(), ts)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleToggleExercise(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise index"})
		return
	}

	state, err := s.store.ToggleExercise(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "section"), index)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type importResponse struct {
	Added int `json:"added"`
	store.State
}

func (s *Server) handleImportSessions(w http.ResponseWriter, r *http.Request) {
	var batch []models.TrainingSession
	if !decodeBody(w, r, &batch) {
		return
	}

	state, added, err := s.store.ImportBatch(r.Context(), batch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Added: added, State: state})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	badges := s.store.Stats().Badges
	if r.URL.Query().Get("earned") == "true" {
		earned := make([]models.Badge, 0, len(badges))
		for _, b := range badges {
			if b.Earned {
				earned = append(earned, b)
			}
		}
		badges = earned
	}
	writeJSON(w, http.StatusOK, badges)
}

// writeStoreError maps store errors to HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidSession), errors.Is(err, store.ErrInvalidEntry):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("store error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
