package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/nutrition"
)

func (s *Server) handleGetQuickCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.QuickCheck())
}

func (s *Server) handlePutQuickCheck(w http.ResponseWriter, r *http.Request) {
	var qc models.QuickCheck
	if !decodeBody(w, r, &qc) {
		return
	}
	saved, err := s.store.SetQuickCheck(r.Context(), qc)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleAddProtein(w http.ResponseWriter, r *http.Request) {
	var in nutrition.EntryInput
	if !decodeBody(w, r, &in) {
		return
	}

	entry, err := nutrition.NewProteinEntry(in, s.now())
	if err != nil {
		var ve *nutrition.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	state, err := s.store.AddProtein(r.Context(), entry)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"entry": entry,
		"state": state,
	})
}

func (s *Server) handleDeleteProtein(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.DeleteProtein(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleProteinGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Grams float64 `json:"grams"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	state, err := s.store.SetProteinGoal(r.Context(), body.Grams)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleProteinSummary returns the intake for ?date=YYYY-MM-DD, today by default.
func (s *Server) handleProteinSummary(w http.ResponseWriter, r *http.Request) {
	day := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, day.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	writeJSON(w, http.StatusOK, nutrition.DailyTotals(s.store.Stats().Protein, day))
}

func (s *Server) handleLogWeight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date   time.Time `json:"date"`
		Weight float64   `json:"weight"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	state, err := s.store.LogWeight(r.Context(), body.Date, body.Weight)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWeightGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weight float64 `json:"weight"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	state, err := s.store.SetWeightGoal(r.Context(), body.Weight)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
