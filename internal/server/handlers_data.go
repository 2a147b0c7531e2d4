package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/claude/trainsync/internal/backup"
	"github.com/claude/trainsync/internal/calendar"
)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	body := calendar.Export(s.store.Sessions(), s.domain, s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trainsync.ics"`)
	io.WriteString(w, body)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	doc := backup.Export(s.store, s.now())
	name := fmt.Sprintf("trainsync-backup-%s.json", doc.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	doc, err := backup.Parse(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	state, err := backup.Restore(r.Context(), s.store, doc)
	if err != nil {
		s.writeBackupError(w, err)
		return
	}
	s.log.Info("backup restored", "sessions", len(state.Sessions), "exported_at", doc.ExportedAt)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSaveLocalBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := backup.SaveLocalCopy(r.Context(), s.kv, s.store, s.now())
	if err != nil {
		s.writeBackupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saved_at": doc.ExportedAt,
		"sessions": len(doc.Sessions),
	})
}

func (s *Server) handleRestoreLocalBackup(w http.ResponseWriter, r *http.Request) {
	state, err := backup.RestoreLocalCopy(r.Context(), s.kv, s.store)
	if err != nil {
		s.writeBackupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) writeBackupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrNoLocalCopy):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, backup.ErrInvalidBackup):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.writeStoreError(w, err)
	}
}
