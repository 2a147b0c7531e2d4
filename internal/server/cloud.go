package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trainsync/internal/storage"
)

// maxRecordBytes bounds a stored snapshot.
const maxRecordBytes = 5 << 20

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RecordStore persists sync blobs. *storage.DB satisfies it.
type RecordStore interface {
	PutSyncRecord(ctx context.Context, rec storage.SyncRecord) error
	GetSyncRecord(ctx context.Context, key string) (*storage.SyncRecord, error)
	DeleteSyncRecord(ctx context.Context, key string) error
}

// Cloud is the key-value sync endpoint: one opaque JSON document per key.
type Cloud struct {
	records RecordStore
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// NewCloud creates the cloud endpoint with all routes configured.
func NewCloud(records RecordStore, apiKey string, log *slog.Logger) *Cloud {
	c := &Cloud{
		records: records,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	c.routes()
	return c
}

// ServeHTTP implements http.Handler.
func (c *Cloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

func (c *Cloud) routes() {
	c.router.Use(RequestLogging(c.log))
	c.router.Use(CORS)

	c.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	c.router.Route("/api/v1/kv", func(r chi.Router) {
		r.Use(APIKeyAuth(c.apiKey))
		r.Get("/{key}", c.handleGet)
		r.Put("/{key}", c.handlePut)
		r.Delete("/{key}", c.handleDelete)
	})
}

func (c *Cloud) key(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if !validKey.MatchString(key) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid key"})
		return "", false
	}
	return key, true
}

func (c *Cloud) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}

	rec, err := c.records.GetSyncRecord(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data for key"})
		return
	}
	if err != nil {
		c.log.Error("reading sync record", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", rec.UpdatedAt.UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Data)
}

// handlePut stores the body verbatim, replacing whatever was there.
func (c *Cloud) handlePut(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	if !json.Valid(data) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is not valid JSON"})
		return
	}

	var meta struct {
		DeviceID string `json:"device_id"`
	}
	json.Unmarshal(data, &meta)

	rec := storage.SyncRecord{Key: key, Data: data, DeviceID: meta.DeviceID}
	if err := c.records.PutSyncRecord(r.Context(), rec); err != nil {
		c.log.Error("writing sync record", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	c.log.Info("sync record stored", "key", key, "bytes", len(data), "device_id", meta.DeviceID)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Cloud) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := c.key(w, r)
	if !ok {
		return
	}
	err := c.records.DeleteSyncRecord(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data for key"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
