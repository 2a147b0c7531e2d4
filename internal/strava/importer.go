package strava

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/plan"
	"github.com/claude/trainsync/internal/storage"
	"github.com/claude/trainsync/internal/store"
)

const keyLastImport = "strava_last_import"

// ActivityLister is the part of Client the importer needs.
type ActivityLister interface {
	ListActivities(ctx context.Context, since time.Time, page, perPage int) ([]Activity, error)
}

// Target receives imported sessions. *store.Store satisfies it.
type Target interface {
	ImportBatch(ctx context.Context, batch []models.TrainingSession) (store.State, int, error)
}

// ImportLogger records import runs. *storage.Local satisfies it.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// ImporterConfig holds paging limits.
type ImporterConfig struct {
	PerPage  int
	MaxPages int
}

// Importer pulls new activities and hands them to the store.
type Importer struct {
	lister ActivityLister
	target Target
	logs   ImportLogger
	kv     store.KV
	anchor plan.Anchor
	cfg    ImporterConfig
	log    *slog.Logger
	now    func() time.Time
}

// Result summarizes one import run.
type Result struct {
	Since    time.Time                `json:"since"`
	Received int                      `json:"received"`
	Added    int                      `json:"added"`
	Sessions []models.TrainingSession `json:"sessions,omitempty"`
	DryRun   bool                     `json:"dry_run"`
}

// NewImporter creates an Importer. logs may be nil.
func NewImporter(lister ActivityLister, target Target, logs ImportLogger, kv store.KV, anchor plan.Anchor, cfg ImporterConfig, log *slog.Logger) *Importer {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &Importer{
		lister: lister,
		target: target,
		logs:   logs,
		kv:     kv,
		anchor: anchor,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// LastImport returns the start time of the newest imported activity.
func (im *Importer) LastImport(ctx context.Context) (time.Time, error) {
	var t time.Time
	if _, err := im.kv.GetJSON(ctx, keyLastImport, &t); err != nil {
		return time.Time{}, fmt.Errorf("reading last import time: %w", err)
	}
	return t, nil
}

// Run fetches activities since the last import (or the plan start on the
// first run), maps them and imports them. A dry run maps but changes nothing.
func (im *Importer) Run(ctx context.Context, dryRun bool) (Result, error) {
	start := im.now()

	since, err := im.LastImport(ctx)
	if err != nil {
		return Result{}, err
	}
	if since.IsZero() {
		since = im.anchor.Start
	}
	res := Result{Since: since, DryRun: dryRun}

	var batch []models.TrainingSession
	newest := since
	for page := 1; page <= im.cfg.MaxPages; page++ {
		activities, err := im.lister.ListActivities(ctx, since, page, im.cfg.PerPage)
		if err != nil {
			im.record(ctx, start, res, err, dryRun)
			return res, fmt.Errorf("fetching page %d: %w", page, err)
		}
		for _, a := range activities {
			s := MapActivity(a, im.anchor)
			batch = append(batch, s)
			if a.StartDate.After(newest) {
				newest = a.StartDate
			}
		}
		res.Received += len(activities)
		if len(activities) < im.cfg.PerPage {
			break
		}
	}

	if dryRun {
		res.Sessions = batch
		return res, nil
	}

	_, added, err := im.target.ImportBatch(ctx, batch)
	if err != nil {
		im.record(ctx, start, res, err, dryRun)
		return res, fmt.Errorf("importing batch: %w", err)
	}
	res.Added = added

	if newest.After(since) {
		if err := im.kv.PutJSON(ctx, keyLastImport, newest); err != nil {
			return res, fmt.Errorf("writing last import time: %w", err)
		}
	}
	im.record(ctx, start, res, nil, dryRun)
	im.log.Info("strava import complete", "received", res.Received, "added", res.Added, "since", since)
	return res, nil
}

func (im *Importer) record(ctx context.Context, start time.Time, res Result, runErr error, dryRun bool) {
	if im.logs == nil || dryRun {
		return
	}
	ms := int(im.now().Sub(start).Milliseconds())
	entry := storage.ImportLog{
		Source:             "strava",
		Status:             "success",
		ActivitiesReceived: res.Received,
		SessionsAdded:      res.Added,
		DurationMs:         &ms,
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, err := im.logs.InsertImportLog(ctx, entry); err != nil {
		im.log.Error("failed to write import log", "error", err)
	}
}
