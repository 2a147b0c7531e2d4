package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trainsync/internal/config"
	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/plan"
	"github.com/claude/trainsync/internal/storage"
	"github.com/claude/trainsync/internal/store"
	"github.com/claude/trainsync/internal/strava"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "list the sessions that would be imported without saving them")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateApp(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if !cfg.Strava.Enabled() {
		fmt.Fprintf(os.Stderr, "Usage: trainsync-import -config config.yaml [-dry-run]\n")
		fmt.Fprintf(os.Stderr, "strava.client_id and strava.client_secret must be configured\n")
		os.Exit(1)
	}

	anchor, err := cfg.Plan.Anchor()
	if err != nil {
		log.Error("invalid plan anchor", "error", err)
		os.Exit(1)
	}
	tmpl, err := plan.LoadTemplate(cfg.Plan.Template)
	if err != nil {
		log.Error("failed to load plan template", "error", err)
		os.Exit(1)
	}

	local, err := storage.OpenLocal(cfg.Local.StateDir, cfg.Local.Namespace)
	if err != nil {
		log.Error("failed to open local state", "error", err)
		os.Exit(1)
	}
	defer local.Close()

	ctx := context.Background()
	st := store.New(local, log)
	if _, err := st.Load(ctx, func() []models.TrainingSession { return tmpl.Sessions(anchor) }); err != nil {
		log.Error("failed to load sessions", "error", err)
		os.Exit(1)
	}

	auth := strava.NewAuth(strava.AuthConfig{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Strava.RedirectURL,
	}, local, log)
	if !auth.Connected(ctx) {
		log.Error("strava is not connected; authorize via the app server first")
		os.Exit(1)
	}

	if *dryRun {
		log.Info("dry run: nothing will be saved")
	}

	imp := strava.NewImporter(strava.NewClient(auth, cfg.Strava.BaseURL), st, local, local, anchor, strava.ImporterConfig{
		PerPage:  cfg.Strava.PerPage,
		MaxPages: cfg.Strava.MaxPages,
	}, log)
	res, err := imp.Run(ctx, *dryRun)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	for _, s := range res.Sessions {
		log.Info("activity",
			"id", s.ID,
			"date", s.Date.Format("2006-01-02"),
			"type", s.Type,
			"subtype", s.SubType,
			"duration_min", s.Duration,
			"distance_km", s.DistanceKm(),
		)
	}
	log.Info("import complete",
		"since", res.Since.Format("2006-01-02"),
		"received", res.Received,
		"added", res.Added,
		"dry_run", res.DryRun,
	)
}
