package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/claude/trainsync/internal/config"
	"github.com/claude/trainsync/internal/mcp"
	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/notify"
	"github.com/claude/trainsync/internal/plan"
	"github.com/claude/trainsync/internal/server"
	"github.com/claude/trainsync/internal/storage"
	"github.com/claude/trainsync/internal/store"
	"github.com/claude/trainsync/internal/strava"
	"github.com/claude/trainsync/internal/syncer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	remote := flag.String("remote", "", "with -mcp-stdio: base URL of a running trainsync server")
	flag.Parse()

	// In stdio mode stdout carries the protocol, so logs go to stderr.
	logOut := os.Stdout
	if *mcpStdio {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("trainsync starting", "version", Version)

	if *mcpStdio && *remote != "" {
		if err := mcpserver.ServeStdio(mcp.New(mcp.NewHTTPClient(*remote), Version, log)); err != nil {
			log.Error("mcp stdio server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateApp(); err != nil {
		log.Error("invalid config", "error", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(local, log)
	state, err := st.Load(ctx, func() []models.TrainingSession { return tmpl.Sessions(anchor) })
	if err != nil {
		log.Error("failed to load sessions", "error", err)
		os.Exit(1)
	}
	log.Info("state loaded",
		"sessions", len(state.Sessions),
		"completed", state.Stats.TotalSessions,
		"plan_start", anchor.Start.Format("2006-01-02"),
		"week", anchor.WeekOf(time.Now()),
	)

	mcpSrv := mcp.New(mcp.StoreSource{Store: st}, Version, log)
	if *mcpStdio {
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp stdio server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	notices := notify.NewCenter(log)
	deps := server.Deps{
		Store:      st,
		KV:         local,
		ImportLogs: local,
		Notices:    notices,
		MCP:        mcpserver.NewStreamableHTTPServer(mcpSrv),
		Domain:     cfg.Server.Domain,
	}

	var scheduler *syncer.Scheduler
	if cfg.Sync.Enabled {
		env := syncer.DetectEnvironment(cfg.Sync.DeviceLabel)
		deviceID, err := syncer.DeviceID(ctx, local, env)
		if err != nil {
			log.Error("failed to derive device id", "error", err)
			os.Exit(1)
		}
		key := syncer.DeriveKey(env, cfg.Sync.Key)
		rec := syncer.NewReconciler(st, syncer.NewHTTPRemote(cfg.Sync.URL, cfg.Sync.APIKey), local, key, deviceID, log)
		scheduler = syncer.NewScheduler(rec, syncer.NewDialChecker(cfg.Sync.URL), notices, cfg.Sync.Interval, log)
		deps.Sync = rec
		log.Info("sync enabled", "url", cfg.Sync.URL, "key", key, "device_id", deviceID)
	}

	if cfg.Strava.Enabled() {
		redirect := cfg.Strava.RedirectURL
		if redirect == "" {
			redirect = fmt.Sprintf("http://%s:%d/api/v1/strava/callback", cfg.Server.Host, cfg.Server.Port)
		}
		auth := strava.NewAuth(strava.AuthConfig{
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
			RedirectURL:  redirect,
		}, local, log)
		client := strava.NewClient(auth, cfg.Strava.BaseURL)
		deps.StravaAuth = auth
		deps.Importer = strava.NewImporter(client, st, local, local, anchor, strava.ImporterConfig{
			PerPage:  cfg.Strava.PerPage,
			MaxPages: cfg.Strava.MaxPages,
		}, log)
		log.Info("strava enabled", "redirect_url", redirect)
	}

	srv := server.New(deps, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", addr)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if scheduler != nil {
		g.Go(func() error { return scheduler.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
