package syncer

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/claude/trainsync/internal/notify"
)

// DefaultInitialDelay is how long after start the first reconciliation runs.
const DefaultInitialDelay = 3 * time.Second

// OnlineChecker reports whether the network is reachable.
type OnlineChecker interface {
	Online(ctx context.Context) bool
}

// DialChecker considers the device online when a TCP connection to Address succeeds.
type DialChecker struct {
	Address string
	Timeout time.Duration
}

// NewDialChecker derives the dial address from the remote base URL.
func NewDialChecker(baseURL string) DialChecker {
	addr := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		addr = u.Host
		if u.Port() == "" {
			port := "443"
			if u.Scheme == "http" {
				port = "80"
			}
			addr = net.JoinHostPort(u.Hostname(), port)
		}
	}
	return DialChecker{Address: addr, Timeout: 3 * time.Second}
}

// Online dials Address.
func (d DialChecker) Online(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Notifier surfaces failures to the user.
type Notifier interface {
	Error(source string, err error) notify.Notice
}

// Scheduler runs Reconcile once shortly after start and then on an interval.
// Failures are reported and left for the next tick; there is no other retry.
type Scheduler struct {
	rec          *Reconciler
	online       OnlineChecker
	notices      Notifier
	log          *slog.Logger
	interval     time.Duration
	initialDelay time.Duration
}

// NewScheduler creates a scheduler. online may be nil to always attempt.
func NewScheduler(rec *Reconciler, online OnlineChecker, notices Notifier, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		rec:          rec,
		online:       online,
		notices:      notices,
		log:          log,
		interval:     interval,
		initialDelay: DefaultInitialDelay,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("sync scheduler started", "interval", s.interval, "initial_delay", s.initialDelay)

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.online != nil && !s.online.Online(ctx) {
		s.log.Debug("offline, skipping sync")
		return
	}
	outcome, err := s.rec.Reconcile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("sync failed", "error", err)
		if s.notices != nil {
			s.notices.Error("sync", err)
		}
		return
	}
	s.log.Debug("sync complete", "outcome", outcome)
}
