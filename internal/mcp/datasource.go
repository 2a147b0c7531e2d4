package mcp

import (
	"context"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/store"
)

// DataSource abstracts the data layer for MCP tools. StoreSource (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context) ([]models.TrainingSession, error)
	GetStats(ctx context.Context) (*models.UserStats, error)
	CompleteSession(ctx context.Context, id string) (*models.UserStats, error)
}

// StoreSource serves MCP requests straight from the session store.
type StoreSource struct {
	Store *store.Store
}

// Compile-time check: StoreSource satisfies DataSource.
var _ DataSource = StoreSource{}

func (s StoreSource) ListSessions(context.Context) ([]models.TrainingSession, error) {
	return s.Store.Sessions(), nil
}

func (s StoreSource) GetStats(context.Context) (*models.UserStats, error) {
	st := s.Store.Stats()
	return &st, nil
}

func (s StoreSource) CompleteSession(ctx context.Context, id string) (*models.UserStats, error) {
	if _, ok := s.Store.Session(id); !ok {
		return nil, ErrUnknownSession
	}
	state, err := s.Store.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	return &state.Stats, nil
}
