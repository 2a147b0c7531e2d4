package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trainsync/internal/models"
)

func (h *handlers) statsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) todayResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.ds.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now()
	y, m, d := now.Date()
	today := []models.TrainingSession{}
	for _, s := range sessions {
		sy, sm, sd := s.Date.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			today = append(today, s)
		}
	}

	data, err := json.Marshal(map[string]any{
		"date":     now.Format("2006-01-02"),
		"sessions": today,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
