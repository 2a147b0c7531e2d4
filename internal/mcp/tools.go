package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trainsync/internal/models"
)

// Session status filters.
const (
	statusAll       = "all"
	statusCompleted = "completed"
	statusPlanned   = "planned"
)

// filterSessions keeps sessions in the given plan week (0 = any) with the given status.
func filterSessions(sessions []models.TrainingSession, week int, status string) []models.TrainingSession {
	out := make([]models.TrainingSession, 0, len(sessions))
	for _, s := range sessions {
		if week > 0 && s.Week != week {
			continue
		}
		switch status {
		case statusCompleted:
			if !s.Completed {
				continue
			}
		case statusPlanned:
			if s.Completed {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// --- Tool definitions ---

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List training sessions with type, duration, distance and completion state. Filter by plan week and status."),
	mcp.WithNumber("week", mcp.Description("Plan week (1-based). Omit for all weeks.")),
	mcp.WithString("status", mcp.Description("Completion filter. Defaults to 'all'."), mcp.Enum(statusAll, statusCompleted, statusPlanned)),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Get aggregate statistics: total sessions, distance, duration, current and longest streak, points and personal records."),
)

var toolListBadges = mcp.NewTool("list_badges",
	mcp.WithDescription("List achievement badges and whether they have been earned."),
	mcp.WithBoolean("earned_only", mcp.Description("Only return earned badges.")),
)

var toolCompleteSession = mcp.NewTool("complete_session",
	mcp.WithDescription("Mark a session as completed. Completing an already completed session changes nothing."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session id (e.g. 'w2-d3-0')")),
)

// --- Tool handlers ---

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", statusAll)
	switch status {
	case statusAll, statusCompleted, statusPlanned:
	default:
		return mcp.NewToolResultError("invalid status: " + status), nil
	}
	week := req.GetInt("week", 0)

	sessions, err := h.ds.ListSessions(ctx)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(filterSessions(sessions, week, status))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetStats(ctx)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listBadges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetStats(ctx)
	if err != nil {
		h.log.Error("mcp list_badges", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	badges := stats.Badges
	if req.GetBool("earned_only", false) {
		badges = nil
		for _, b := range stats.Badges {
			if b.Earned {
				badges = append(badges, b)
			}
		}
	}
	if badges == nil {
		badges = []models.Badge{}
	}

	result, err := mcp.NewToolResultJSON(badges)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) completeSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	stats, err := h.ds.CompleteSession(ctx, id)
	if errors.Is(err, ErrUnknownSession) {
		return mcp.NewToolResultError("no session with id " + id), nil
	}
	if err != nil {
		h.log.Error("mcp complete_session", "error", err)
		return mcp.NewToolResultError("update failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
