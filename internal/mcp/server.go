package mcp

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrUnknownSession is returned when a tool names a session that does not exist.
var ErrUnknownSession = errors.New("unknown session")

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("trainsync", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("trainsync training plan server. List planned and completed sessions, read statistics and badges, and mark sessions completed."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolListBadges, Handler: h.listBadges},
		server.ServerTool{Tool: toolCompleteSession, Handler: h.completeSession},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStats, Handler: h.statsResource},
		server.ServerResource{Resource: resToday, Handler: h.todayResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resStats = mcp.NewResource(
	"trainsync://stats",
	"Statistics",
	mcp.WithResourceDescription("Totals, streaks, points, badges and personal records"),
	mcp.WithMIMEType("application/json"),
)

var resToday = mcp.NewResource(
	"trainsync://today",
	"Today's Sessions",
	mcp.WithResourceDescription("Sessions scheduled for today with their completion state"),
	mcp.WithMIMEType("application/json"),
)
