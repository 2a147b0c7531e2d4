// Package notify keeps the dismissable notices shown to the user when a
// background operation such as sync or import fails.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// maxNotices bounds the list; the oldest notice is dropped first.
const maxNotices = 50

// Notice is one user-facing message.
type Notice struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center holds active notices in memory.
type Center struct {
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	notices []Notice
}

// NewCenter creates an empty notice center.
func NewCenter(log *slog.Logger) *Center {
	return &Center{log: log, now: time.Now}
}

// Add records a notice and returns it.
func (c *Center) Add(level, source, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Source:    source,
		Message:   message,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	c.notices = append(c.notices, n)
	if len(c.notices) > maxNotices {
		c.notices = append([]Notice(nil), c.notices[len(c.notices)-maxNotices:]...)
	}
	c.mu.Unlock()

	if level == LevelError {
		c.log.Warn("notice", "source", source, "message", message)
	}
	return n
}

// Error is shorthand for Add(LevelError, source, err.Error()).
func (c *Center) Error(source string, err error) Notice {
	return c.Add(LevelError, source, err.Error())
}

// List returns the active notices, oldest first.
func (c *Center) List() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice{}, c.notices...)
}

// Dismiss removes a notice. It reports whether the id was found.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return true
		}
	}
	return false
}
