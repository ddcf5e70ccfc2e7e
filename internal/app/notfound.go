package app

import (
	"sync"
	"time"

	"github.com/desertthunder/tracklist/internal/routes"
)

// NotFoundController counts down to an automatic redirect home.
type NotFoundController struct {
	mu        sync.Mutex
	path      string
	remaining time.Duration
}

// NewNotFoundController starts a countdown of [routes.NotFoundCountdown] for the unknown path.
func NewNotFoundController(path string) *NotFoundController {
	return &NotFoundController{path: path, remaining: routes.NotFoundCountdown}
}

// Path returns the path that did not match any route.
func (c *NotFoundController) Path() string { return c.path }

// Remaining returns the whole seconds left before the redirect.
func (c *NotFoundController) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.remaining / time.Second)
}

// Tick advances the countdown by one second and returns the redirect target once it reaches zero.
func (c *NotFoundController) Tick() (redirect string, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining > 0 {
		c.remaining -= time.Second
	}
	if c.remaining <= 0 {
		return routes.HomePath, true
	}
	return "", false
}
