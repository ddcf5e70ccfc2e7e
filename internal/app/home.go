package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/desertthunder/tracklist/internal/tasks"
)

// HomeState is a snapshot of the playlist list view.
type HomeState struct {
	Playlists     []models.Playlist
	Loading       bool
	Error         string
	PendingDelete string // playlist awaiting delete confirmation
}

// HomeController lists the user's playlists and creates or deletes them.
type HomeController struct {
	mu        sync.Mutex
	playlists services.Playlists
	logger    *log.Logger
	progress  chan<- tasks.ProgressUpdate
	state     HomeState
}

// NewHomeController creates a HomeController. A nil logger uses the default logger.
func NewHomeController(playlists services.Playlists, logger *log.Logger) *HomeController {
	if logger == nil {
		logger = log.Default()
	}
	return &HomeController{playlists: playlists, logger: logger}
}

// WithProgress reports mutate and refresh steps on ch.
func (c *HomeController) WithProgress(ch chan<- tasks.ProgressUpdate) *HomeController {
	c.progress = ch
	return c
}

// State returns a copy of the current state.
func (c *HomeController) State() HomeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Playlists = slices.Clone(c.state.Playlists)
	return st
}

// Load fetches the playlists. On failure the previous list is kept.
func (c *HomeController) Load(ctx context.Context) error {
	c.update(func(st *HomeState) { st.Loading = true })

	playlists, err := c.playlists.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.logger.Warn("failed to load playlists", "err", err)
		c.state.Error = MsgLoadPlaylistsFailed
		return err
	}
	c.state.Playlists = playlists
	c.state.Error = ""
	return nil
}

// Create adds a playlist named name (trimmed) and re-fetches the list.
func (c *HomeController) Create(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !models.ValidPlaylistName(name) {
		c.update(func(st *HomeState) { st.Error = MsgPlaylistNameRequired })
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	return c.mutate(ctx, "create playlist", MsgCreatePlaylistFailed, func(ctx context.Context) error {
		_, err := c.playlists.Create(ctx, name)
		return err
	})
}

// RequestDelete asks for confirmation before deleting id.
func (c *HomeController) RequestDelete(id string) {
	c.update(func(st *HomeState) { st.PendingDelete = id })
}

// CancelDelete dismisses the confirmation.
func (c *HomeController) CancelDelete() {
	c.update(func(st *HomeState) { st.PendingDelete = "" })
}

// ConfirmDelete deletes the pending playlist and re-fetches the list.
//
// The confirmation is dismissed whether or not the delete succeeds.
func (c *HomeController) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	id := c.state.PendingDelete
	c.state.PendingDelete = ""
	c.mu.Unlock()

	if id == "" {
		return fmt.Errorf("%w: no playlist selected for deletion", shared.ErrInvalidInput)
	}

	return c.mutate(ctx, "delete playlist", MsgDeletePlaylistFailed, func(ctx context.Context) error {
		return c.playlists.Remove(ctx, id)
	})
}

func (c *HomeController) mutate(ctx context.Context, name, failure string, fn func(ctx context.Context) error) error {
	s := tasks.Sync[[]models.Playlist]{
		Refresh:   c.playlists.List,
		OnMutated: func() { c.update(func(st *HomeState) { st.Loading = true; st.Error = "" }) },
		Progress:  c.progress,
	}

	playlists, err := s.Apply(ctx, name, fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	switch {
	case errors.Is(err, shared.ErrRefreshAfterMutation):
		c.logger.Warn("refresh after mutation failed", "op", name, "err", err)
		c.state.Error = MsgLoadPlaylistsFailed
	case err != nil:
		c.logger.Warn("mutation failed", "op", name, "err", err)
		c.state.Error = failure
	default:
		c.state.Playlists = playlists
	}
	return err
}

func (c *HomeController) update(fn func(*HomeState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}
