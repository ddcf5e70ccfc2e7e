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

// PlaylistState is a snapshot of the playlist details view.
//
// Playlist is nil until loaded, and after a failed load. Notice is a transient message the view
// clears with [PlaylistController.DismissNotice].
type PlaylistState struct {
	Playlist  *models.Playlist
	Loading   bool
	Error     string
	Notice    string
	Query     string
	Results   []models.Song
	Skipped   int // provider records that could not be normalized
	Searching bool
}

// PlaylistController drives one playlist: load, rename, search and song membership.
type PlaylistController struct {
	mu        sync.Mutex
	id        string
	playlists services.Playlists
	searcher  services.Searcher
	logger    *log.Logger
	progress  chan<- tasks.ProgressUpdate
	state     PlaylistState
}

// NewPlaylistController creates a controller for playlist id. A nil logger uses the default logger.
func NewPlaylistController(id string, playlists services.Playlists, searcher services.Searcher, logger *log.Logger) *PlaylistController {
	if logger == nil {
		logger = log.Default()
	}
	return &PlaylistController{
		id:        id,
		playlists: playlists,
		searcher:  searcher,
		logger:    shared.WithLogger(logger, "playlist", id),
		state:     PlaylistState{Loading: true},
	}
}

// WithProgress reports mutate and refresh steps on ch.
func (c *PlaylistController) WithProgress(ch chan<- tasks.ProgressUpdate) *PlaylistController {
	c.progress = ch
	return c
}

// ID returns the playlist id this controller was created for.
func (c *PlaylistController) ID() string { return c.id }

// State returns a copy of the current state.
func (c *PlaylistController) State() PlaylistState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if c.state.Playlist != nil {
		p := *c.state.Playlist
		p.Songs = slices.Clone(p.Songs)
		st.Playlist = &p
	}
	st.Results = slices.Clone(c.state.Results)
	return st
}

// Load fetches the playlist. Any failure leaves Playlist nil and Error "Playlist not found".
func (c *PlaylistController) Load(ctx context.Context) error {
	c.update(func(st *PlaylistState) { st.Loading = true })

	playlist, err := c.playlists.Get(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.logger.Warn("failed to load playlist", "err", err)
		c.state.Playlist = nil
		c.state.Error = MsgPlaylistNotFound
		return err
	}
	c.state.Playlist = playlist
	c.state.Error = ""
	return nil
}

// Rename changes the playlist name (trimmed) and re-fetches it.
func (c *PlaylistController) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !models.ValidPlaylistName(name) {
		c.update(func(st *PlaylistState) { st.Notice = MsgPlaylistNameRequired })
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	return c.mutate(ctx, "rename playlist", MsgPlaylistRenamed, MsgRenamePlaylistFailed, nil, func(ctx context.Context) error {
		_, err := c.playlists.Rename(ctx, c.id, name)
		return err
	})
}

// Search queries the track catalog and normalizes the results.
//
// A blank query is a no-op. A failure sets a notice and keeps the previous results.
func (c *PlaylistController) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	c.update(func(st *PlaylistState) {
		st.Query = query
		st.Searching = true
	})

	results, err := c.searcher.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Searching = false
	if err != nil {
		c.logger.Warn("search failed", "query", query, "err", err)
		c.state.Notice = MsgSearchFailed
		return err
	}

	songs, skipped := services.NormalizeSongs(results)
	if skipped > 0 {
		c.logger.Debug("skipped malformed provider records", "count", skipped)
	}
	c.state.Results = songs
	c.state.Skipped = skipped
	return nil
}

// AddSong adds song to the playlist, clears the search, and re-fetches the playlist.
func (c *PlaylistController) AddSong(ctx context.Context, song models.Song) error {
	clearSearch := func(st *PlaylistState) {
		st.Results = nil
		st.Query = ""
		st.Skipped = 0
	}

	return c.mutate(ctx, "add song", MsgSongAdded, MsgAddSongFailed, clearSearch, func(ctx context.Context) error {
		_, err := c.playlists.AddSong(ctx, c.id, song)
		return err
	})
}

// RemoveSong removes a persisted song and re-fetches the playlist.
func (c *PlaylistController) RemoveSong(ctx context.Context, songID string) error {
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}

	return c.mutate(ctx, "remove song", MsgSongRemoved, MsgRemoveSongFailed, nil, func(ctx context.Context) error {
		return c.playlists.RemoveSong(ctx, c.id, songID)
	})
}

// DismissNotice clears the transient notice.
func (c *PlaylistController) DismissNotice() {
	c.update(func(st *PlaylistState) { st.Notice = "" })
}

// mutate runs fn then re-fetches the playlist. On success the notice and onSuccess are applied
// before the refresh starts, with Loading set until it completes.
func (c *PlaylistController) mutate(ctx context.Context, name, success, failure string, onSuccess func(*PlaylistState), fn func(ctx context.Context) error) error {
	s := tasks.Sync[*models.Playlist]{
		Refresh: func(ctx context.Context) (*models.Playlist, error) {
			return c.playlists.Get(ctx, c.id)
		},
		OnMutated: func() {
			c.update(func(st *PlaylistState) {
				st.Notice = success
				st.Loading = true
				if onSuccess != nil {
					onSuccess(st)
				}
			})
		},
		Progress: c.progress,
	}

	playlist, err := s.Apply(ctx, name, fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	switch {
	case errors.Is(err, shared.ErrRefreshAfterMutation):
		c.logger.Warn("refresh after mutation failed", "op", name, "err", err)
		c.state.Playlist = nil
		c.state.Error = MsgPlaylistNotFound
	case err != nil:
		c.logger.Warn("mutation failed", "op", name, "err", err)
		c.state.Notice = failure
	default:
		c.state.Playlist = playlist
		c.state.Error = ""
	}
	return err
}

func (c *PlaylistController) update(fn func(*PlaylistState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}
