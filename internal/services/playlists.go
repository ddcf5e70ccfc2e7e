package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
)

// PlaylistGateway wraps playlist and song CRUD against the API.
//
// The bearer token comes from the [APIService]'s [TokenSource] on every call. A missing token is
// not checked here: the server answers 401, which surfaces as [shared.ErrAuthorization].
type PlaylistGateway struct {
	api *APIService
}

// NewPlaylistGateway creates a [PlaylistGateway] on top of api.
func NewPlaylistGateway(api *APIService) *PlaylistGateway {
	return &PlaylistGateway{api: api}
}

type nameRequest struct {
	Name string `json:"name"`
}

func playlistPath(id string) string {
	return "/playlists/" + url.PathEscape(id)
}

// List returns every playlist owned by the current user.
func (g *PlaylistGateway) List(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := g.api.Do(ctx, http.MethodGet, "/playlists", nil, &playlists); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return playlists, nil
}

// Create makes a new, empty playlist.
func (g *PlaylistGateway) Create(ctx context.Context, name string) (*models.Playlist, error) {
	var p models.Playlist
	if err := g.api.Do(ctx, http.MethodPost, "/playlists", nameRequest{Name: name}, &p); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return &p, nil
}

// Rename changes a playlist's name.
func (g *PlaylistGateway) Rename(ctx context.Context, id, name string) (*models.Playlist, error) {
	var p models.Playlist
	if err := g.api.Do(ctx, http.MethodPut, playlistPath(id), nameRequest{Name: name}, &p); err != nil {
		return nil, fmt.Errorf("rename playlist %s: %w", id, err)
	}
	return &p, nil
}

// Remove deletes a playlist.
func (g *PlaylistGateway) Remove(ctx context.Context, id string) error {
	if err := g.api.Do(ctx, http.MethodDelete, playlistPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete playlist %s: %w", id, err)
	}
	return nil
}

// Get fetches one playlist with its songs.
func (g *PlaylistGateway) Get(ctx context.Context, id string) (*models.Playlist, error) {
	var p models.Playlist
	if err := g.api.Do(ctx, http.MethodGet, playlistPath(id), nil, &p); err != nil {
		return nil, fmt.Errorf("get playlist %s: %w", id, err)
	}
	return &p, nil
}

// AddSong appends song to a playlist. The server answers with either the updated playlist or the
// stored song; whichever it sent is set on the result.
func (g *PlaylistGateway) AddSong(ctx context.Context, playlistID string, song models.Song) (*models.AddSongResult, error) {
	var data json.RawMessage
	if err := g.api.Do(ctx, http.MethodPost, playlistPath(playlistID)+"/songs", song, &data); err != nil {
		return nil, fmt.Errorf("add song to playlist %s: %w", playlistID, err)
	}

	result, err := decodeAddSong(data)
	if err != nil {
		return nil, fmt.Errorf("add song to playlist %s: %w", playlistID, err)
	}
	return result, nil
}

// RemoveSong deletes a song from a playlist. Removing a song that is already gone is rejected by the server.
func (g *PlaylistGateway) RemoveSong(ctx context.Context, playlistID, songID string) error {
	path := playlistPath(playlistID) + "/songs/" + url.PathEscape(songID)
	if err := g.api.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove song %s from playlist %s: %w", songID, playlistID, err)
	}
	return nil
}

// decodeAddSong tells a playlist from a song by the presence of a "songs" key.
func decodeAddSong(data json.RawMessage) (*models.AddSongResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrRemoteRejection, Err: fmt.Errorf("invalid add-song response: %w", err)}
	}

	if _, ok := probe["songs"]; ok {
		var p models.Playlist
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, &shared.RemoteError{Kind: shared.ErrRemoteRejection, Err: fmt.Errorf("invalid playlist: %w", err)}
		}
		return &models.AddSongResult{Playlist: &p}, nil
	}

	var s models.Song
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrRemoteRejection, Err: fmt.Errorf("invalid song: %w", err)}
	}
	return &models.AddSongResult{Song: &s}, nil
}
