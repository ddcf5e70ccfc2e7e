// package services defines the gateways between the client and remote HTTP APIs
//
// Playlist API (auth, playlists, songs), track search (RapidAPI, Spotify)
package services

import (
	"context"

	"github.com/desertthunder/tracklist/internal/models"
)

// Authenticator registers and logs in users against the playlist API.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
}

// Playlists is the playlist and song CRUD surface of the playlist API.
type Playlists interface {
	List(ctx context.Context) ([]models.Playlist, error)
	Create(ctx context.Context, name string) (*models.Playlist, error)
	Rename(ctx context.Context, id, name string) (*models.Playlist, error)
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Playlist, error)
	AddSong(ctx context.Context, playlistID string, song models.Song) (*models.AddSongResult, error)
	RemoveSong(ctx context.Context, playlistID, songID string) error
}

// Searcher queries the external track catalog.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

var (
	_ Authenticator = (*AuthGateway)(nil)
	_ Playlists     = (*PlaylistGateway)(nil)
	_ Searcher      = (*SearchGateway)(nil)
)
