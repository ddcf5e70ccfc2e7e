// package models defines the data model for the playlist client
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// UserSummary identifies the authenticated user. Opaque beyond display use.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UnmarshalJSON accepts both "id" and the API's Mongo-style "_id".
func (u *UserSummary) UnmarshalJSON(data []byte) error {
	type alias UserSummary
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = UserSummary(raw.alias)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

// Session is the authenticated identity and credential held by the client.
//
// Token is non-empty iff a login or registration succeeded and no logout has happened since.
type Session struct {
	User      *UserSummary `json:"user"`
	Token     string       `json:"token"`
	CreatedAt time.Time    `json:"created_at"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// AuthResult is the normalized {user, token} pair returned by register and login.
type AuthResult struct {
	User  UserSummary `json:"user"`
	Token string      `json:"token"`
}

// Playlist is a server-owned, named collection of songs.
//
// Song order is whatever the server returns.
type Playlist struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
}

// UnmarshalJSON accepts both "_id" and "id".
func (p *Playlist) UnmarshalJSON(data []byte) error {
	type alias Playlist
	var raw struct {
		alias
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Playlist(raw.alias)
	if p.ID == "" {
		p.ID = raw.PlainID
	}
	return nil
}

// Song is a track in the playlist's internal shape.
//
// ProviderID is always set. ID is only present once the server has persisted the song.
type Song struct {
	ID          string `json:"_id,omitempty"`
	ProviderID  string `json:"spotifyId"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtURL string `json:"albumArt,omitempty"`
	DurationMS  *int   `json:"duration,omitempty"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id".
func (s *Song) UnmarshalJSON(data []byte) error {
	type alias Song
	var raw struct {
		alias
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Song(raw.alias)
	if s.ID == "" {
		s.ID = raw.PlainID
	}
	return nil
}

// Persisted reports whether the server has assigned the song an id.
func (s Song) Persisted() bool {
	return s.ID != ""
}

// SearchResult is a provider-shaped track record.
//
// It lives only between a search call and normalization (or discard).
type SearchResult struct {
	Provider string          `json:"provider"`
	Raw      json.RawMessage `json:"raw"`
}

// AddSongResult holds whichever representation the server returned for an added song.
type AddSongResult struct {
	Playlist *Playlist
	Song     *Song
}

// ValidPlaylistName reports whether name is non-empty after trimming.
func ValidPlaylistName(name string) bool {
	return strings.TrimSpace(name) != ""
}
