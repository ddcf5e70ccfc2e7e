package server

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

var (
	errNotFound    = errors.New("not found")
	errConflict    = errors.New("conflict")
	errInvalid     = errors.New("invalid")
	errCredentials = errors.New("invalid credentials")
)

// storeError carries the message shown to API callers.
type storeError struct {
	kind error
	msg  string
}

func (e *storeError) Error() string { return e.msg }
func (e *storeError) Unwrap() error { return e.kind }

func fail(kind error, msg string) error { return &storeError{kind: kind, msg: msg} }

type account struct {
	user models.UserSummary
	hash []byte
}

type ownedPlaylist struct {
	owner    string
	playlist models.Playlist
}

// Store is the sandbox's in-memory state. Every method is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*account // by email
	tokens    map[string]string   // token -> user id
	playlists map[string]*ownedPlaylist
	order     []string
	cost      int
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithHashCost sets the bcrypt cost for new passwords. Values outside bcrypt's range keep the default.
func WithHashCost(cost int) StoreOption {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// NewStore creates an empty [Store].
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		accounts:  make(map[string]*account),
		tokens:    make(map[string]string),
		playlists: make(map[string]*ownedPlaylist),
		cost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and issues a token for it.
func (s *Store) Register(username, email, password string) (*models.AuthResult, error) {
	username, email = strings.TrimSpace(username), normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fail(errInvalid, "Username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fail(errInvalid, "Password cannot be used")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; ok {
		return nil, fail(errConflict, "User already exists")
	}

	acct := &account{
		user: models.UserSummary{ID: shared.GenerateID(), Username: username, Email: email},
		hash: hash,
	}
	s.accounts[email] = acct

	return s.issue(acct), nil
}

// Login checks credentials and issues a new token.
func (s *Store) Login(email, password string) (*models.AuthResult, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[email]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, fail(errCredentials, "Invalid credentials")
	}

	return s.issue(acct), nil
}

// issue must be called with the write lock held.
func (s *Store) issue(acct *account) *models.AuthResult {
	token := shared.GenerateID()
	s.tokens[token] = acct.user.ID
	return &models.AuthResult{User: acct.user, Token: token}
}

// Authenticate returns the user id a token was issued to.
func (s *Store) Authenticate(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok
}

// Playlists returns the owner's playlists in creation order.
func (s *Store) Playlists(owner string) []models.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Playlist{}
	for _, id := range s.order {
		if p := s.playlists[id]; p.owner == owner {
			out = append(out, clonePlaylist(p.playlist))
		}
	}
	return out
}

// CreatePlaylist adds an empty playlist named name.
func (s *Store) CreatePlaylist(owner, name string) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if !models.ValidPlaylistName(name) {
		return nil, fail(errInvalid, "Playlist name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &ownedPlaylist{
		owner:    owner,
		playlist: models.Playlist{ID: shared.GenerateID(), Name: name, Songs: []models.Song{}},
	}
	s.playlists[p.playlist.ID] = p
	s.order = append(s.order, p.playlist.ID)

	out := clonePlaylist(p.playlist)
	return &out, nil
}

// RenamePlaylist changes a playlist's name.
func (s *Store) RenamePlaylist(owner, id, name string) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if !models.ValidPlaylistName(name) {
		return nil, fail(errInvalid, "Playlist name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}
	p.playlist.Name = name

	out := clonePlaylist(p.playlist)
	return &out, nil
}

// DeletePlaylist removes a playlist.
func (s *Store) DeletePlaylist(owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(owner, id); err != nil {
		return err
	}
	delete(s.playlists, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// Playlist returns one playlist.
func (s *Store) Playlist(owner, id string) (*models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}
	out := clonePlaylist(p.playlist)
	return &out, nil
}

// AddSong stores song in a playlist under a new id and returns the updated playlist.
func (s *Store) AddSong(owner, id string, song models.Song) (*models.Playlist, error) {
	if strings.TrimSpace(song.ProviderID) == "" {
		return nil, fail(errInvalid, "spotifyId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}

	song.ID = shared.GenerateID()
	p.playlist.Songs = append(p.playlist.Songs, song)

	out := clonePlaylist(p.playlist)
	return &out, nil
}

// RemoveSong deletes a song by id. A song that is not in the playlist is not found.
func (s *Store) RemoveSong(owner, id, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.owned(owner, id)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(p.playlist.Songs, func(song models.Song) bool { return song.ID == songID })
	if idx < 0 {
		return fail(errNotFound, "Song not found")
	}
	p.playlist.Songs = slices.Delete(p.playlist.Songs, idx, idx+1)
	return nil
}

// owned must be called with the lock held. Playlists of other users are reported as not found.
func (s *Store) owned(owner, id string) (*ownedPlaylist, error) {
	p, ok := s.playlists[id]
	if !ok || p.owner != owner {
		return nil, fail(errNotFound, "Playlist not found")
	}
	return p, nil
}

func clonePlaylist(p models.Playlist) models.Playlist {
	p.Songs = slices.Clone(p.Songs)
	if p.Songs == nil {
		p.Songs = []models.Song{}
	}
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
