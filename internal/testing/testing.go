// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/server"
	"github.com/desertthunder/tracklist/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// MockPlaylists is a test double for services.Playlists. Nil funcs return zero values.
//
// Calls records the method names in call order.
type MockPlaylists struct {
	mu    sync.Mutex
	Calls []string

	ListFn       func(ctx context.Context) ([]models.Playlist, error)
	CreateFn     func(ctx context.Context, name string) (*models.Playlist, error)
	RenameFn     func(ctx context.Context, id, name string) (*models.Playlist, error)
	RemoveFn     func(ctx context.Context, id string) error
	GetFn        func(ctx context.Context, id string) (*models.Playlist, error)
	AddSongFn    func(ctx context.Context, playlistID string, song models.Song) (*models.AddSongResult, error)
	RemoveSongFn func(ctx context.Context, playlistID, songID string) error
}

func (m *MockPlaylists) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CallLog returns a copy of Calls.
func (m *MockPlaylists) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockPlaylists) List(ctx context.Context) ([]models.Playlist, error) {
	m.record("List")
	if m.ListFn == nil {
		return []models.Playlist{}, nil
	}
	return m.ListFn(ctx)
}

func (m *MockPlaylists) Create(ctx context.Context, name string) (*models.Playlist, error) {
	m.record("Create")
	if m.CreateFn == nil {
		return &models.Playlist{Name: name}, nil
	}
	return m.CreateFn(ctx, name)
}

func (m *MockPlaylists) Rename(ctx context.Context, id, name string) (*models.Playlist, error) {
	m.record("Rename")
	if m.RenameFn == nil {
		return &models.Playlist{ID: id, Name: name}, nil
	}
	return m.RenameFn(ctx, id, name)
}

func (m *MockPlaylists) Remove(ctx context.Context, id string) error {
	m.record("Remove")
	if m.RemoveFn == nil {
		return nil
	}
	return m.RemoveFn(ctx, id)
}

func (m *MockPlaylists) Get(ctx context.Context, id string) (*models.Playlist, error) {
	m.record("Get")
	if m.GetFn == nil {
		return &models.Playlist{ID: id}, nil
	}
	return m.GetFn(ctx, id)
}

func (m *MockPlaylists) AddSong(ctx context.Context, playlistID string, song models.Song) (*models.AddSongResult, error) {
	m.record("AddSong")
	if m.AddSongFn == nil {
		return &models.AddSongResult{Song: &song}, nil
	}
	return m.AddSongFn(ctx, playlistID, song)
}

func (m *MockPlaylists) RemoveSong(ctx context.Context, playlistID, songID string) error {
	m.record("RemoveSong")
	if m.RemoveSongFn == nil {
		return nil
	}
	return m.RemoveSongFn(ctx, playlistID, songID)
}

// MockSearcher is a test double for services.Searcher.
type MockSearcher struct {
	Results []models.SearchResult
	Err     error
	Queries []string
}

func (m *MockSearcher) Search(_ context.Context, query string) ([]models.SearchResult, error) {
	m.Queries = append(m.Queries, query)
	return m.Results, m.Err
}

// NewSandbox starts the in-memory playlist API under /api and returns the server and its API base URL.
//
// Passwords use the minimum bcrypt cost to keep tests fast.
func NewSandbox(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	sb := server.NewSandbox(server.NewStore(server.WithHashCost(bcrypt.MinCost)), shared.NewLogger(io.Discard))
	srv := httptest.NewServer(sb.Handler("/api"))
	t.Cleanup(srv.Close)

	return srv, srv.URL + "/api"
}

// RapidAPIRecord builds a spotify23 search item with the given artists and art sources.
func RapidAPIRecord(id, title string, artists []string, artURLs []string, durationMS int) string {
	type profile struct {
		Name string `json:"name"`
	}
	type artistItem struct {
		Profile profile `json:"profile"`
	}
	type source struct {
		URL string `json:"url"`
	}

	items := make([]artistItem, 0, len(artists))
	for _, a := range artists {
		items = append(items, artistItem{Profile: profile{Name: a}})
	}
	sources := make([]source, 0, len(artURLs))
	for _, u := range artURLs {
		sources = append(sources, source{URL: u})
	}

	record := map[string]any{
		"data": map[string]any{
			"id":      id,
			"name":    title,
			"artists": map[string]any{"items": items},
			"albumOfTrack": map[string]any{
				"name":     title + " (Album)",
				"coverArt": map[string]any{"sources": sources},
			},
			"duration": map[string]any{"totalMilliseconds": durationMS},
		},
	}

	data, err := shared.MarshalJSON(record, false)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
