package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	tu "github.com/desertthunder/tracklist/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutableToken struct{ token string }

func (m *mutableToken) Token() string { return m.token }

func newGateways(t *testing.T) (*AuthGateway, *PlaylistGateway, *mutableToken) {
	t.Helper()
	_, baseURL := tu.NewSandbox(t)

	tokens := &mutableToken{}
	api := NewAPIService(baseURL, nil, WithTokenSource(tokens))
	return NewAuthGateway(api), NewPlaylistGateway(api), tokens
}

func TestAuthGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("register then login yields the same user", func(t *testing.T) {
		auth, _, _ := newGateways(t)

		registered, err := auth.Register(ctx, "rae", "a@b.com", "x")
		require.NoError(t, err)
		assert.NotEmpty(t, registered.Token)
		assert.Equal(t, "rae", registered.User.Username)

		loggedIn, err := auth.Login(ctx, "a@b.com", "x")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	})

	t.Run("rejection carries the server message", func(t *testing.T) {
		auth, _, _ := newGateways(t)
		_, err := auth.Register(ctx, "rae", "a@b.com", "x")
		require.NoError(t, err)

		_, err = auth.Register(ctx, "rae", "a@b.com", "x")
		require.ErrorIs(t, err, shared.ErrAuth)
		assert.Equal(t, "User already exists", shared.DisplayMessage(err, RegistrationFailed))

		_, err = auth.Login(ctx, "a@b.com", "wrong")
		require.ErrorIs(t, err, shared.ErrAuth)
		assert.Equal(t, "Invalid credentials", shared.DisplayMessage(err, LoginFailed))
	})

	t.Run("network failure falls back to generic message", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		auth := NewAuthGateway(NewAPIService("http://example.com", client))

		_, err := auth.Login(ctx, "a@b.com", "x")
		require.ErrorIs(t, err, shared.ErrAuth)
		assert.ErrorIs(t, err, shared.ErrNetwork)
		assert.Equal(t, LoginFailed, shared.DisplayMessage(err, LoginFailed))
	})
}

func TestPlaylistGateway(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T) (*PlaylistGateway, *mutableToken) {
		auth, playlists, tokens := newGateways(t)
		result, err := auth.Register(ctx, "rae", "a@b.com", "x")
		require.NoError(t, err)
		tokens.token = result.Token
		return playlists, tokens
	}

	t.Run("without a token the server rejects with authorization error", func(t *testing.T) {
		_, playlists, _ := newGateways(t)

		_, err := playlists.List(ctx)
		assert.ErrorIs(t, err, shared.ErrAuthorization)
	})

	t.Run("create then list then delete", func(t *testing.T) {
		playlists, _ := login(t)

		created, err := playlists.Create(ctx, "Road Trip")
		require.NoError(t, err)

		list, err := playlists.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Road Trip", list[0].Name)
		assert.Equal(t, created.ID, list[0].ID)

		require.NoError(t, playlists.Remove(ctx, created.ID))

		list, err = playlists.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("rename is reflected by get", func(t *testing.T) {
		playlists, _ := login(t)
		created, err := playlists.Create(ctx, "Old")
		require.NoError(t, err)

		renamed, err := playlists.Rename(ctx, created.ID, "New")
		require.NoError(t, err)
		assert.Equal(t, "New", renamed.Name)

		got, err := playlists.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
	})

	t.Run("add and remove song", func(t *testing.T) {
		playlists, _ := login(t)
		created, err := playlists.Create(ctx, "Lofi")
		require.NoError(t, err)

		result, err := playlists.AddSong(ctx, created.ID, models.Song{ProviderID: "sp1", Title: "Rain", Artist: "Rae, Joe"})
		require.NoError(t, err)
		require.NotNil(t, result.Playlist)
		require.Len(t, result.Playlist.Songs, 1)

		got, err := playlists.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Songs, 1)
		song := got.Songs[0]
		assert.True(t, song.Persisted())
		assert.Equal(t, "sp1", song.ProviderID)

		require.NoError(t, playlists.RemoveSong(ctx, created.ID, song.ID))

		err = playlists.RemoveSong(ctx, created.ID, song.ID)
		assert.ErrorIs(t, err, shared.ErrRemoteRejection)

		got, err = playlists.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Songs)
	})

	t.Run("unknown playlist is a rejection with message", func(t *testing.T) {
		playlists, _ := login(t)

		_, err := playlists.Get(ctx, "missing")
		require.ErrorIs(t, err, shared.ErrRemoteRejection)
		assert.Equal(t, "Playlist not found", shared.DisplayMessage(err, ""))
	})

	t.Run("token is read on every call", func(t *testing.T) {
		playlists, tokens := login(t)
		_, err := playlists.List(ctx)
		require.NoError(t, err)

		tokens.token = ""
		_, err = playlists.List(ctx)
		assert.ErrorIs(t, err, shared.ErrAuthorization)
	})
}

func TestListSendsBearerToken(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	playlists := NewPlaylistGateway(NewAPIService(server.URL, nil, WithTokenSource(StaticToken("t1"))))
	list, err := playlists.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, "Bearer t1", header)
}

func TestDecodeAddSong(t *testing.T) {
	t.Run("playlist", func(t *testing.T) {
		result, err := decodeAddSong(json.RawMessage(`{"_id":"p1","name":"x","songs":[{"_id":"s1","spotifyId":"sp1"}]}`))
		require.NoError(t, err)
		require.NotNil(t, result.Playlist)
		assert.Nil(t, result.Song)
		assert.Equal(t, "s1", result.Playlist.Songs[0].ID)
	})

	t.Run("song", func(t *testing.T) {
		result, err := decodeAddSong(json.RawMessage(`{"_id":"s1","spotifyId":"sp1","title":"Rain"}`))
		require.NoError(t, err)
		require.NotNil(t, result.Song)
		assert.Nil(t, result.Playlist)
		assert.Equal(t, "s1", result.Song.ID)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := decodeAddSong(json.RawMessage(`[1,2]`))
		assert.ErrorIs(t, err, shared.ErrRemoteRejection)
	})
}
