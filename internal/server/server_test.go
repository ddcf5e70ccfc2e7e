package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

func newTestSandbox(t *testing.T) *httptest.Server {
	t.Helper()
	sb := NewSandbox(NewStore(WithHashCost(bcrypt.MinCost)), shared.NewLogger(io.Discard))
	srv := httptest.NewServer(sb.Handler("/api"))
	t.Cleanup(srv.Close)
	return srv
}

type apiResult struct {
	status  int
	data    json.RawMessage
	message string
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) apiResult {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+"/api"+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	raw, _ := io.ReadAll(resp.Body)
	json.Unmarshal(raw, &env)

	return apiResult{status: resp.StatusCode, data: env.Data, message: env.Message}
}

func registerUser(t *testing.T, srv *httptest.Server, email string) models.AuthResult {
	t.Helper()
	res := call(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "rae", "email": email, "password": "x",
	})
	if res.status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", res.status, res.message)
	}

	var auth models.AuthResult
	if err := json.Unmarshal(res.data, &auth); err != nil {
		t.Fatalf("failed to decode auth result: %v", err)
	}
	return auth
}

func TestSandboxAuth(t *testing.T) {
	t.Run("Register Then Login", func(t *testing.T) {
		srv := newTestSandbox(t)
		registered := registerUser(t, srv, "a@b.com")

		res := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "A@B.com", "password": "x"})
		if res.status != http.StatusOK {
			t.Fatalf("login: expected 200, got %d", res.status)
		}

		var loggedIn models.AuthResult
		json.Unmarshal(res.data, &loggedIn)
		if loggedIn.User.ID != registered.User.ID {
			t.Errorf("expected same user id, got %s and %s", registered.User.ID, loggedIn.User.ID)
		}
		if loggedIn.Token == "" || loggedIn.Token == registered.Token {
			t.Errorf("expected a fresh token, got %q", loggedIn.Token)
		}
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		srv := newTestSandbox(t)
		registerUser(t, srv, "a@b.com")

		res := call(t, srv, http.MethodPost, "/auth/register", "", map[string]string{"username": "joe", "email": "a@b.com", "password": "y"})
		if res.status != http.StatusConflict {
			t.Errorf("expected 409, got %d", res.status)
		}
		if res.message != "User already exists" {
			t.Errorf("unexpected message %q", res.message)
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		srv := newTestSandbox(t)
		registerUser(t, srv, "a@b.com")

		res := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@b.com", "password": "nope"})
		if res.status != http.StatusBadRequest || res.message != "Invalid credentials" {
			t.Errorf("expected 400 Invalid credentials, got %d %q", res.status, res.message)
		}
	})

	t.Run("Missing Fields", func(t *testing.T) {
		srv := newTestSandbox(t)
		res := call(t, srv, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@b.com"})
		if res.status != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", res.status)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		srv := newTestSandbox(t)
		resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewBufferString("{"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestSandboxPlaylists(t *testing.T) {
	t.Run("Requires Token", func(t *testing.T) {
		srv := newTestSandbox(t)

		if res := call(t, srv, http.MethodGet, "/playlists", "", nil); res.status != http.StatusUnauthorized {
			t.Errorf("expected 401 without token, got %d", res.status)
		}
		if res := call(t, srv, http.MethodGet, "/playlists", "bogus", nil); res.status != http.StatusUnauthorized {
			t.Errorf("expected 401 with unknown token, got %d", res.status)
		}
	})

	t.Run("Create List Delete", func(t *testing.T) {
		srv := newTestSandbox(t)
		token := registerUser(t, srv, "a@b.com").Token

		res := call(t, srv, http.MethodPost, "/playlists", token, map[string]string{"name": "Road Trip"})
		if res.status != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", res.status)
		}
		var created models.Playlist
		json.Unmarshal(res.data, &created)

		var list []models.Playlist
		json.Unmarshal(call(t, srv, http.MethodGet, "/playlists", token, nil).data, &list)
		if len(list) != 1 || list[0].Name != "Road Trip" || list[0].ID != created.ID {
			t.Fatalf("expected exactly one Road Trip playlist, got %+v", list)
		}

		if res := call(t, srv, http.MethodDelete, "/playlists/"+created.ID, token, nil); res.status != http.StatusOK {
			t.Fatalf("delete: expected 200, got %d", res.status)
		}

		json.Unmarshal(call(t, srv, http.MethodGet, "/playlists", token, nil).data, &list)
		if len(list) != 0 {
			t.Errorf("expected no playlists after delete, got %d", len(list))
		}
	})

	t.Run("Rename", func(t *testing.T) {
		srv := newTestSandbox(t)
		token := registerUser(t, srv, "a@b.com").Token

		var p models.Playlist
		json.Unmarshal(call(t, srv, http.MethodPost, "/playlists", token, map[string]string{"name": "Old"}).data, &p)

		res := call(t, srv, http.MethodPut, "/playlists/"+p.ID, token, map[string]string{"name": "  New  "})
		if res.status != http.StatusOK {
			t.Fatalf("rename: expected 200, got %d", res.status)
		}
		json.Unmarshal(res.data, &p)
		if p.Name != "New" {
			t.Errorf("expected trimmed name New, got %q", p.Name)
		}

		if res := call(t, srv, http.MethodPut, "/playlists/"+p.ID, token, map[string]string{"name": " "}); res.status != http.StatusBadRequest {
			t.Errorf("expected 400 for blank name, got %d", res.status)
		}
	})

	t.Run("Other Users Playlists Are Hidden", func(t *testing.T) {
		srv := newTestSandbox(t)
		owner := registerUser(t, srv, "a@b.com").Token
		other := registerUser(t, srv, "c@d.com").Token

		var p models.Playlist
		json.Unmarshal(call(t, srv, http.MethodPost, "/playlists", owner, map[string]string{"name": "Mine"}).data, &p)

		if res := call(t, srv, http.MethodGet, "/playlists/"+p.ID, other, nil); res.status != http.StatusNotFound {
			t.Errorf("expected 404 for another user's playlist, got %d", res.status)
		}

		var list []models.Playlist
		json.Unmarshal(call(t, srv, http.MethodGet, "/playlists", other, nil).data, &list)
		if len(list) != 0 {
			t.Errorf("expected other user to see no playlists, got %d", len(list))
		}
	})

	t.Run("Songs", func(t *testing.T) {
		srv := newTestSandbox(t)
		token := registerUser(t, srv, "a@b.com").Token

		var p models.Playlist
		json.Unmarshal(call(t, srv, http.MethodPost, "/playlists", token, map[string]string{"name": "Lofi"}).data, &p)

		song := models.Song{ProviderID: "sp1", Title: "Rain", Artist: "Rae, Joe", Album: "Beats", DurationMS: shared.IntPtr(1000)}
		res := call(t, srv, http.MethodPost, "/playlists/"+p.ID+"/songs", token, song)
		if res.status != http.StatusCreated {
			t.Fatalf("add song: expected 201, got %d (%s)", res.status, res.message)
		}
		json.Unmarshal(res.data, &p)
		if len(p.Songs) != 1 || !p.Songs[0].Persisted() || p.Songs[0].ProviderID != "sp1" {
			t.Fatalf("expected one persisted song, got %+v", p.Songs)
		}

		songID := p.Songs[0].ID
		path := "/playlists/" + p.ID + "/songs/" + songID
		if res := call(t, srv, http.MethodDelete, path, token, nil); res.status != http.StatusOK {
			t.Fatalf("remove song: expected 200, got %d", res.status)
		}
		if res := call(t, srv, http.MethodDelete, path, token, nil); res.status != http.StatusNotFound {
			t.Errorf("second remove: expected 404, got %d", res.status)
		}

		json.Unmarshal(call(t, srv, http.MethodGet, "/playlists/"+p.ID, token, nil).data, &p)
		if len(p.Songs) != 0 {
			t.Errorf("expected no songs, got %d", len(p.Songs))
		}

		if res := call(t, srv, http.MethodPost, "/playlists/"+p.ID+"/songs", token, models.Song{Title: "no id"}); res.status != http.StatusBadRequest {
			t.Errorf("expected 400 for song without spotifyId, got %d", res.status)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		srv := newTestSandbox(t)
		if res := call(t, srv, http.MethodPatch, "/playlists", "", nil); res.status != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", res.status)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		group := r.Group()
		group.Use(mark("group"))

		r.HandleFunc(http.MethodGet, "/open", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		group.HandleFunc(http.MethodGet, "/closed", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/open", nil))
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected order for /open: %v", order)
		}

		order = nil
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/closed", nil))
		if len(order) != 3 || order[2] != "group" {
			t.Errorf("unexpected order for /closed: %v", order)
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recoverer(shared.NewLogger(io.Discard)))
		r.HandleFunc(http.MethodGet, "/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestSandboxListenAndServe(t *testing.T) {
	sb := NewSandbox(NewStore(WithHashCost(bcrypt.MinCost)), shared.NewLogger(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- sb.ListenAndServe(ctx, "127.0.0.1:0", "/api", func(a net.Addr) { addrCh <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/api/playlists")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
