package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
	tu "github.com/desertthunder/tracklist/internal/testing"
)

type fakePrompter struct {
	password string
	confirm  bool
	asked    []string
}

func (f *fakePrompter) Password(title string) (string, error) {
	f.asked = append(f.asked, title)
	return f.password, nil
}

func (f *fakePrompter) Confirm(title string) (bool, error) {
	f.asked = append(f.asked, title)
	return f.confirm, nil
}

// newTestRunner returns a runner wired to a fresh sandbox API.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *fakePrompter) {
	t.Helper()
	_, baseURL := tu.NewSandbox(t)

	config := shared.DefaultConfig()
	config.API.BaseURL = baseURL

	output := &bytes.Buffer{}
	prompt := &fakePrompter{password: "hunter2"}
	runner := NewRunner(RunnerOpts{
		Config:   config,
		Logger:   shared.NewLogger(io.Discard),
		Output:   output,
		Prompter: prompt,
		Searcher: &tu.MockSearcher{Results: []models.SearchResult{
			{Provider: shared.ProviderRapidAPI, Raw: json.RawMessage(tu.RapidAPIRecord("sp1", "Drive", []string{"Rae", "Joe"}, []string{"https://img.example/1.jpg"}, 215000))},
			{Provider: shared.ProviderRapidAPI, Raw: json.RawMessage(`{"data":{"name":"no id"}}`)},
		}},
	})
	return runner, output, prompt
}

// run executes args against the runner's commands without the config-loading Before hook.
func run(r *Runner, args ...string) error {
	root := &cli.Command{Name: "tracklist", Commands: r.register()}
	return root.Run(context.Background(), append([]string{"tracklist"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://example.test/api", httpClient)
			playlists := &tu.MockPlaylists{}
			searcher := &tu.MockSearcher{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Playlists:  playlists,
				Searcher:   searcher,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.playlists != playlists {
				t.Error("expected playlists to be set")
			}
			if runner.searcher != searcher {
				t.Error("expected searcher to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.api.BaseURL() != runner.config.API.BaseURL {
				t.Errorf("expected API at %s, got %s", runner.config.API.BaseURL, runner.api.BaseURL())
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("builds gateways and session store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.sessions == nil || runner.auth == nil || runner.playlists == nil {
				t.Fatal("expected session store and gateways to be built")
			}
			if runner.searcher != nil {
				t.Error("expected searcher to be built lazily")
			}
			if _, ok := runner.prompt.(huhPrompter); !ok {
				t.Errorf("expected huh prompter by default, got %T", runner.prompt)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make([]string, 0, len(commands))
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}
		assert.Equal(t, []string{"setup", "auth", "playlists", "songs", "api", "sandbox", "tui"}, names)
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("RegisterPromptsForPassword", func(t *testing.T) {
		r, out, prompt := newTestRunner(t)

		require.NoError(t, run(r, "auth", "register", "--username", "rae", "--email", "rae@example.com"))
		assert.Equal(t, []string{"Password"}, prompt.asked)
		assert.Contains(t, out.String(), "Registered and signed in as rae")
		assert.True(t, r.sessions.Authenticated())
	})

	t.Run("LoginWithWrongPasswordKeepsSessionEmpty", func(t *testing.T) {
		r, out, _ := newTestRunner(t)
		require.NoError(t, run(r, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "right"))
		require.NoError(t, run(r, "auth", "logout"))

		err := run(r, "auth", "login", "--email", "rae@example.com", "--password", "wrong")
		require.Error(t, err)
		assert.False(t, r.sessions.Authenticated())
		assert.Contains(t, out.String(), "✗ ")
	})

	t.Run("StatusAndLogout", func(t *testing.T) {
		r, out, _ := newTestRunner(t)
		require.NoError(t, run(r, "auth", "status"))
		assert.Contains(t, out.String(), "Not signed in")

		require.NoError(t, run(r, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "pw"))
		out.Reset()
		require.NoError(t, run(r, "auth", "status", "--json"))

		var status authStatus
		require.NoError(t, json.Unmarshal(out.Bytes(), &status))
		assert.True(t, status.Authenticated)
		assert.Equal(t, "rae", status.Username)
		assert.NotNil(t, status.SignedInAt)

		out.Reset()
		require.NoError(t, run(r, "auth", "logout"))
		assert.Contains(t, out.String(), "Signed out")
		assert.False(t, r.sessions.Authenticated())
	})
}

func TestPlaylistAndSongCommands(t *testing.T) {
	r, out, prompt := newTestRunner(t)
	ctx := context.Background()

	err := run(r, "playlists", "list")
	require.ErrorIs(t, err, shared.ErrNotAuthenticated)

	require.NoError(t, run(r, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "pw"))

	out.Reset()
	require.NoError(t, run(r, "playlists", "create", "Road Trip"))
	assert.Contains(t, out.String(), `Created playlist "Road Trip"`)
	assert.Contains(t, out.String(), "0 songs")

	playlists, err := r.playlists.List(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	id := playlists[0].ID

	t.Run("AddPicksSearchResult", func(t *testing.T) {
		out.Reset()
		require.NoError(t, run(r, "songs", "add", id, "rae joe"))
		assert.Contains(t, out.String(), "Song added to playlist: Drive - Rae, Joe")
		assert.Contains(t, out.String(), "[3:35]")
	})

	var songID string
	t.Run("ShowJSON", func(t *testing.T) {
		out.Reset()
		require.NoError(t, run(r, "playlists", "show", id, "--json"))

		var p models.Playlist
		require.NoError(t, json.Unmarshal(out.Bytes(), &p))
		require.Len(t, p.Songs, 1)
		assert.Equal(t, "Rae, Joe", p.Songs[0].Artist)
		assert.Equal(t, "sp1", p.Songs[0].ProviderID)
		songID = p.Songs[0].ID
		require.NotEmpty(t, songID)
	})

	t.Run("RemoveTwice", func(t *testing.T) {
		out.Reset()
		require.NoError(t, run(r, "songs", "remove", id, songID))
		assert.Contains(t, out.String(), "Song removed from playlist")

		out.Reset()
		err := run(r, "songs", "remove", id, songID)
		assert.ErrorIs(t, err, shared.ErrRemoteRejection)
		assert.Contains(t, out.String(), "Failed to remove song")
	})

	t.Run("Rename", func(t *testing.T) {
		out.Reset()
		require.NoError(t, run(r, "playlists", "rename", id, "  Night Drive "))
		assert.Contains(t, out.String(), "Playlist renamed: Night Drive")

		err := run(r, "playlists", "rename", id, "   ")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("PickOutOfRange", func(t *testing.T) {
		err := run(r, "songs", "add", id, "rae joe", "--pick", "5")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("DeleteAsksFirst", func(t *testing.T) {
		prompt.confirm = false
		out.Reset()
		require.NoError(t, run(r, "playlists", "delete", id))
		assert.Contains(t, out.String(), "Canceled")

		out.Reset()
		require.NoError(t, run(r, "playlists", "delete", id, "--yes"))
		assert.Contains(t, out.String(), "No playlists yet")
	})
}

func TestSongsSearch(t *testing.T) {
	r, out, _ := newTestRunner(t)

	require.NoError(t, run(r, "songs", "search", "rae joe", "--json"))

	var songs []models.Song
	require.NoError(t, json.Unmarshal(out.Bytes(), &songs))
	require.Len(t, songs, 1, "malformed record is skipped")
	assert.Equal(t, "Drive", songs[0].Title)

	failing := NewRunner(RunnerOpts{
		Output:   &bytes.Buffer{},
		Logger:   shared.NewLogger(io.Discard),
		Searcher: &tu.MockSearcher{Err: &shared.RemoteError{Kind: shared.ErrSearch}},
	})
	err := run(failing, "songs", "search", "anything")
	assert.ErrorIs(t, err, shared.ErrSearch)
	assert.Contains(t, failing.output.(*bytes.Buffer).String(), "Spotify search failed")
}

func TestExportCommand(t *testing.T) {
	r, out, _ := newTestRunner(t)
	require.NoError(t, run(r, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "pw"))
	require.NoError(t, run(r, "playlists", "create", "Road Trip"))
	require.NoError(t, run(r, "playlists", "create", "Focus"))

	dir := t.TempDir()
	out.Reset()
	require.NoError(t, run(r, "playlists", "export", "--format", "csv", "--output", dir, "--rate", "100"))

	assert.Contains(t, out.String(), "Playlists: 2 exported, 0 failed")
	assert.Contains(t, out.String(), "✓ Focus (2 files)")
	tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	assert.Contains(t, tu.MustReadFile(t, filepath.Join(dir, "export_manifest.json")), `"format": "csv"`)
}

func TestAPICommands(t *testing.T) {
	r, out, _ := newTestRunner(t)
	require.NoError(t, run(r, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "pw"))

	t.Run("PostThenGet", func(t *testing.T) {
		out.Reset()
		require.NoError(t, run(r, "api", "post", "/playlists", "--data", `{"name":"Raw"}`))
		assert.Contains(t, out.String(), `"name": "Raw"`)

		out.Reset()
		require.NoError(t, run(r, "api", "get", "/playlists"))
		assert.Contains(t, out.String(), "Raw")
	})

	t.Run("PostRejectsInvalidJSON", func(t *testing.T) {
		err := run(r, "api", "post", "/playlists", "--data", "{nope")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("GetUnknownPlaylistFails", func(t *testing.T) {
		err := run(r, "api", "get", "/playlists/missing")
		assert.ErrorIs(t, err, shared.ErrRemoteRejection)
	})

	t.Run("DumpSavesFile", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		out.Reset()
		require.NoError(t, run(r, "api", "dump", "--save"))
		tu.AssertFileExists(t, "api_dump.json")

		var dump apiDump
		require.NoError(t, json.Unmarshal(out.Bytes(), &dump))
		require.Len(t, dump.Playlists, 1)
		assert.Equal(t, "rae", dump.User.Username)
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "tracklist.db")

	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})

	t.Run("Config", func(t *testing.T) {
		require.NoError(t, run(r, "setup", "config"))
		tu.AssertFileExists(t, r.configPath)
		assert.Contains(t, tu.MustReadFile(t, r.configPath), "[sandbox]")

		err := run(r, "setup", "config")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		r.config.Sandbox.Port = 6001
		require.NoError(t, run(r, "setup", "config", "--force"))
		reloaded, err := shared.LoadConfig(r.configPath)
		require.NoError(t, err)
		assert.Equal(t, 6001, reloaded.Sandbox.Port)
	})

	t.Run("Database", func(t *testing.T) {
		output.Reset()
		require.NoError(t, run(r, "setup", "database", "--purge"))
		assert.Contains(t, output.String(), "Purged 0 signed-out sessions")
		assert.Contains(t, output.String(), "schema version 1")
	})
}

func TestConfigureRestoresSession(t *testing.T) {
	_, baseURL := tu.NewSandbox(t)
	dir := t.TempDir()
	t.Setenv(shared.EnvAPIURL, "")
	t.Setenv(shared.EnvDatabasePath, "")

	config := shared.DefaultConfig()
	config.API.BaseURL = baseURL
	config.Database.Path = filepath.Join(dir, "tracklist.db")
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, shared.SaveConfig(configPath, config))

	newCLI := func() (*Runner, *bytes.Buffer) {
		output := &bytes.Buffer{}
		return NewRunner(RunnerOpts{
			Logger:   shared.NewLogger(io.Discard),
			Output:   output,
			Prompter: &fakePrompter{},
		}), output
	}

	first, _ := newCLI()
	require.NoError(t, newApp(first).Run(context.Background(), []string{
		"tracklist", "--config", configPath, "auth", "register", "-u", "rae", "-e", "rae@example.com", "--password", "pw",
	}))
	assert.Nil(t, first.db, "After hook closes the database")

	second, output := newCLI()
	require.NoError(t, newApp(second).Run(context.Background(), []string{"tracklist", "--config", configPath, "auth", "status"}))
	assert.Contains(t, output.String(), "Signed in as rae")
	assert.Contains(t, output.String(), baseURL)

	third, output := newCLI()
	require.NoError(t, newApp(third).Run(context.Background(), []string{"tracklist", "-c", configPath, "playlists", "list"}))
	assert.Contains(t, output.String(), "No playlists yet")

	t.Run("InvalidConfig", func(t *testing.T) {
		bad := shared.DefaultConfig()
		bad.Search.Provider = "napster"
		badPath := filepath.Join(dir, "bad.toml")
		require.NoError(t, shared.SaveConfig(badPath, bad))

		r, _ := newCLI()
		err := newApp(r).Run(context.Background(), []string{"tracklist", "-c", badPath, "auth", "status"})
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})
}
