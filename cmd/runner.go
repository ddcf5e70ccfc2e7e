package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/repositories"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/session"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	prompt     prompter

	db        *sql.DB
	sessions  *session.Store
	api       *services.APIService
	auth      services.Authenticator
	playlists services.Playlists
	searcher  services.Searcher
	uploader  s3manageriface.UploaderAPI
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Gateways left nil are built from Config when the Runner is created, except the searcher and
// the S3 uploader, which need credentials and are built on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Prompter   prompter

	Sessions  *session.Store
	API       *services.APIService
	Auth      services.Authenticator
	Playlists services.Playlists
	Searcher  services.Searcher
	Uploader  s3manageriface.UploaderAPI
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{}
	r.apply(opts)
	return r
}

func (r *Runner) apply(opts RunnerOpts) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: time.Duration(opts.Config.API.TimeoutSeconds) * time.Second}
	}
	if opts.Prompter == nil {
		opts.Prompter = huhPrompter{}
	}
	if opts.Sessions == nil {
		opts.Sessions = session.New(session.WithLogger(opts.Logger))
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(
			opts.Config.API.BaseURL,
			opts.HTTPClient,
			services.WithTokenSource(opts.Sessions),
			services.WithAPILogger(shared.WithLogger(opts.Logger, "component", "api")),
		)
	}
	if opts.Auth == nil {
		opts.Auth = services.NewAuthGateway(opts.API)
	}
	if opts.Playlists == nil {
		opts.Playlists = services.NewPlaylistGateway(opts.API)
	}

	r.config = opts.Config
	r.configPath = opts.ConfigPath
	r.httpClient = opts.HTTPClient
	r.logger = opts.Logger
	r.output = opts.Output
	r.prompt = opts.Prompter
	r.sessions = opts.Sessions
	r.api = opts.API
	r.auth = opts.Auth
	r.playlists = opts.Playlists
	r.searcher = opts.Searcher
	r.uploader = opts.Uploader
}

// Configure is the root command's Before hook.
//
// It loads config.toml (or the embedded defaults), applies TRACKLIST_* overrides, rebuilds the
// gateways from the result, and restores the persisted session. A database that cannot be opened
// only costs session persistence.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", configPath)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}

	shared.ApplyEnv(config)
	if lvl := cmd.String("log-level"); lvl != "" {
		config.Log.Level = lvl
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))

	var sessionOpts []session.Option
	sessionOpts = append(sessionOpts, session.WithLogger(r.logger))

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		r.logger.Warn("session will not be persisted", "path", config.Database.Path, "error", err)
	} else {
		r.db = db
		sessionOpts = append(sessionOpts, session.WithPersister(repositories.NewSessionRepository(db)))
	}

	r.apply(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     r.logger,
		Output:     r.output,
		Prompter:   r.prompt,
		Sessions:   session.New(sessionOpts...),
	})

	if err := r.sessions.Restore(ctx); err != nil && !errors.Is(err, shared.ErrNoSession) {
		r.logger.Warn("failed to restore session", "error", err)
	}
	return ctx, nil
}

// Close is the root command's After hook.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger and rebuilds the API gateways so their tracing follows it.
func (r *Runner) SetLogger(l *log.Logger) {
	shared.SetLogLevel(l, shared.ParseLogLevel(r.config.Log.Level))
	r.apply(RunnerOpts{
		Config:     r.config,
		ConfigPath: r.configPath,
		HTTPClient: r.httpClient,
		Logger:     l,
		Output:     r.output,
		Prompter:   r.prompt,
		Sessions:   r.sessions,
		Searcher:   r.searcher,
		Uploader:   r.uploader,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, songsCommand, apiCommand, sandboxCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// searchGateway returns the configured searcher, building it from config on first use.
func (r *Runner) searchGateway(ctx context.Context) (services.Searcher, error) {
	if r.searcher != nil {
		return r.searcher, nil
	}

	provider, err := services.NewSearchProvider(ctx, r.config.Search, r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.searcher = services.NewSearchGateway(provider,
		services.WithRateLimit(r.config.Search.RateLimit),
		services.WithSearchLogger(shared.WithLogger(r.logger, "component", "search")),
	)
	return r.searcher, nil
}

// unavailableSearcher fails every search with err so the TUI still runs without search credentials.
type unavailableSearcher struct{ err error }

func (s unavailableSearcher) Search(context.Context, string) ([]models.SearchResult, error) {
	return nil, &shared.RemoteError{Kind: shared.ErrSearch, Err: s.err}
}

// requireSession fails fast for commands that call protected endpoints.
func (r *Runner) requireSession() error {
	if !r.sessions.Authenticated() {
		return fmt.Errorf("%w: run 'tracklist auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// fail prints msg for the user and returns err for the exit status.
func (r *Runner) fail(msg string, err error) error {
	r.writePlain("✗ %s\n", msg)
	return err
}
