package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/app"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/routes"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/session"
	"github.com/desertthunder/tracklist/internal/tasks"
)

// Mode is the interaction mode inside a view.
type Mode int

const (
	BrowseMode  Mode = iota
	InputMode        // a single text input (create, rename, search) has focus
	ConfirmMode      // waiting for y/n on a delete
	ResultsMode      // moving through search results
)

type inputPurpose int

const (
	createInput inputPurpose = iota
	renameInput
	searchInput
)

// Deps are the collaborators the TUI drives.
type Deps struct {
	Sessions  *session.Store
	Auth      services.Authenticator
	Playlists services.Playlists
	Searcher  services.Searcher
	Logger    *log.Logger
}

// Model represents the TUI application state.
//
// It is a router: path plus the guard's decision select the active view controller.
type Model struct {
	ctx      context.Context
	deps     Deps
	logger   *log.Logger
	path     string
	decision routes.Decision
	gen      int
	mode     Mode

	auth     *app.AuthController
	home     *app.HomeController
	playlist *app.PlaylistController
	notFound *app.NotFoundController

	fields  []textinput.Model
	focus   int
	input   textinput.Model
	purpose inputPurpose

	homeList   list.Model
	songList   list.Model
	resultList list.Model

	spinner     spinner.Model
	busy        bool
	progress    tasks.ProgressUpdate
	progressCh  chan tasks.ProgressUpdate
	sessionCh   chan models.Session
	unsubscribe func()

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model that starts at path.
func NewModel(ctx context.Context, deps Deps, path string) *Model {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:        ctx,
		deps:       deps,
		logger:     deps.Logger,
		path:       path,
		spinner:    sp,
		progressCh: make(chan tasks.ProgressUpdate, 16),
		sessionCh:  make(chan models.Session, 8),
		homeList:   newList("Your Playlists"),
		songList:   newList("Songs"),
		resultList: newList("Search Results"),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init subscribes to session changes and resolves the starting path.
func (m *Model) Init() tea.Cmd {
	m.unsubscribe = m.deps.Sessions.Subscribe(func(s models.Session) {
		select {
		case m.sessionCh <- s:
		default:
		}
	})

	return tea.Batch(m.navigate(m.path), m.waitForSession(), m.waitForProgress(), m.spinner.Tick)
}

// Close releases the session subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Route returns the view currently rendered.
func (m *Model) Route() routes.Route { return m.decision.Route }

// Path returns the current path.
func (m *Model) Path() string { return m.path }

// navigate resolves path through the guard and swaps in a fresh controller for the target view.
func (m *Model) navigate(path string) tea.Cmd {
	authenticated := m.deps.Sessions.Authenticated()
	d := routes.Resolve(path, authenticated)
	if d.Redirected() {
		m.logger.Debug("route guard redirect", "from", path, "to", d.RedirectTo)
		path = d.RedirectTo
		d = routes.Resolve(path, authenticated)
	}

	m.gen++
	m.path = path
	m.decision = d
	m.mode = BrowseMode
	m.busy = false
	m.progress = tasks.ProgressUpdate{}
	m.logger.Debug("navigate", "path", path, "route", d.Route)

	switch d.Route {
	case routes.Login:
		m.auth = app.NewAuthController(m.deps.Auth, m.deps.Sessions, m.logger)
		m.fields = loginFields()
		return m.focusField(0)
	case routes.Register:
		m.auth = app.NewAuthController(m.deps.Auth, m.deps.Sessions, m.logger)
		m.fields = registerFields()
		return m.focusField(0)
	case routes.Home:
		m.home = app.NewHomeController(m.deps.Playlists, m.logger).WithProgress(m.progressCh)
		m.homeList.SetItems(nil)
		return m.run(MsgHomeDone, m.home.Load)
	case routes.Playlist:
		m.playlist = app.NewPlaylistController(d.Params["id"], m.deps.Playlists, m.deps.Searcher, m.logger).WithProgress(m.progressCh)
		m.songList.SetItems(nil)
		m.resultList.SetItems(nil)
		return m.run(MsgPlaylistDone, m.playlist.Load)
	default:
		m.notFound = app.NewNotFoundController(path)
		return m.tick()
	}
}

// run executes fn off the update loop and reports completion tagged with the current generation.
func (m *Model) run(kind MsgKind, fn func(ctx context.Context) error) tea.Cmd {
	gen := m.gen
	m.busy = true
	return func() tea.Msg {
		return doneMsg(kind, gen, fn(m.ctx))
	}
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return countdownTickMsg(gen) })
}

func (m *Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.sessionCh:
			return sessionChangedMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.progressCh:
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) logout() tea.Cmd {
	app.NewAuthController(m.deps.Auth, m.deps.Sessions, m.logger).Logout()
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.homeList, &m.songList, &m.resultList} {
			l.SetSize(msg.Width-4, max(msg.Height-12, 5))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m, m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.decision.Route {
		case routes.Login, routes.Register:
			return m, m.handleFormKeys(msg)
		case routes.Home:
			return m, m.handleHomeKeys(msg)
		case routes.Playlist:
			return m, m.handlePlaylistKeys(msg)
		default:
			return m, m.handleNotFoundKeys(msg)
		}
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgSessionChanged:
		cmds := []tea.Cmd{m.waitForSession()}
		if d := routes.Resolve(m.path, m.deps.Sessions.Authenticated()); d.Redirected() {
			cmds = append(cmds, m.navigate(d.RedirectTo))
		}
		return tea.Batch(cmds...)

	case MsgProgressUpdate:
		if update, ok := msg.data.(tasks.ProgressUpdate); ok {
			m.progress = update
		}
		return m.waitForProgress()
	}

	if msg.gen != m.gen {
		m.logger.Debug("dropping result for abandoned view", "kind", msg.kind)
		return nil
	}

	switch msg.kind {
	case MsgAuthDone:
		m.busy = false
		if msg.err() == nil {
			return m.navigate(routes.HomePath)
		}
		return m.focusField(m.focus)

	case MsgHomeDone:
		m.busy = false
		return m.homeList.SetItems(playlistItems(m.home.State().Playlists))

	case MsgPlaylistDone:
		m.busy = false
		st := m.playlist.State()
		cmds := []tea.Cmd{m.resultList.SetItems(songItems(st.Results))}
		if st.Playlist != nil {
			m.songList.Title = st.Playlist.Name
			cmds = append(cmds, m.songList.SetItems(songItems(st.Playlist.Songs)))
		} else {
			cmds = append(cmds, m.songList.SetItems(nil))
		}
		return tea.Batch(cmds...)

	case MsgSearchDone:
		m.busy = false
		st := m.playlist.State()
		if msg.err() == nil && len(st.Results) > 0 {
			m.mode = ResultsMode
		}
		return m.resultList.SetItems(songItems(st.Results))

	case MsgCountdownTick:
		if target, done := m.notFound.Tick(); done {
			return m.navigate(target)
		}
		return m.tick()
	}
	return nil
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.decision.Route == routes.Login || m.decision.Route == routes.Register:
		if m.focus < len(m.fields) {
			m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		}
	case m.mode == InputMode:
		m.input, cmd = m.input.Update(msg)
	}
	return cmd
}

func (m *Model) openInput(purpose inputPurpose, placeholder, value string) tea.Cmd {
	m.purpose = purpose
	m.mode = InputMode
	m.input = textinput.New()
	m.input.Placeholder = placeholder
	m.input.CharLimit = 120
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

// View renders the UI based on the current route.
func (m *Model) View() string {
	var body string
	switch m.decision.Route {
	case routes.Login, routes.Register:
		body = m.renderForm()
	case routes.Home:
		body = m.renderHome()
	case routes.Playlist:
		body = m.renderPlaylist()
	default:
		body = m.renderNotFound()
	}

	return fmt.Sprintf("%s\n\n%s\n%s", m.renderHeader(), body, m.renderStatus())
}

func (m *Model) renderHeader() string {
	header := styles.banner.Render("tracklist")
	if s := m.deps.Sessions.Session(); s.Authenticated() && s.User != nil {
		header += " " + styles.label.Render("signed in as "+s.User.Username)
	}
	return header
}

func (m *Model) renderStatus() string {
	if !m.busy {
		return ""
	}
	msg := m.progress.Message
	if msg == "" {
		msg = "Loading..."
	}
	return fmt.Sprintf("\n%s %s", m.spinner.View(), styles.help.Render(msg))
}

func (m *Model) helpView(bindings ...key.Binding) string {
	return m.help.ShortHelpView(bindings)
}

func errorLine(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return ""
	}
	return styles.err.Render(msg) + "\n"
}
