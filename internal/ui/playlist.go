package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/routes"
)

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case InputMode:
		switch {
		case key.Matches(msg, m.keys.back):
			m.mode = BrowseMode
			return nil
		case key.Matches(msg, m.keys.enter):
			value := m.input.Value()
			m.mode = BrowseMode
			if m.purpose == renameInput {
				return m.run(MsgPlaylistDone, func(ctx context.Context) error { return m.playlist.Rename(ctx, value) })
			}
			return m.run(MsgSearchDone, func(ctx context.Context) error { return m.playlist.Search(ctx, value) })
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd

	case ResultsMode:
		switch {
		case key.Matches(msg, m.keys.back), msg.String() == "tab":
			m.mode = BrowseMode
			return nil
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.resultList.SelectedItem().(songItem); ok {
				song := item.song
				m.mode = BrowseMode
				return m.run(MsgPlaylistDone, func(ctx context.Context) error { return m.playlist.AddSong(ctx, song) })
			}
			return nil
		}
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return cmd
	}

	m.playlist.DismissNotice()
	st := m.playlist.State()

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		return m.navigate(routes.HomePath)
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	case key.Matches(msg, m.keys.search):
		return m.openInput(searchInput, "Search Spotify for songs", st.Query)
	case key.Matches(msg, m.keys.rename):
		if st.Playlist == nil {
			return nil
		}
		return m.openInput(renameInput, "Playlist name", st.Playlist.Name)
	case key.Matches(msg, m.keys.refresh):
		return m.run(MsgPlaylistDone, m.playlist.Load)
	case msg.String() == "tab":
		if len(st.Results) > 0 {
			m.mode = ResultsMode
		}
		return nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.songList.SelectedItem().(songItem); ok && item.song.Persisted() {
			id := item.song.ID
			return m.run(MsgPlaylistDone, func(ctx context.Context) error { return m.playlist.RemoveSong(ctx, id) })
		}
		return nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return cmd
}

func (m *Model) renderPlaylist() string {
	st := m.playlist.State()

	var b strings.Builder
	if st.Playlist == nil && !st.Loading {
		b.WriteString(errorLine(st.Error))
		b.WriteString("\n")
		b.WriteString(m.helpView(m.keys.back, m.keys.quit))
		return b.String()
	}

	if st.Notice != "" {
		b.WriteString(styles.ok.Render(st.Notice))
		b.WriteString("\n")
	}

	if st.Playlist != nil && len(st.Playlist.Songs) == 0 {
		b.WriteString(styles.title.Render(st.Playlist.Name))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("No songs yet. Press / to search."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.songList.View())
		b.WriteString("\n")
	}

	if st.Searching {
		b.WriteString(fmt.Sprintf("\n%s Searching for %q...\n", m.spinner.View(), st.Query))
	} else if len(st.Results) > 0 {
		if m.mode == ResultsMode {
			b.WriteString("\n")
			b.WriteString(m.resultList.View())
			b.WriteString("\n")
		} else {
			b.WriteString(styles.label.Render(fmt.Sprintf("\n%d results for %q (tab to browse)\n", len(st.Results), st.Query)))
		}
	}

	switch m.mode {
	case InputMode:
		label := "Search"
		if m.purpose == renameInput {
			label = "Rename"
		}
		b.WriteString(fmt.Sprintf("\n%s: %s\n", label, m.input.View()))
		b.WriteString(m.helpView(m.keys.enter, m.keys.back))
	case ResultsMode:
		add := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add"))
		b.WriteString(m.helpView(m.keys.up, m.keys.down, add, m.keys.back))
	default:
		b.WriteString(m.helpView(m.keys.search, m.keys.rename, m.keys.remove, m.keys.refresh, m.keys.back, m.keys.quit))
	}
	return b.String()
}
