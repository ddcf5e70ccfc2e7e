package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/routes"
)

func (m *Model) handleHomeKeys(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case InputMode:
		switch {
		case key.Matches(msg, m.keys.back):
			m.mode = BrowseMode
			return nil
		case key.Matches(msg, m.keys.enter):
			name := m.input.Value()
			m.mode = BrowseMode
			return m.run(MsgHomeDone, func(ctx context.Context) error { return m.home.Create(ctx, name) })
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd

	case ConfirmMode:
		switch {
		case key.Matches(msg, m.keys.yes):
			m.mode = BrowseMode
			return m.run(MsgHomeDone, m.home.ConfirmDelete)
		case key.Matches(msg, m.keys.no):
			m.mode = BrowseMode
			m.home.CancelDelete()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	case key.Matches(msg, m.keys.create):
		return m.openInput(createInput, "Playlist name", "")
	case key.Matches(msg, m.keys.refresh):
		return m.run(MsgHomeDone, m.home.Load)
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.homeList.SelectedItem().(playlistItem); ok {
			m.home.RequestDelete(item.playlist.ID)
			m.mode = ConfirmMode
		}
		return nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.homeList.SelectedItem().(playlistItem); ok {
			return m.navigate(routes.PlaylistPath(item.playlist.ID))
		}
		return nil
	}

	var cmd tea.Cmd
	m.homeList, cmd = m.homeList.Update(msg)
	return cmd
}

func (m *Model) renderHome() string {
	st := m.home.State()

	var b strings.Builder
	b.WriteString(errorLine(st.Error))

	switch {
	case len(st.Playlists) == 0 && !m.busy:
		b.WriteString(styles.title.Render("Your Playlists"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("No playlists yet. Press n to create one."))
		b.WriteString("\n")
	default:
		b.WriteString(m.homeList.View())
		b.WriteString("\n")
	}

	switch m.mode {
	case InputMode:
		b.WriteString(fmt.Sprintf("\nNew playlist: %s\n", m.input.View()))
		b.WriteString(m.helpView(m.keys.enter, m.keys.back))
	case ConfirmMode:
		name := st.PendingDelete
		for _, p := range st.Playlists {
			if p.ID == st.PendingDelete {
				name = p.Name
			}
		}
		b.WriteString(styles.warn.Render(fmt.Sprintf("\nDelete %q? This cannot be undone.", name)))
		b.WriteString("\n")
		b.WriteString(m.helpView(m.keys.yes, m.keys.no))
	default:
		open := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
		b.WriteString(m.helpView(open, m.keys.create, m.keys.remove, m.keys.refresh, m.keys.logout, m.keys.quit))
	}
	return b.String()
}
