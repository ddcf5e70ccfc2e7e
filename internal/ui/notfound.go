package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/routes"
)

func (m *Model) handleNotFoundKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.enter):
		return m.navigate(routes.HomePath)
	}
	return nil
}

func (m *Model) renderNotFound() string {
	home := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go home now"))
	return fmt.Sprintf("%s\n%s\n\n%s",
		styles.title.Render("404 - Page not found"),
		styles.help.Render(fmt.Sprintf("No page at %s. Redirecting home in %d seconds...", m.notFound.Path(), m.notFound.Remaining())),
		m.helpView(home, m.keys.quit),
	)
}
