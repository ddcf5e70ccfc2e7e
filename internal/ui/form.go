package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/routes"
)

func newField(placeholder string, password bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 254
	ti.Width = 40
	if password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func loginFields() []textinput.Model {
	return []textinput.Model{newField("Email", false), newField("Password", true)}
}

func registerFields() []textinput.Model {
	return []textinput.Model{newField("Username", false), newField("Email", false), newField("Password", true)}
}

func (m *Model) focusField(i int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	m.focus = (i + len(m.fields)) % len(m.fields)
	for j := range m.fields {
		m.fields[j].Blur()
	}
	return m.fields[m.focus].Focus()
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) tea.Cmd {
	if m.busy {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.swap):
		if m.decision.Route == routes.Login {
			return m.navigate(routes.RegisterPath)
		}
		return m.navigate(routes.LoginPath)

	case msg.String() == "shift+tab" || msg.String() == "up":
		return m.focusField(m.focus - 1)

	case msg.String() == "tab" || msg.String() == "down":
		return m.focusField(m.focus + 1)

	case key.Matches(msg, m.keys.enter):
		if m.focus < len(m.fields)-1 {
			return m.focusField(m.focus + 1)
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	values := make([]string, len(m.fields))
	for i, f := range m.fields {
		values[i] = f.Value()
	}

	ctl := m.auth
	if m.decision.Route == routes.Register {
		return m.run(MsgAuthDone, func(ctx context.Context) error {
			return ctl.Register(ctx, values[0], values[1], values[2])
		})
	}
	return m.run(MsgAuthDone, func(ctx context.Context) error {
		return ctl.Login(ctx, values[0], values[1])
	})
}

func (m *Model) renderForm() string {
	title, other := "Login", "register"
	if m.decision.Route == routes.Register {
		title, other = "Register", "log in"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for _, f := range m.fields {
		b.WriteString(f.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.auth != nil {
		b.WriteString(errorLine(m.auth.State().Error))
	}

	swap := key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", other))
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	b.WriteString(fmt.Sprintf("\n%s", m.helpView(submit, m.keys.next, swap, m.keys.forceQuit)))
	return b.String()
}
