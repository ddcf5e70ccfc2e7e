package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// gen is the navigation generation the message was issued under; results for a view the user
// has already left carry a stale gen and are dropped.
type Msg struct {
	kind MsgKind
	gen  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgAuthDone
	MsgHomeDone
	MsgPlaylistDone
	MsgSearchDone
	MsgProgressUpdate
	MsgCountdownTick
)

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s models.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}

// doneMsg is the constructor for the controller completion kinds; data is the call's error.
func doneMsg(kind MsgKind, gen int, err error) Msg {
	return Msg{kind: kind, gen: gen, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// countdownTickMsg is the constructor for [MsgCountdownTick]
func countdownTickMsg(gen int) Msg {
	return Msg{kind: MsgCountdownTick, gen: gen}
}

func (m Msg) err() error {
	err, _ := m.data.(error)
	return err
}
