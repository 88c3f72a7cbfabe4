package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgFileAccepted
	MsgProgressUpdate
	MsgSubmitComplete
	MsgDownloaded
	MsgOpened
)

// StateChangedMsg is sent by the host when the controller reports a change.
//
// It carries no snapshot; the model re-reads the controller so late deliveries never roll state back.
func StateChangedMsg() Msg {
	return Msg{kind: MsgStateChanged}
}

// fileAcceptedMsg is the constructor for [MsgFileAccepted]
func fileAcceptedMsg(path string, err error) Msg {
	return Msg{
		kind: MsgFileAccepted,
		data: struct {
			path string
			err  error
		}{path, err},
	}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]. next waits for the following update.
func progressUpdateMsg(update tasks.ProgressUpdate, next tea.Cmd) Msg {
	return Msg{
		kind: MsgProgressUpdate,
		data: struct {
			update tasks.ProgressUpdate
			next   tea.Cmd
		}{update, next},
	}
}

// submitCompleteMsg is the constructor for [MsgSubmitComplete]
func submitCompleteMsg(result *models.ColorizeResult, err error) Msg {
	return Msg{
		kind: MsgSubmitComplete,
		data: struct {
			result *models.ColorizeResult
			err    error
		}{result, err},
	}
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(path string, n int64, err error) Msg {
	return Msg{
		kind: MsgDownloaded,
		data: struct {
			path string
			n    int64
			err  error
		}{path, n, err},
	}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(url string, err error) Msg {
	return Msg{
		kind: MsgOpened,
		data: struct {
			url string
			err error
		}{url, err},
	}
}
