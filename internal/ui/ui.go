package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/shared"
	"github.com/desertthunder/colorize/internal/tasks"
)

const (
	sliderStep  = 10
	sliderWidth = 30
)

// Options configures the TUI [Model].
type Options struct {
	OutputDir  string                 // Directory for downloads (default: current directory)
	CompareURL string                 // Local compare page; empty opens the colorized preview directly
	Open       func(url string) error // Browser launcher (default: shared.OpenBrowser)
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	ctrl   *tasks.Controller
	opts   Options
	state  tasks.State
	width  int
	input  textinput.Model
	bar    progress.Model
	spin   spinner.Model
	help   help.Model
	keys   keyMap
	slider int
	status string
	last   tasks.ProgressUpdate
}

// NewModel creates a new TUI model over ctrl.
func NewModel(ctx context.Context, ctrl *tasks.Controller, opts Options) *Model {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	input := textinput.New()
	input.Placeholder = "drop an image here or type a path (" + strings.Join(shared.ImageExtensions, " ") + ")"
	input.Prompt = "› "
	input.CharLimit = 4096
	input.Width = 60

	state := ctrl.State()
	if state.File == nil {
		input.Focus()
	}

	return &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		opts:   opts,
		state:  state,
		input:  input,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:   help.New(),
		keys:   newKeyMap(),
		slider: 50,
	}
}

// Init starts the cursor blink of the path field.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 8; w > 10 {
			m.input.Width = w
			m.bar.Width = min(w, 60)
		}
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.state.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.refresh()

	switch msg.kind {
	case MsgFileAccepted:
		data := msg.data.(struct {
			path string
			err  error
		})
		if data.err != nil {
			// Paths that never reached the controller have no error state of their own.
			if text := shared.UserMessage(data.err); text != m.state.Error {
				m.status = styles.err.Render("✗ " + text)
			}
			return m, nil
		}
		m.input.Reset()
		m.input.Blur()
		m.slider = 50
		m.status = ""
		return m, nil

	case MsgProgressUpdate:
		data := msg.data.(struct {
			update tasks.ProgressUpdate
			next   tea.Cmd
		})
		m.last = data.update
		return m, data.next

	case MsgSubmitComplete:
		data := msg.data.(struct {
			result *models.ColorizeResult
			err    error
		})
		if data.err == nil {
			m.status = "colorized " + data.result.Filename
		}
		return m, nil

	case MsgDownloaded:
		data := msg.data.(struct {
			path string
			n    int64
			err  error
		})
		if data.err != nil {
			m.status = styles.err.Render("download failed: " + shared.UserMessage(data.err))
		} else {
			m.status = fmt.Sprintf("saved %s (%s)", data.path, shared.FormatBytes(data.n))
		}
		return m, nil

	case MsgOpened:
		data := msg.data.(struct {
			url string
			err error
		})
		if data.err != nil {
			m.status = styles.warn.Render("could not open browser, visit " + data.url)
		} else {
			m.status = "opened " + data.url
		}
		return m, nil
	}

	return m, nil
}

// handleInputKeys routes keys to the path field. Pastes (terminal drops) load immediately.
func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		if m.state.File != nil {
			m.input.Reset()
			m.input.Blur()
		}
		return m, nil
	case key.Matches(msg, m.keys.accept):
		return m, m.accept(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if msg.Paste {
		return m, tea.Batch(cmd, m.accept(m.input.Value()))
	}
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.replace):
		m.status = ""
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.submit):
		if m.state.Busy || m.state.File == nil {
			return m, nil
		}
		return m, m.submit()

	case key.Matches(msg, m.keys.left):
		m.slider = max(0, m.slider-sliderStep)
		return m, nil

	case key.Matches(msg, m.keys.right):
		m.slider = min(100, m.slider+sliderStep)
		return m, nil

	case key.Matches(msg, m.keys.open):
		if m.state.Result == nil {
			return m, nil
		}
		return m, m.openCompare()

	case key.Matches(msg, m.keys.download):
		if m.state.Result == nil || m.state.Busy {
			return m, nil
		}
		return m, m.download()
	}
	return m, nil
}

func (m *Model) refresh() {
	m.state = m.ctrl.State()
}

func (m *Model) accept(path string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		cand, err := shared.OpenCandidate(path)
		if err != nil {
			return fileAcceptedMsg(path, err)
		}
		return fileAcceptedMsg(path, ctrl.Accept(cand))
	}
}

// submit starts the upload in the background and streams its progress back as messages.
func (m *Model) submit() tea.Cmd {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	ctx, ctrl := m.ctx, m.ctrl

	go func() {
		defer close(progressCh)
		result, err := ctrl.Submit(ctx, progressCh)
		done <- submitCompleteMsg(result, err)
	}()

	m.status = ""
	m.last = tasks.ProgressUpdate{}
	m.state.Busy = true
	m.state.Mode = models.Submitting
	m.state.Progress = 0
	return tea.Batch(m.spin.Tick, waitForProgress(progressCh, done))
}

func waitForProgress(progressCh <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progressCh
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update, waitForProgress(progressCh, done))
	}
}

func (m *Model) download() tea.Cmd {
	ctx, ctrl, dir := m.ctx, m.ctrl, m.opts.OutputDir

	return func() tea.Msg {
		dest, n, err := tasks.SaveResult(ctx, ctrl, dir)
		return downloadedMsg(dest, n, err)
	}
}

func (m *Model) openCompare() tea.Cmd {
	url := m.opts.CompareURL
	if url == "" {
		urls, _ := m.ctrl.DisplayURLs()
		url = urls.Preview
	}
	open := m.opts.Open

	return func() tea.Msg {
		return openedMsg(url, open(url))
	}
}

// View renders the UI for the current mode.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("colorize"))
	b.WriteString("\n")

	switch m.state.Mode {
	case models.Empty:
		b.WriteString("Drop a black-and-white photo onto this window, or type its path.\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")

	case models.HasFileNoResult:
		b.WriteString(m.renderFile())
		if m.input.Focused() {
			b.WriteString("\n")
			b.WriteString(m.input.View())
			b.WriteString("\n")
		}

	case models.Submitting:
		b.WriteString(m.renderFile())
		b.WriteString(fmt.Sprintf("\n%s Uploading... %d%%\n", m.spin.View(), m.state.Progress))
		b.WriteString(m.bar.ViewAs(float64(m.state.Progress) / 100))
		b.WriteString("\n")
		if m.last.Message != "" {
			b.WriteString(styles.help.Render(m.last.Message))
			b.WriteString("\n")
		}
		if m.input.Focused() {
			b.WriteString("\n")
			b.WriteString(m.input.View())
			b.WriteString("\n")
		}

	case models.HasResult:
		b.WriteString(m.renderFile())
		b.WriteString("\n")
		b.WriteString(m.renderResult())
		if m.input.Focused() {
			b.WriteString("\n")
			b.WriteString(m.input.View())
			b.WriteString("\n")
		}
	}

	if m.state.Error != "" {
		b.WriteString("\n")
		b.WriteString(styles.err.Render("✗ " + m.state.Error))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderFile() string {
	f := m.state.File
	if f == nil {
		return ""
	}

	lines := []string{
		fmt.Sprintf("%s %s", styles.label.Render("file:   "), f.Name),
		fmt.Sprintf("%s %s, %s", styles.label.Render("type:   "), f.MediaType, shared.FormatBytes(f.Size)),
	}
	if m.state.Preview != nil {
		lines = append(lines, fmt.Sprintf("%s %s", styles.label.Render("preview:"), m.state.Preview.URL))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderResult() string {
	urls, ok := m.ctrl.DisplayURLs()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Colorized"))
	b.WriteString("\n\n")
	b.WriteString(renderSlider(m.slider))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("result:  "), urls.Preview))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("download:"), urls.Download))
	return b.String()
}

// renderSlider draws the before/after divider at pos percent.
func renderSlider(pos int) string {
	pos = min(100, max(0, pos))
	split := pos * sliderWidth / 100

	return fmt.Sprintf("before %s┃%s after  %3d%%",
		styles.before.Render(strings.Repeat("▓", split)),
		styles.after.Render(strings.Repeat("░", sliderWidth-split)),
		pos,
	)
}

func (m *Model) helpKeys() []key.Binding {
	if m.input.Focused() {
		keys := []key.Binding{m.keys.accept}
		if m.state.File != nil {
			keys = append(keys, m.keys.cancel)
		}
		return append(keys, m.keys.forceQuit)
	}

	switch m.state.Mode {
	case models.Submitting:
		return []key.Binding{m.keys.quit}
	case models.HasResult:
		return []key.Binding{m.keys.left, m.keys.right, m.keys.open, m.keys.download, m.keys.submit, m.keys.replace, m.keys.quit}
	default:
		return []key.Binding{m.keys.submit, m.keys.replace, m.keys.quit}
	}
}
