package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/view"
	"github.com/urfave/cli/v3"
)

// TUICommand creates the interactive terminal UI command
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Search interactively in the terminal",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runTUI(ctx, c.String("config"))
		},
	}
}

func runTUI(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sess, err := newSession(cfg, "tui")
	if err != nil {
		return err
	}
	defer sess.Close()

	// Log lines would corrupt the alternate screen.
	restore, err := redirectLogs(configPath)
	if err != nil {
		return err
	}
	defer restore()

	p := tea.NewProgram(newTUIModel(sess, cfg.DefaultQuery), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// redirectLogs sends log output to tui.log next to the config file while
// debugging, and discards it otherwise.
func redirectLogs(configPath string) (func(), error) {
	restore := func() { log.SetOutput(os.Stderr) }
	if !log.GlobalDebug() {
		log.SetOutput(io.Discard)
		return restore, nil
	}

	f, err := os.OpenFile(filepath.Join(filepath.Dir(configPath), "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	log.SetOutput(f)
	return func() {
		restore()
		_ = f.Close()
	}, nil
}

// Messages

// snapshotMsg carries a session change.
type snapshotMsg session.Snapshot

// sessionClosedMsg is sent when the session's feed ends.
type sessionClosedMsg struct{}

// actionErrMsg reports a rejected user action.
type actionErrMsg struct{ err error }

// sortKeyBindings maps number keys to sortable columns.
var sortKeyBindings = map[string]view.SortKey{
	"0": view.SortNone,
	"1": view.SortTitle,
	"2": view.SortAuthor,
	"3": view.SortComments,
	"4": view.SortPoints,
}

var helpText = "/ search • enter submit • m more • d dismiss • 1-4 sort • 0 unsort • q quit"

type tuiModel struct {
	sess    *session.Session
	updates <-chan session.Snapshot

	snap    session.Snapshot
	sorter  view.Sorter
	cursor  int
	input   textinput.Model
	spinner spinner.Model
	notice  string
	width   int
	height  int
}

func newTUIModel(sess *session.Session, query string) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Search Hacker News"
	ti.Prompt = "🔎 "
	ti.SetValue(query)
	ti.CharLimit = 256

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	updates, _ := sess.Subscribe()
	return tuiModel{
		sess:    sess,
		updates: updates,
		input:   ti,
		spinner: s,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.updates), m.action(m.sess.Start))
}

// waitForSnapshot blocks on the next session change.
func waitForSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// action runs a session operation off the UI goroutine. The resulting state
// arrives through the subscription, so only errors are reported here.
func (m tuiModel) action(fn func() (session.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		if _, err := fn(); err != nil {
			return actionErrMsg{err}
		}
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.input.Focused() {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case snapshotMsg:
		if msg.Version >= m.snap.Version {
			m.snap = session.Snapshot(msg)
			m.clampCursor()
		}
		return m, waitForSnapshot(m.updates)

	case sessionClosedMsg:
		return m, tea.Quit

	case actionErrMsg:
		m.notice = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m tuiModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		m.notice = ""
		m.cursor = 0
		term := m.input.Value()
		return m, m.action(func() (session.Snapshot, error) { return m.sess.Submit(term) })
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if text := m.input.Value(); text != before {
		cmd = tea.Batch(cmd, m.action(func() (session.Snapshot, error) { return m.sess.ChangeQuery(text) }))
	}
	return m, cmd
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if sortKey, ok := sortKeyBindings[key]; ok {
		m.sorter = m.sorter.Toggle(sortKey)
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		term := m.input.Value()
		return m, m.action(func() (session.Snapshot, error) { return m.sess.Submit(term) })
	case "m":
		m.notice = ""
		return m, m.action(m.sess.LoadMore)
	case "d", "x":
		hits := m.visibleHits()
		if m.cursor < len(hits) {
			id := hits[m.cursor].ObjectID
			return m, m.action(func() (session.Snapshot, error) { return m.sess.Dismiss(id) })
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visibleHits())-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.visibleHits())-1, 0)
	}
	return m, nil
}

// visibleHits is the active term's hits in display order. A failed fetch
// hides the results.
func (m tuiModel) visibleHits() []core.Hit {
	if m.snap.Failed() {
		return nil
	}
	return m.sorter.Apply(m.snap.Hits)
}

func (m *tuiModel) clampCursor() {
	if n := len(m.visibleHits()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.snap.Failed():
		b.WriteString(errorStyle.Render("Something went wrong."))
		b.WriteString("\n")
	case m.snap.ActiveTerm != "":
		b.WriteString(renderSummary(m.snap.ActiveTerm, m.snap.Page, len(m.snap.Hits)))
		b.WriteString("\n")
		b.WriteString(m.renderRows())
		b.WriteString("\n")
	}

	if m.snap.IsLoading {
		b.WriteString(m.spinner.View() + " Loading ...\n")
	}
	if m.notice != "" {
		b.WriteString(metaStyle.Render(m.notice) + "\n")
	}
	b.WriteString(metaStyle.Render(helpText))
	return b.String()
}

// renderRows renders a window of the table that keeps the cursor visible.
func (m tuiModel) renderRows() string {
	hits := m.visibleHits()
	rows := len(hits)
	if m.height > 0 {
		// input, summary, borders, header, status and help lines
		rows = max(m.height-12, 1)
	}

	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(hits))
	return renderTable(hits[start:end], m.sorter, m.cursor-start)
}
