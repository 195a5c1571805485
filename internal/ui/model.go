package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/onair/internal/history"
	"github.com/five82/onair/internal/logtail"
	"github.com/five82/onair/internal/prefs"
	"github.com/five82/onair/internal/state"
)

const (
	tickInterval  = time.Second
	toastDuration = 4 * time.Second
	logTailLines  = 400
)

// screen is the active main view.
type screen int

const (
	screenHistory screen = iota
	screenLogs
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Feed      *state.Feed
	LogPath   string
	PollEvery time.Duration
	ThemeName string
	TimeStyle prefs.TimeStyle
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	feed      *state.Feed
	logPath   string
	prefsPath string
	pollEvery time.Duration
	now       func() time.Time

	keys      keyMap
	help      help.Model
	theme     Theme
	timeStyle prefs.TimeStyle

	width    int
	height   int
	ready    bool
	current  screen
	showHelp bool

	snapshots <-chan state.Snapshot
	snapshot  state.Snapshot
	lastSeq   uint64

	view    *history.View
	updates <-chan []history.Record
	records []history.Record

	table    table.Model
	logs     viewport.Model
	logLines []string

	toast      string
	toastUntil time.Time
	prefsErr   error
}

// New creates a new Bubble Tea model and starts watching the feed.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	style := opts.TimeStyle
	if style == "" {
		style = prefs.TimeRelative
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(themeName)
	t := table.New(
		table.WithColumns(historyColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(theme.TableStyles()),
	)

	m := Model{
		ctx:       ctx,
		feed:      opts.Feed,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		pollEvery: opts.PollEvery,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     theme,
		timeStyle: style,
		table:     t,
		logs:      viewport.New(80, 10),
	}
	if opts.Feed != nil {
		m.snapshots = opts.Feed.Watch(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshot(m.snapshots),
		tickCmd(tickInterval),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case snapshotMsg:
		return m, m.applySnapshot(state.Snapshot(msg))

	case historyMsg:
		m.records = msg
		m.refreshRows()
		return m, waitHistory(m.updates)

	case logsMsg:
		m.logLines = msg
		m.logs.SetContent(m.renderLogContent())
		m.logs.GotoBottom()
		return m, nil

	case prefsSavedMsg:
		m.prefsErr = msg.err
		return m, nil

	case tickMsg:
		return m.handleTick()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.table.SetStyles(m.theme.TableStyles())
		return m, m.savePrefs()
	case key.Matches(msg, m.keys.ToggleTime):
		m.timeStyle = m.timeStyle.Toggle()
		m.refreshRows()
		return m, m.savePrefs()
	case key.Matches(msg, m.keys.Tab):
		if m.current == screenHistory {
			return m.switchTo(screenLogs)
		}
		return m.switchTo(screenHistory)
	case key.Matches(msg, m.keys.ViewHistory):
		return m.switchTo(screenHistory)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchTo(screenLogs)
	}

	var cmd tea.Cmd
	switch m.current {
	case screenHistory:
		m.table, cmd = m.table.Update(msg)
	case screenLogs:
		m.logs, cmd = m.logs.Update(msg)
	}
	return m, cmd
}

func (m Model) switchTo(s screen) (tea.Model, tea.Cmd) {
	m.current = s
	if s == screenLogs {
		return m, loadLogsCmd(m.logPath)
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(tickInterval)}
	if m.toast != "" && !m.clock().Before(m.toastUntil) {
		m.toast = ""
	}
	if m.timeStyle == prefs.TimeRelative {
		m.refreshRows()
	}
	if m.current == screenLogs {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot records a new feed snapshot. A toast is raised only when
// the snapshot entered an error state since the last one seen, so a
// persisting error does not re-notify every poll.
func (m *Model) applySnapshot(snap state.Snapshot) tea.Cmd {
	m.snapshot = snap
	if snap.Entered(m.lastSeq) {
		if variant, ok := snap.Status.Error(); ok {
			m.showToast(toastText(variant))
		}
	}
	m.lastSeq = snap.Seq

	cmds := []tea.Cmd{waitSnapshot(m.snapshots)}
	if h, ok := snap.Status.History(); ok && h != nil && h != m.view {
		m.view = h
		m.updates = h.Subscribe(m.ctx)
		cmds = append(cmds, waitHistory(m.updates))
	}
	return tea.Batch(cmds...)
}

func (m *Model) showToast(text string) {
	m.toast = text
	m.toastUntil = m.clock().Add(toastDuration)
}

func toastText(variant state.ErrorVariant) string {
	switch variant {
	case state.NoInternetConnection:
		return "No internet connection"
	case state.ResponseError:
		return "Response error"
	default:
		return "Error"
	}
}

func (m *Model) refreshRows() {
	now := m.clock()
	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		rows[i] = table.Row{r.Title, r.Artist, formatTimestamp(r.Timestamp, now, m.timeStyle)}
	}
	m.table.SetRows(rows)
}

func (m *Model) resize() {
	// header, footer and their separators
	bodyHeight := max(m.height-4, 3)
	m.table.SetColumns(historyColumns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(bodyHeight)
	m.logs.Width = m.width
	m.logs.Height = bodyHeight
	m.logs.SetContent(m.renderLogContent())
	m.help.Width = m.width
}

func (m Model) savePrefs() tea.Cmd {
	path := m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, TimeStyle: m.timeStyle}
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func (m Model) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type historyMsg []history.Record

type logsMsg []string

type prefsSavedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitSnapshot(ch <-chan state.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitHistory(ch <-chan []history.Record) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		recs, ok := <-ch
		if !ok {
			return nil
		}
		return historyMsg(recs)
	}
}

func loadLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logsMsg{"failed to read log: " + err.Error()}
		}
		return logsMsg(logtail.FormatLines(lines))
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or
// the context ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
