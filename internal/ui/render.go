package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/onair/internal/prefs"
	"github.com/five82/onair/internal/state"
)

// Badge names double as StatusColors keys.
const (
	badgeInitializing = "STARTING"
	badgeOnAir        = "ON AIR"
	badgeOffline      = "OFFLINE"
	badgeAPIError     = "API ERROR"
)

func statusBadge(s state.Status) string {
	switch s.Kind() {
	case state.KindSuccess:
		return badgeOnAir
	case state.KindError:
		if s.IsError(state.NoInternetConnection) {
			return badgeOffline
		}
		return badgeAPIError
	default:
		return badgeInitializing
	}
}

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	switch m.current {
	case screenLogs:
		b.WriteString(m.logs.View())
	default:
		b.WriteString(m.renderHistory())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the status bar: logo, badge, now playing and
// poll diagnostics.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	now := m.clock()

	parts := []string{
		styles.Logo.Render("onair"),
		styles.StatusStyle(statusBadge(snap.Status)).Render(statusBadge(snap.Status)),
	}

	if len(m.records) > 0 {
		latest := m.records[0]
		parts = append(parts, styles.Text.Render(latest.Title)+styles.MutedText.Render(" – "+latest.Artist))
	}

	if !snap.Since.IsZero() {
		parts = append(parts, styles.MutedText.Render("since "+humanize.RelTime(snap.Since, now, "ago", "from now")))
	}
	if !snap.LastChecked.IsZero() {
		parts = append(parts, styles.FaintText.Render("checked "+snap.LastChecked.In(time.Local).Format("15:04:05")))
	}
	if snap.ConsecutiveFailures > 1 {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d failed polls", snap.ConsecutiveFailures)))
	}
	if snap.LastError != nil {
		parts = append(parts, styles.MutedText.Render(truncate(snap.LastError.Error(), 60)))
	}
	if m.pollEvery > 0 {
		parts = append(parts, styles.FaintText.Render("every "+m.pollEvery.String()))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderHistory() string {
	if len(m.records) > 0 {
		return m.table.View()
	}
	styles := m.theme.Styles()
	msg := "Waiting for the first track..."
	if _, ok := m.snapshot.Status.History(); ok {
		msg = "No tracks recorded yet."
	}
	return lipgloss.Place(m.width, m.table.Height(), lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
}

func (m Model) renderLogContent() string {
	if len(m.logLines) == 0 {
		if m.logPath == "" {
			return "Logging to file is disabled."
		}
		return "No log entries yet in " + m.logPath
	}
	return strings.Join(m.logLines, "\n")
}

// renderFooter shows the toast while it is active, otherwise key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.toast != "" {
		return styles.Toast.Render(m.toast)
	}
	left := m.help.ShortHelpView(m.keys.ShortHelp())
	right := fmt.Sprintf("%s · %s · %s", m.theme.Name, m.timeStyle, humanize.Comma(int64(len(m.records)))+" tracks")
	if m.prefsErr != nil {
		right = styles.DangerText.Render("prefs: " + m.prefsErr.Error())
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.Footer.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	titles := []string{"Views", "Navigation", "General"}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	sections := m.keys.FullHelp()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for i, bindings := range sections {
		if i < len(titles) {
			b.WriteString(styles.AccentText.Bold(true).Render(titles[i]))
			b.WriteString("\n")
		}
		for _, binding := range bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// historyColumns splits width between Title, Artist and Played.
func historyColumns(width int) []table.Column {
	const playedWidth = 20
	avail := max(width-playedWidth-6, 20)
	title := avail * 55 / 100
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Artist", Width: avail - title},
		{Title: "Played", Width: playedWidth},
	}
}

// formatTimestamp renders ts relative to now ("3 minutes ago") or as a
// local clock time, dropping the date for today.
func formatTimestamp(ts, now time.Time, style prefs.TimeStyle) string {
	if ts.IsZero() {
		return "-"
	}
	if style == prefs.TimeAbsolute {
		local := ts.In(time.Local)
		ny, nm, nd := now.In(time.Local).Date()
		if y, mo, d := local.Date(); y == ny && mo == nm && d == nd {
			return local.Format("15:04:05")
		}
		return local.Format("2006-01-02 15:04")
	}
	return humanize.RelTime(ts, now, "ago", "from now")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
