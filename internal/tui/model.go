package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"head-cleaner/internal/admin"
	"head-cleaner/internal/server"
)

const maxRecent = 20

// Config holds the static information displayed in the TUI header.
type Config struct {
	Version    string
	SiteName   string
	Store      string
	ListenAddr string
}

// activity is one line of the recent activity log.
type activity struct {
	kind   string
	detail string
	extra  string
	size   int
	at     time.Time
}

// Model is the Bubble Tea model for the head-cleaner dashboard.
type Model struct {
	cfg      Config
	renderCh <-chan server.RenderEvent
	saveCh   <-chan admin.SaveEvent
	ctx      context.Context
	errCount *atomic.Int64
	renders  int
	saves    int
	errors   int64
	last     time.Time
	recent   []activity
}

// NewModel creates a new TUI model.
func NewModel(cfg Config, renderCh <-chan server.RenderEvent, saveCh <-chan admin.SaveEvent, ctx context.Context, errCount *atomic.Int64) Model {
	return Model{
		cfg:      cfg,
		renderCh: renderCh,
		saveCh:   saveCh,
		ctx:      ctx,
		errCount: errCount,
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// --- Messages ---

type renderMsg server.RenderEvent
type saveMsg admin.SaveEvent
type tickMsg time.Time

// --- Bubble Tea interface ---

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForRender(m.renderCh, m.ctx),
		waitForSave(m.saveCh, m.ctx),
		tickEvery(time.Second),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case renderMsg:
		evt := server.RenderEvent(msg)
		m.renders++
		m.last = evt.Timestamp
		extra := fmt.Sprintf("-%d", evt.Removed)
		if evt.Intercept {
			extra += " +pb"
		}
		m.push(activity{kind: "RENDER", detail: evt.Path, extra: extra, size: evt.Bytes, at: evt.Timestamp})
		return m, waitForRender(m.renderCh, m.ctx)

	case saveMsg:
		evt := admin.SaveEvent(msg)
		m.saves++
		m.push(activity{
			kind:   "SAVE",
			detail: evt.User,
			extra:  fmt.Sprintf("%d checked", len(evt.Checked)),
			at:     evt.Timestamp,
		})
		return m, waitForSave(m.saveCh, m.ctx)

	case tickMsg:
		m.errors = m.errCount.Load()
		return m, tickEvery(time.Second)
	}

	return m, nil
}

func (m *Model) push(a activity) {
	m.recent = append([]activity{a}, m.recent...)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[:maxRecent]
	}
}

func (m Model) View() string {
	var b strings.Builder

	sep := sepStyle.Render(strings.Repeat("─", 56))

	b.WriteString(sep + "\n")
	b.WriteString("  " + titleStyle.Render(fmt.Sprintf("head-cleaner %s", m.cfg.Version)) + "\n")
	b.WriteString(sep + "\n")

	b.WriteString("  " + labelStyle.Render("Site:") + "       " + valueStyle.Render(m.cfg.SiteName) + "\n")
	b.WriteString("  " + labelStyle.Render("Store:") + "      " + valueStyle.Render(m.cfg.Store) + "\n")
	b.WriteString("  " + labelStyle.Render("Listening:") + "  " + valueStyle.Render(m.cfg.ListenAddr) + "\n")
	b.WriteString(sep + "\n")

	errLabel := fmt.Sprintf("Errors: %d", m.errors)
	if m.errors > 0 {
		errLabel = errorStyle.Render(errLabel)
	} else {
		errLabel = valueStyle.Render(errLabel)
	}

	lastStr := "never"
	if !m.last.IsZero() {
		lastStr = fmt.Sprintf("%s ago", time.Since(m.last).Truncate(time.Second))
	}

	b.WriteString(fmt.Sprintf("  %s   %s   %s   %s\n",
		valueStyle.Render(fmt.Sprintf("Renders: %d", m.renders)),
		valueStyle.Render(fmt.Sprintf("Saves: %d", m.saves)),
		errLabel,
		valueStyle.Render(fmt.Sprintf("Last: %s", lastStr)),
	))
	b.WriteString(sep + "\n")

	b.WriteString("  " + titleStyle.Render("Recent Activity") + "\n")
	if len(m.recent) == 0 {
		b.WriteString("  " + dimStyle.Render("Waiting for requests...") + "\n")
	} else {
		for _, a := range m.recent {
			kind := kindStyle(a.kind).Render(fmt.Sprintf("%-7s", a.kind))
			detail := dimStyle.Render(fmt.Sprintf("%-18s", a.detail))
			extra := dimStyle.Render(fmt.Sprintf("%-10s", a.extra))
			size := dimStyle.Render(fmt.Sprintf("%8s", ""))
			if a.size > 0 {
				size = dimStyle.Render(fmt.Sprintf("%8s", formatBytes(a.size)))
			}
			at := dimStyle.Render(a.at.Local().Format("15:04:05"))
			b.WriteString(fmt.Sprintf("  %s %s %s %s   %s\n", kind, detail, extra, size, at))
		}
	}
	b.WriteString(sep + "\n")

	b.WriteString("  " + footerStyle.Render("q: quit") + "\n")

	return b.String()
}

// --- Commands ---

func waitForRender(ch <-chan server.RenderEvent, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-ch:
			if !ok {
				return tea.Quit()
			}
			return renderMsg(evt)
		case <-ctx.Done():
			return tea.Quit()
		}
	}
}

func waitForSave(ch <-chan admin.SaveEvent, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-ch:
			if !ok {
				return tea.Quit()
			}
			return saveMsg(evt)
		case <-ctx.Done():
			return tea.Quit()
		}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func formatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
