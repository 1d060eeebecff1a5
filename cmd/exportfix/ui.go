// # cmd/exportfix/ui.go
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"exportfix/internal/engine/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// maxVisibleFiles caps the file pane so the change detail keeps room.
const maxVisibleFiles = 8

type previewPhase int

const (
	phaseScanning previewPhase = iota
	phaseBrowsing
	phaseApplying
	phaseDone
)

type previewDoneMsg struct {
	result *pipeline.RunResult
	err    error
}

type applyDoneMsg struct {
	result *pipeline.RunResult
	err    error
}

type previewModel struct {
	ctx context.Context
	app *App

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	phase    previewPhase
	result   *pipeline.RunResult
	applied  *pipeline.RunResult
	selected int
	err      error
}

func newPreviewModel(ctx context.Context, app *App) previewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return previewModel{ctx: ctx, app: app, spinner: sp}
}

func (m previewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scanCmd())
}

func (m previewModel) scanCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.app.executeRun(m.ctx, true)
		return previewDoneMsg{result: result, err: err}
	}
}

func (m previewModel) applyCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.app.executeRun(m.ctx, false)
		return applyDoneMsg{result: result, err: err}
	}
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a":
			if m.phase == phaseBrowsing && m.changedFileCount() > 0 {
				m.phase = phaseApplying
				return m, tea.Batch(m.spinner.Tick, m.applyCmd())
			}
			return m, nil
		case "up", "k":
			if m.phase == phaseBrowsing && m.selected > 0 {
				m.selected--
				m.viewport.SetContent(m.changeDetail())
				m.viewport.GotoTop()
			}
			return m, nil
		case "down", "j":
			if m.phase == phaseBrowsing && m.selected < m.changedFileCount()-1 {
				m.selected++
				m.viewport.SetContent(m.changeDetail())
				m.viewport.GotoTop()
			}
			return m, nil
		}
		// Remaining keys (pgup, pgdn, ...) scroll the detail pane.
		if m.phase == phaseBrowsing && m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - maxVisibleFiles - 7
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.ready = true
			m.viewport.SetContent(m.changeDetail())
		} else {
			m.viewport.Width = width
			m.viewport.Height = height
		}
		return m, nil

	case previewDoneMsg:
		m.err = msg.err
		m.result = msg.result
		if msg.err != nil {
			m.phase = phaseDone
			return m, nil
		}
		m.phase = phaseBrowsing
		if m.ready {
			m.viewport.SetContent(m.changeDetail())
		}
		return m, nil

	case applyDoneMsg:
		m.err = msg.err
		m.applied = msg.result
		m.phase = phaseDone
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m previewModel) View() string {
	switch m.phase {
	case phaseScanning:
		return docStyle.Render(fmt.Sprintf("%s Scanning for fixable exports...", m.spinner.View()))
	case phaseApplying:
		return docStyle.Render(fmt.Sprintf("%s Applying fixes...", m.spinner.View()))
	case phaseDone:
		return docStyle.Render(m.doneView())
	}
	return docStyle.Render(m.browseView())
}

func (m previewModel) browseView() string {
	c := m.result.Counters

	var b strings.Builder
	b.WriteString(titleStyle("Export Fix Preview"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%d files scanned | %d would change | %d fixes planned | %d errors",
		c.FilesScanned, c.FilesChanged, c.TotalFixes(), c.Errors)))
	b.WriteString("\n\n")

	if m.changedFileCount() == 0 {
		b.WriteString(selectedStyle.Render("✅ Nothing to fix"))
		b.WriteString("\n\n")
		b.WriteString(statusStyle.Render("q: quit"))
		return b.String()
	}

	start := 0
	if m.selected >= maxVisibleFiles {
		start = m.selected - maxVisibleFiles + 1
	}
	end := start + maxVisibleFiles
	if end > m.changedFileCount() {
		end = m.changedFileCount()
	}

	for i := start; i < end; i++ {
		file := m.result.Files[i]
		line := fmt.Sprintf("%s (%d fixes)", m.displayPath(file.Path), fileFixCount(file))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(fileStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if remaining := m.changedFileCount() - end; remaining > 0 {
		b.WriteString(statusStyle.Render(fmt.Sprintf("  ... %d more files", remaining)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("j/k: select file • pgup/pgdn: scroll changes • a: apply • q: quit"))
	return b.String()
}

func (m previewModel) doneView() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Run failed: %v", m.err)) +
			"\n\n" + statusStyle.Render("q: quit")
	}

	c := m.applied.Counters
	var b strings.Builder
	b.WriteString(titleStyle("Export Fix Preview"))
	b.WriteString("\n")
	b.WriteString(selectedStyle.Render(fmt.Sprintf("✅ Applied %d fixes across %d files", c.TotalFixes(), c.FilesChanged)))
	b.WriteString("\n")
	if c.Errors > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d files failed; see the log for details", c.Errors)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("q: quit"))
	return b.String()
}

func (m previewModel) changeDetail() string {
	if m.result == nil || m.changedFileCount() == 0 {
		return "No changes planned."
	}

	file := m.result.Files[m.selected]
	var b strings.Builder
	for _, change := range file.Changes {
		b.WriteString("• " + change.Description + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m previewModel) changedFileCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Files)
}

func (m previewModel) displayPath(path string) string {
	if rel, err := filepath.Rel(m.app.Paths.ProjectRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func fileFixCount(file *pipeline.FileResult) int {
	return file.DuplicatesFixed +
		file.ExportsModernized +
		file.ImportsFixed +
		file.MismatchesFixed +
		file.DoubleSemicolonsFixed
}
