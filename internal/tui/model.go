package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"pixelgroomer/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseExecuting
	PhaseConfirmDelete
	PhaseDeleting
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	StateMsg struct {
		State domain.RunState
	}
	ProbeProgressMsg struct {
		Current int
		Total   int
	}
	PlanReadyMsg struct {
		Plan domain.ImportPlan
	}
	CopyProgressMsg struct {
		Current int
		Total   int
		File    string
	}
	ImportDoneMsg struct {
		Results []domain.ExecutionResult
	}
	DeleteDoneMsg struct {
		Results  []domain.ExecutionResult
		Declined bool
	}
	ErrorMsg struct {
		Err error
	}
	ConfirmMsg struct {
		Confirmed bool
	}
	tickMsg time.Time
)

// ExecuteFunc starts the import of plan. The returned command reports
// progress through the program and finishes with an ImportDoneMsg.
type ExecuteFunc func(plan domain.ImportPlan) tea.Cmd

// DeleteFunc removes imported sources once the user answered the
// confirmation and finishes with a DeleteDoneMsg.
type DeleteFunc func(results []domain.ExecutionResult, confirmed bool) tea.Cmd

type Config struct {
	SourceDir     string
	LibraryRoot   string
	DryRun        bool
	Verbose       bool
	NoDelete      bool
	ConfirmDelete bool
	Execute       ExecuteFunc
	Delete        DeleteFunc
}

type Model struct {
	config           Config
	Phase            Phase
	State            domain.RunState
	Plan             domain.ImportPlan
	Summary          domain.RunSummary
	spinner          spinner.Model
	progress         progress.Model
	probeCurrent     int
	probeTotal       int
	copyProgress     int
	copyTotal        int
	currentFile      string
	confirmSelection bool // true = yes, false = no
	Err              error
	Quitting         bool
	width            int
	height           int
}

func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:   cfg,
		Phase:    PhasePlanning,
		State:    domain.StateScanning,
		spinner:  s,
		progress: p,
		width:    80,
		height:   24,
	}
}

// Finished reports whether the run reached its end instead of being quit.
func (m Model) Finished() bool {
	return m.Phase == PhaseDone
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.State = msg.State
		return m, nil

	case ProbeProgressMsg:
		m.probeCurrent = msg.Current
		m.probeTotal = msg.Total
		return m, nil

	case PlanReadyMsg:
		m.Plan = msg.Plan
		if m.config.DryRun {
			m.State = domain.StateDryRunPrinted
			m.Phase = PhaseDone
			return m, nil
		}
		m.Phase = PhaseExecuting
		m.State = domain.StateExecuting
		m.copyTotal = len(m.Plan.Actions)
		if m.config.Execute != nil {
			return m, tea.Batch(tickCmd(), m.config.Execute(m.Plan))
		}
		return m, nil

	case CopyProgressMsg:
		m.copyProgress = msg.Current
		m.copyTotal = msg.Total
		m.currentFile = msg.File
		return m, nil

	case ImportDoneMsg:
		m.Summary = domain.Summarize(msg.Results)
		switch {
		case m.Summary.Succeeded == 0 || m.config.NoDelete || m.config.Delete == nil:
			m.Summary.DeleteDeclined = m.Summary.Succeeded > 0
			return m.finish(), nil
		case m.config.ConfirmDelete:
			m.Phase = PhaseConfirmDelete
			return m, nil
		default:
			m.Phase = PhaseDeleting
			return m, m.config.Delete(msg.Results, true)
		}

	case ConfirmMsg:
		m.Phase = PhaseDeleting
		return m, m.config.Delete(m.Summary.Results, msg.Confirmed)

	case DeleteDoneMsg:
		m.Summary = domain.Summarize(msg.Results)
		m.Summary.DeleteDeclined = msg.Declined
		return m.finish(), nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhasePlanning || m.Phase == PhaseExecuting || m.Phase == PhaseDeleting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseExecuting {
			var cmds []tea.Cmd
			if m.copyTotal > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.copyProgress)/float64(m.copyTotal)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.Quitting = true
		return m, tea.Quit
	case "left", "h", "y", "Y":
		if m.Phase == PhaseConfirmDelete {
			m.confirmSelection = true
		}
	case "right", "l", "n", "N":
		if m.Phase == PhaseConfirmDelete {
			m.confirmSelection = false
		}
	case "enter":
		if m.Phase == PhaseConfirmDelete {
			confirmed := m.confirmSelection
			return m, func() tea.Msg {
				return ConfirmMsg{Confirmed: confirmed}
			}
		}
		if m.Phase == PhaseDone || m.Phase == PhaseError {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) finish() Model {
	m.Phase = PhaseDone
	m.State = domain.StateCompleted
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhasePlanning:
		b.WriteString(m.renderPlanning())
	case PhaseExecuting:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderExecution())
	case PhaseConfirmDelete:
		b.WriteString(m.renderCompletion())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseDeleting:
		b.WriteString(m.renderCompletion())
		b.WriteString(fmt.Sprintf("\n  %s Deleting imported sources...\n", m.spinner.View()))
	case PhaseDone:
		if m.config.DryRun {
			b.WriteString(m.renderPreview())
		} else {
			b.WriteString(m.renderCompletion())
		}
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("📷 PixelGroomer import")
	subtitle := subtitleStyle.Render(m.State.String())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Source:  %s", iconFolder, shortenPath(m.config.SourceDir))),
		dimStyle.Render(fmt.Sprintf("%s Library: %s", iconFolder, shortenPath(m.config.LibraryRoot))),
	)
}

func (m Model) renderPlanning() string {
	if m.probeTotal > 0 {
		percent := float64(m.probeCurrent) / float64(m.probeTotal)
		countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

		return fmt.Sprintf("%s Reading capture dates...\n\n  %s\n  %s %s",
			m.spinner.View(),
			m.progress.ViewAs(percent),
			countStyle.Render(fmt.Sprintf("%d/%d", m.probeCurrent, m.probeTotal)),
			dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
		)
	}
	return fmt.Sprintf("%s Scanning source...", m.spinner.View())
}

func (m Model) renderPreview() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Import Plan"))
	b.WriteString("\n\n")

	if len(m.Plan.Actions) == 0 {
		b.WriteString(dimStyle.Render("  No files to import"))
		b.WriteString("\n")
	} else {
		limit := 4
		if m.config.DryRun && m.config.Verbose {
			limit = len(m.Plan.Actions)
		}
		for _, line := range formatActionList(m.Plan.Actions, limit) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())

	if len(m.Plan.Warnings) > 0 && (m.config.Verbose || m.config.DryRun) {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, w := range m.Plan.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconCollision, w))
		}
	}

	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder
	s := m.Plan.Summary

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	if s.RangeStart != nil && s.RangeEnd != nil {
		dateRange := fmt.Sprintf("%s %s %s", s.RangeStart.Format("2006-01-02"), iconArrow, s.RangeEnd.Format("2006-01-02"))
		b.WriteString(statLine("Date range:", dimStyle.Render(dateRange)))
	}
	b.WriteString(statLine("Shots:", statValueStyle.Render(fmt.Sprintf("%d", s.Shots))))
	b.WriteString(statLine("RAW files:", rawFileStyle.Render(fmt.Sprintf("%s %d", iconRAW, s.RawCount))))
	b.WriteString(statLine("Image files:", imageFileStyle.Render(fmt.Sprintf("%s %d", iconImage, s.ImageCount))))
	if s.Fallbacks > 0 {
		b.WriteString(statLine("Date from file time:", warningStyle.Render(fmt.Sprintf("%s %d", iconFallback, s.Fallbacks))))
	}
	if s.Collisions > 0 {
		b.WriteString(statLine("Collisions:", warningStyle.Render(fmt.Sprintf("%s %d", iconCollision, s.Collisions))))
	}
	if s.Existing > 0 {
		b.WriteString(statLine("Already in library:", dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, s.Existing))))
	}
	if s.Unsupported > 0 {
		b.WriteString(statLine("Unsupported:", dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, s.Unsupported))))
	}

	if m.config.DryRun {
		b.WriteString("\n")
		b.WriteString(highlightBoxStyle.Render("🔍 Dry Run - nothing was written"))
	}

	return b.String()
}

func statLine(label, value string) string {
	return fmt.Sprintf("  %s  %s\n", statLabelStyle.Render(label), value)
}

func (m Model) renderConfirmPrompt() string {
	prompt := confirmPromptStyle.Render(fmt.Sprintf("Delete %d imported source files?", m.Summary.Succeeded))

	var yesBtn, noBtn string
	if m.confirmSelection {
		yesBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", buttons)
}

func (m Model) renderExecution() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Importing"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.copyTotal > 0 {
		percent = float64(m.copyProgress) / float64(m.copyTotal)
	}

	b.WriteString(fmt.Sprintf("  %s Copying...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d files", m.copyProgress, m.copyTotal)),
		dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.currentFile != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, fileNameStyle.Render(m.currentFile)))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder
	s := m.Summary

	b.WriteString(sectionStyle.Render("Import Complete"))
	b.WriteString("\n\n")

	if s.OK() {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("All files imported")))
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", errorStyle.Render(iconError), errorStyle.Render(fmt.Sprintf("%d files failed", s.Failed))))
	}

	b.WriteString(statLine("Imported:", statValueStyle.Render(fmt.Sprintf("%d files", s.Succeeded))))
	if s.Skipped > 0 {
		b.WriteString(statLine("Skipped:", dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, s.Skipped))))
	}
	if s.Deleted > 0 {
		b.WriteString(statLine("Sources deleted:", warningStyle.Render(fmt.Sprintf("%d", s.Deleted))))
	} else if s.DeleteDeclined {
		b.WriteString(statLine("Sources:", dimStyle.Render("kept")))
	}

	for i, r := range s.Failures {
		if i >= 4 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Failures)-4))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			errorStyle.Render(iconError),
			fileNameStyle.Render(r.Action.Source.RelativePath),
			dimStyle.Render(r.Reason),
		))
	}

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.Copy().
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhasePlanning:
		help = "Press q to quit"
	case PhaseConfirmDelete:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseExecuting, PhaseDeleting:
		help = "Working... Please wait"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

// formatActionList shows the first and last actions when there are more
// than maxItems.
func formatActionList(actions []domain.PlannedAction, maxItems int) []string {
	if len(actions) <= maxItems {
		lines := make([]string, 0, len(actions))
		for _, a := range actions {
			lines = append(lines, formatAction(a))
		}
		return lines
	}

	half := maxItems / 2
	lines := make([]string, 0, maxItems+1)
	for i := 0; i < half; i++ {
		lines = append(lines, formatAction(actions[i]))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more files ...", len(actions)-maxItems)))
	for i := len(actions) - half; i < len(actions); i++ {
		lines = append(lines, formatAction(actions[i]))
	}
	return lines
}

func formatAction(a domain.PlannedAction) string {
	icon := iconImage
	style := imageFileStyle
	if a.Source.IsRAW() {
		icon = iconRAW
		style = rawFileStyle
	}

	line := fmt.Sprintf("%s %s %s %s", icon, style.Render(a.Source.Name), iconArrow, destStyle.Render(a.Destination))
	if a.Source.IsFallback() {
		line += " " + warningStyle.Render(iconFallback)
	}
	if a.Skipped() {
		line += " " + warningStyle.Render(iconCollision+" collision")
	}
	return line
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
