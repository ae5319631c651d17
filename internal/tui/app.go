package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mpataki/agentprobe/internal/models"
	"github.com/mpataki/agentprobe/internal/orchestrator"
)

type View int

const (
	ViewRunList View = iota
	ViewRunDetail
)

type App struct {
	orchestrator *orchestrator.Orchestrator

	view        View
	runs        []*models.TestRun
	selectedIdx int
	selectedRun *models.TestRun
	cases       []models.CaseRecord

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	width  int
	height int
	err    error
}

func NewApp(orch *orchestrator.Orchestrator) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusRunning

	return &App{
		orchestrator: orch,
		view:         ViewRunList,
		spinner:      sp,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadRuns, a.tickCmd(), a.spinner.Tick)
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) hasActiveRuns() bool {
	for _, run := range a.runs {
		if run.Status == models.RunStatusRunning || run.Status == models.RunStatusPending {
			return true
		}
	}
	return false
}

type tickMsg time.Time

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.sizeViewport()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case runsLoadedMsg:
		a.runs = msg.runs
		a.err = msg.err
		if a.selectedIdx >= len(a.runs) && a.selectedIdx > 0 {
			a.selectedIdx = len(a.runs) - 1
		}
		return a, nil

	case tickMsg:
		// Refresh while runs are in flight so statuses update live.
		if a.view == ViewRunList && a.hasActiveRuns() {
			return a, tea.Batch(a.loadRuns, a.tickCmd())
		}
		// Keep ticking to notice runs started by another process.
		return a, a.tickCmd()

	case runDetailMsg:
		a.err = msg.err
		if a.err == nil {
			a.selectedRun = msg.run
			a.cases = msg.cases
			a.viewport.SetContent(a.detailContent())
			a.viewport.GotoTop()
			a.view = ViewRunDetail
		}
		return a, nil

	case runDeletedMsg:
		a.err = msg.err
		if a.selectedIdx >= len(a.runs)-1 && a.selectedIdx > 0 {
			a.selectedIdx--
		}
		return a, a.loadRuns
	}

	return a, nil
}

func (a *App) sizeViewport() {
	// Leave room for the detail header above and help line below.
	h := a.height - 8
	if h < 3 {
		h = 3
	}
	if !a.ready {
		a.viewport = viewport.New(a.width, h)
		a.ready = true
		if a.selectedRun != nil {
			a.viewport.SetContent(a.detailContent())
		}
		return
	}
	a.viewport.Width = a.width
	a.viewport.Height = h
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewRunList:
		return a.handleRunListKey(msg)
	case ViewRunDetail:
		return a.handleRunDetailKey(msg)
	}
	return a, nil
}

func (a *App) handleRunListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.runs)-1 {
			a.selectedIdx++
		}

	case "enter":
		if len(a.runs) > 0 && a.selectedIdx < len(a.runs) {
			return a, a.loadRunDetail(a.runs[a.selectedIdx].ID)
		}

	case "r":
		return a, a.loadRuns

	case "d":
		if len(a.runs) > 0 && a.selectedIdx < len(a.runs) {
			return a, a.deleteRun(a.runs[a.selectedIdx].ID)
		}
	}

	return a, nil
}

func (a *App) handleRunDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		a.view = ViewRunList
		a.selectedRun = nil
		a.cases = nil
		return a, nil

	case "ctrl+c":
		return a, tea.Quit
	}

	// Everything else scrolls the case listing.
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	switch a.view {
	case ViewRunList:
		return a.viewRunList()
	case ViewRunDetail:
		return a.viewRunDetail()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusRunning  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusComplete = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusPending  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	casePassed = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	caseFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (a *App) viewRunList() string {
	s := titleStyle.Render("agentprobe") + "\n\n"

	if a.err != nil {
		s += fmt.Sprintf("Error: %v\n", a.err)
	}

	if len(a.runs) == 0 {
		s += "No test runs yet. Start one with 'agentprobe run'.\n"
	} else {
		s += "Recent Test Runs\n"
		s += "────────────────\n"

		for i, run := range a.runs {
			line := a.formatRunLine(run)
			isSelected := i == a.selectedIdx
			isActive := run.Status == models.RunStatusRunning || run.Status == models.RunStatusPending

			if isSelected {
				line = selectedStyle.Render("▶ " + line)
			} else if !isActive {
				line = "  " + dimStyle.Render(line)
			} else {
				line = "  " + line
			}
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("[enter] view  [d] delete  [r] refresh  [q] quit")

	return s
}

func (a *App) formatRunLine(run *models.TestRun) string {
	status := a.formatStatus(run.Status)
	age := formatAge(run.CreatedAt)
	result := "-"
	switch {
	case run.Status == models.RunStatusComplete:
		result = fmt.Sprintf("%d/%d passed", run.Passed, run.Passed+run.Failed)
	case run.Status == models.RunStatusFailed && run.Error != "":
		result = truncate(run.Error, 35)
	}
	return fmt.Sprintf("#%-3d %-18s %s  %-6s  %s", run.ID, run.AgentName, status, age, result)
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func (a *App) formatStatus(status models.RunStatus) string {
	switch status {
	case models.RunStatusRunning:
		return statusRunning.Render(a.spinner.View() + "running")
	case models.RunStatusComplete:
		return statusComplete.Render("✓ complete")
	case models.RunStatusFailed:
		return statusFailed.Render("✗ failed")
	case models.RunStatusPending:
		return statusPending.Render("○ pending")
	default:
		return string(status)
	}
}

func (a *App) viewRunDetail() string {
	if a.selectedRun == nil {
		return "No run selected"
	}

	run := a.selectedRun

	header := fmt.Sprintf("Run #%d: %s", run.ID, run.AgentName)
	s := titleStyle.Render(header) + "  " + a.formatStatus(run.Status) + "\n\n"

	s += labelStyle.Render("Org:  ") + run.TargetOrg + "\n"
	s += labelStyle.Render("Test: ") + run.TestAPIName + "\n"
	s += labelStyle.Render("Spec: ") + dimStyle.Render(run.SpecPath) + "\n"
	if run.CompletedAt != nil {
		d := run.CompletedAt.Sub(run.CreatedAt)
		s += labelStyle.Render("Took: ") + dimStyle.Render(formatDuration(d)) + "\n"
	}
	s += "\n"

	if a.ready {
		s += a.viewport.View() + "\n"
	} else {
		s += a.detailContent()
	}

	s += "\n" + helpStyle.Render("[↑/↓] scroll  [esc] back  [q] quit")

	return s
}

// detailContent renders the scrollable case listing for the selected
// run.
func (a *App) detailContent() string {
	var b strings.Builder

	if run := a.selectedRun; run != nil && run.Error != "" {
		b.WriteString(caseFailed.Render("Error: "+run.Error) + "\n\n")
	}

	b.WriteString("Test Cases\n")
	b.WriteString("──────────\n")

	if len(a.cases) == 0 {
		b.WriteString("(no case results recorded)\n")
		return b.String()
	}

	for _, c := range a.cases {
		glyph := caseFailed.Render("✗")
		if c.Outcome == models.CaseOutcomePassed {
			glyph = casePassed.Render("✓")
		}

		b.WriteString(fmt.Sprintf("%2d. %s %s", c.Seq, glyph, c.Name))
		if c.Utterance != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %q", truncate(c.Utterance, 45))))
		}
		b.WriteString("\n")

		if c.Outcome == models.CaseOutcomeFailed {
			if c.ExpectedTopic != "" && c.ActualTopic != "" {
				b.WriteString(fmt.Sprintf("      expected %s, got %s\n", c.ExpectedTopic, c.ActualTopic))
			}
			if len(c.ExpectedActions) > 0 && len(c.ActualActions) == 0 {
				b.WriteString(fmt.Sprintf("      expected actions %v, none invoked\n", c.ExpectedActions))
			}
			if c.Message != "" {
				b.WriteString("      " + dimStyle.Render(truncate(c.Message, 70)) + "\n")
			}
		}
	}

	return b.String()
}

// Messages

type runsLoadedMsg struct {
	runs []*models.TestRun
	err  error
}

type runDetailMsg struct {
	run   *models.TestRun
	cases []models.CaseRecord
	err   error
}

type runDeletedMsg struct {
	runID int64
	err   error
}

// Commands

func (a *App) loadRuns() tea.Msg {
	runs, err := a.orchestrator.ListRuns(20)
	return runsLoadedMsg{runs: runs, err: err}
}

func (a *App) loadRunDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		run, err := a.orchestrator.GetRun(id)
		if err != nil {
			return runDetailMsg{err: err}
		}

		cases, err := a.orchestrator.GetCaseResultsForRun(id)
		return runDetailMsg{run: run, cases: cases, err: err}
	}
}

func (a *App) deleteRun(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.orchestrator.DeleteRun(id); err != nil {
			return runDeletedMsg{err: err}
		}
		return runDeletedMsg{runID: id}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
