package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/filestation/internal/models"
)

type TaskState string

const (
	StateRunning  TaskState = "running"
	StateDone     TaskState = "done"
	StateFailed   TaskState = "failed"
	StateTimedOut TaskState = "timed out"
)

type TaskRow struct {
	Handle   models.TaskHandle
	State    TaskState
	Polls    int
	Finished time.Time
	Error    error
}

// Elapsed is measured up to completion for finished rows.
func (r *TaskRow) Elapsed(now time.Time) time.Duration {
	if !r.Finished.IsZero() {
		now = r.Finished
	}
	return now.Sub(r.Handle.StartedAt).Truncate(time.Millisecond)
}

type Model struct {
	title        string
	budget       time.Duration
	order        []string
	tasks        map[string]*TaskRow
	logs         []string
	spinner      spinner.Model
	progress     progress.Model
	width        int
	height       int
	quit         bool
	done         bool
	result       error
	errorCount   int
	successCount int
	now          func() time.Time
}

type TaskStartedMsg struct {
	Handle models.TaskHandle
}

type TaskPolledMsg struct {
	Handle  models.TaskHandle
	Outcome models.PollOutcome
}

type TaskFinishedMsg struct {
	Handle models.TaskHandle
	Err    error
	At     time.Time
}

type LogMessage struct {
	Message string
}

// OperationDone marks the end of the command the monitor is watching.
type OperationDone struct {
	Err error
}

// NewModel creates a model titled title. A positive budget draws each
// running task's share of the operation timeout as a progress bar.
func NewModel(title string, budget time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pr := progress.New(progress.WithDefaultGradient())

	return Model{
		title:    title,
		budget:   budget,
		tasks:    make(map[string]*TaskRow),
		logs:     []string{},
		spinner:  sp,
		progress: pr,
		width:    80,
		height:   24,
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKeyMsg(msg) {
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case TaskStartedMsg:
		m = m.handleTaskStarted(msg)

	case TaskPolledMsg:
		m = m.handleTaskPolled(msg)

	case TaskFinishedMsg:
		m = m.handleTaskFinished(msg)

	case LogMessage:
		m = m.handleLogMessage(msg)

	case OperationDone:
		m.done = true
		m.result = msg.Err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if progressModel, ok := progressModel.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = max(msg.Width-60, 10)
	return m
}

func rowKey(h models.TaskHandle) string {
	return string(h.Kind) + "/" + h.ID
}

func (m Model) handleTaskStarted(msg TaskStartedMsg) Model {
	key := rowKey(msg.Handle)
	if _, exists := m.tasks[key]; !exists {
		m.order = append(m.order, key)
	}
	m.tasks[key] = &TaskRow{Handle: msg.Handle, State: StateRunning}
	return m.handleLogMessage(LogMessage{Message: fmt.Sprintf("started %s task %s", msg.Handle.Kind, msg.Handle.ID)})
}

func (m Model) handleTaskPolled(msg TaskPolledMsg) Model {
	if row, exists := m.tasks[rowKey(msg.Handle)]; exists {
		row.Polls = msg.Outcome.Attempt
	}
	return m
}

func (m Model) handleTaskFinished(msg TaskFinishedMsg) Model {
	row, exists := m.tasks[rowKey(msg.Handle)]
	if !exists || row.State != StateRunning {
		return m
	}

	row.Finished = msg.At
	if row.Finished.IsZero() {
		row.Finished = m.now()
	}
	row.Error = msg.Err

	switch {
	case msg.Err == nil:
		row.State = StateDone
		m.successCount++
	case isTimeout(msg.Err):
		row.State = StateTimedOut
		m.errorCount++
	default:
		row.State = StateFailed
		m.errorCount++
	}

	return m.handleLogMessage(LogMessage{Message: fmt.Sprintf("%s task %s %s after %d polls",
		msg.Handle.Kind, msg.Handle.ID, row.State, row.Polls)})
}

func (m Model) handleLogMessage(msg LogMessage) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		m.now().Format("15:04:05"), msg.Message))
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
	return m
}

func (m Model) running() int {
	n := 0
	for _, row := range m.tasks {
		if row.State == StateRunning {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("FileStation · " + m.title))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	summary := fmt.Sprintf("Tasks: %d | Done: %d | Failed: %d | Running: %d",
		len(m.order), m.successCount, m.errorCount, m.running())
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n\n")

	taskSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var taskStatus strings.Builder
	taskStatus.WriteString("Tasks\n")
	taskStatus.WriteString(strings.Repeat("─", 60) + "\n")

	now := m.now()
	for _, key := range m.order {
		row := m.tasks[key]

		indicator := stateIcon(row.State)
		if row.State == StateRunning {
			indicator = m.spinner.View()
		}

		line := fmt.Sprintf("%s %-8s %-20s polls %-4d %-10s %s",
			indicator,
			row.Handle.Kind,
			truncate(row.Handle.ID, 20),
			row.Polls,
			row.Elapsed(now),
			row.State)

		if row.State == StateRunning && m.budget > 0 {
			used := float64(row.Elapsed(now)) / float64(m.budget)
			line += " " + m.progress.ViewAs(min(used, 1))
		}

		if row.Error != nil {
			errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
			line += " " + errorStyle.Render(truncate(row.Error.Error(), 60))
		}

		stateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(stateColor(row.State)))
		taskStatus.WriteString(stateStyle.Render(line) + "\n")
	}

	s.WriteString(taskSectionStyle.Render(taskStatus.String()))
	s.WriteString("\n\n")

	logSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(8)

	var logSection strings.Builder
	logSection.WriteString("Recent events\n")
	for _, log := range m.logs {
		logSection.WriteString(log + "\n")
	}

	s.WriteString(logSectionStyle.Render(logSection.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	footer := "Press 'q' to quit | Logs: logs/filestation_*.log"
	if m.done {
		if m.result != nil {
			footer = "Finished with error: " + m.result.Error() + " | " + footer
		} else {
			footer = "Finished | " + footer
		}
	}
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func stateIcon(state TaskState) string {
	switch state {
	case StateDone:
		return "✓"
	case StateFailed:
		return "✗"
	case StateTimedOut:
		return "⌛"
	default:
		return "?"
	}
}

func stateColor(state TaskState) string {
	switch state {
	case StateDone:
		return "82"
	case StateFailed, StateTimedOut:
		return "196"
	default:
		return "39"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
