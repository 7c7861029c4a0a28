package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/models"
)

// Monitor shows the tasks of one command in a terminal UI. It implements
// async.Observer, so it is passed to the async client with
// async.WithObserver.
type Monitor struct {
	program *tea.Program
	final   Model
}

var _ async.Observer = (*Monitor)(nil)

func NewMonitor(title string, budget time.Duration, opts ...tea.ProgramOption) *Monitor {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Monitor{
		program: tea.NewProgram(NewModel(title, budget), opts...),
	}
}

func (m *Monitor) TaskStarted(handle models.TaskHandle) {
	m.program.Send(TaskStartedMsg{Handle: handle})
}

func (m *Monitor) TaskPolled(handle models.TaskHandle, outcome models.PollOutcome) {
	m.program.Send(TaskPolledMsg{Handle: handle, Outcome: outcome})
}

func (m *Monitor) TaskFinished(handle models.TaskHandle, err error) {
	m.program.Send(TaskFinishedMsg{Handle: handle, Err: err, At: time.Now()})
}

func (m *Monitor) AddLog(message string) {
	m.program.Send(LogMessage{Message: message})
}

// Run executes op while the UI is shown and returns op's error. Quitting the
// UI cancels the context handed to op. After op returns the final screen
// stays up for linger.
func (m *Monitor) Run(ctx context.Context, linger time.Duration, op func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		err := op(ctx)
		result <- err
		m.program.Send(OperationDone{Err: err})

		select {
		case <-time.After(linger):
		case <-ctx.Done():
		}
		m.program.Quit()
	}()

	final, err := m.program.Run()
	if err != nil {
		cancel()
		<-result
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if model, ok := final.(Model); ok {
		m.final = model
	}

	// The UI may have been closed by the user while op was still running.
	cancel()
	return <-result
}

func isTimeout(err error) bool {
	var timeoutErr *async.TimeoutError
	return errors.As(err, &timeoutErr)
}
