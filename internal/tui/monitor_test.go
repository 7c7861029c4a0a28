package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/models"
)

func fixedModel(now time.Time) Model {
	m := NewModel("md5", time.Minute)
	m.now = func() time.Time { return now }
	return m
}

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModelTracksTaskLifecycle(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := fixedModel(start.Add(3 * time.Second))

	ok := models.TaskHandle{ID: "t1", Kind: models.TaskKindMD5, StartedAt: start}
	slow := models.TaskHandle{ID: "t2", Kind: models.TaskKindDirSize, StartedAt: start}
	bad := models.TaskHandle{ID: "t3", Kind: models.TaskKindSearch, StartedAt: start}

	m = apply(t, m,
		TaskStartedMsg{Handle: ok},
		TaskStartedMsg{Handle: slow},
		TaskStartedMsg{Handle: bad},
		TaskPolledMsg{Handle: ok, Outcome: models.PollOutcome{Attempt: 1}},
		TaskPolledMsg{Handle: ok, Outcome: models.PollOutcome{Attempt: 2, Finished: true}},
		TaskFinishedMsg{Handle: ok, At: start.Add(2 * time.Second)},
		TaskFinishedMsg{Handle: slow, Err: &async.TimeoutError{Kind: models.TaskKindDirSize, TaskID: "t2"}},
		TaskFinishedMsg{Handle: bad, Err: errors.New("boom")},
	)

	require.Len(t, m.order, 3)
	assert.Equal(t, StateDone, m.tasks["md5/t1"].State)
	assert.Equal(t, 2, m.tasks["md5/t1"].Polls)
	assert.Equal(t, 2*time.Second, m.tasks["md5/t1"].Elapsed(start.Add(time.Hour)))
	assert.Equal(t, StateTimedOut, m.tasks["dir-size/t2"].State)
	assert.Equal(t, StateFailed, m.tasks["search/t3"].State)
	assert.Equal(t, 1, m.successCount)
	assert.Equal(t, 2, m.errorCount)
	assert.Zero(t, m.running())

	view := m.View()
	assert.Contains(t, view, "FileStation · md5")
	assert.Contains(t, view, "Tasks: 3 | Done: 1 | Failed: 2 | Running: 0")
	assert.Contains(t, view, "boom")
}

func TestModelIgnoresRepeatedFinish(t *testing.T) {
	now := time.Now()
	m := fixedModel(now)
	h := models.TaskHandle{ID: "t1", Kind: models.TaskKindMD5, StartedAt: now}

	m = apply(t, m,
		TaskStartedMsg{Handle: h},
		TaskFinishedMsg{Handle: h},
		TaskFinishedMsg{Handle: h, Err: errors.New("late")},
		TaskFinishedMsg{Handle: models.TaskHandle{ID: "unknown", Kind: models.TaskKindMD5}},
	)

	assert.Equal(t, StateDone, m.tasks["md5/t1"].State)
	assert.Equal(t, 1, m.successCount)
	assert.Zero(t, m.errorCount)
}

func TestModelKeepsLastTenLogs(t *testing.T) {
	m := fixedModel(time.Now())
	for i := 0; i < 15; i++ {
		m = apply(t, m, LogMessage{Message: "line"})
	}
	assert.Len(t, m.logs, 10)
}

func TestModelShowsOperationResult(t *testing.T) {
	m := fixedModel(time.Now())

	m = apply(t, m, OperationDone{Err: errors.New("permission denied")})
	assert.Contains(t, m.View(), "Finished with error: permission denied")
}

func TestModelQuitsOnKey(t *testing.T) {
	m := fixedModel(time.Now())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, "Shutting down...\n", next.View())
}

func TestMonitorRunDeliversEvents(t *testing.T) {
	monitor := NewMonitor("search", time.Minute, tea.WithInput(nil), tea.WithOutput(io.Discard))
	h := models.TaskHandle{ID: "s1", Kind: models.TaskKindSearch, StartedAt: time.Now()}

	err := monitor.Run(context.Background(), 0, func(ctx context.Context) error {
		monitor.AddLog("logged in as admin")
		monitor.TaskStarted(h)
		monitor.TaskPolled(h, models.PollOutcome{Attempt: 1, Finished: true})
		monitor.TaskFinished(h, nil)
		return nil
	})
	require.NoError(t, err)

	final := monitor.final
	require.Contains(t, final.tasks, "search/s1")
	assert.Equal(t, StateDone, final.tasks["search/s1"].State)
	assert.Equal(t, 1, final.tasks["search/s1"].Polls)
	assert.True(t, final.done)
	require.NotEmpty(t, final.logs)
	assert.Contains(t, final.logs[0], "logged in as admin")
}

func TestMonitorRunReturnsOperationError(t *testing.T) {
	monitor := NewMonitor("md5", 0, tea.WithInput(nil), tea.WithOutput(io.Discard))
	boom := errors.New("boom")

	err := monitor.Run(context.Background(), 0, func(ctx context.Context) error {
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, boom, monitor.final.result)
}
