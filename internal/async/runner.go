package async

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

// Task describes one start/poll/extract job.
//
// Stop and Release are optional. Stop is sent best-effort when the run times
// out or is canceled; the service may keep working on the job regardless.
// Release is sent best-effort after a successful extraction.
type Task[T any] struct {
	Kind     models.TaskKind
	Start    *client.Request
	Status   func(taskID string) *client.Request
	Stop     func(taskID string) *client.Request
	Release  func(taskID string) *client.Request
	Policy   models.PollPolicy
	Finished func(payload json.RawMessage) (bool, error)
	Extract  func(payload json.RawMessage) (T, error)
}

func (t Task[T]) validate() error {
	switch {
	case t.Start == nil:
		return fmt.Errorf("%s task: start request is required", t.Kind)
	case t.Status == nil:
		return fmt.Errorf("%s task: status request factory is required", t.Kind)
	case t.Extract == nil:
		return fmt.Errorf("%s task: result extractor is required", t.Kind)
	case t.Policy.Interval < 0:
		return fmt.Errorf("%s task: poll interval must not be negative", t.Kind)
	case t.Policy.Timeout < 0:
		return fmt.Errorf("%s task: timeout must not be negative", t.Kind)
	}
	return nil
}

// Run starts the task, polls its status every Policy.Interval until the
// finished predicate holds, and returns the extracted result.
//
// Dispatcher errors are returned unmodified and are never retried. When the
// deadline (Policy.Timeout or the deadline of ctx) passes, Run returns a
// *TimeoutError; when ctx is canceled it returns an error wrapping
// context.Canceled. In both cases no further polls are made, but the job may
// continue on the server.
func Run[T any](ctx context.Context, c *Client, task Task[T]) (T, error) {
	var zero T
	if err := task.validate(); err != nil {
		return zero, err
	}
	if task.Finished == nil {
		task.Finished = FinishedFlag
	}

	runCtx := ctx
	if task.Policy.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, task.Policy.Timeout)
		defer cancel()
	}

	handle, err := c.start(runCtx, task.Kind, task.Start)
	if err != nil {
		return zero, err
	}
	c.observer.TaskStarted(handle)

	result, err := poll(runCtx, c, task, handle)
	c.observer.TaskFinished(handle, err)
	if err != nil {
		return zero, err
	}

	if task.Release != nil {
		c.bestEffort(ctx, handle, "release", task.Release(handle.ID))
	}

	logger.Debug("%s task %s finished in %v", handle.Kind, handle.ID, time.Since(handle.StartedAt))
	return result, nil
}

func (c *Client) start(ctx context.Context, kind models.TaskKind, req *client.Request) (models.TaskHandle, error) {
	logger.Debug("Starting %s task with %s", kind, req)

	payload, err := c.dispatcher.Call(ctx, req)
	if err != nil {
		if abortErr := interrupted(ctx, models.TaskHandle{Kind: kind}, 0, nil); abortErr != nil {
			return models.TaskHandle{}, abortErr
		}
		return models.TaskHandle{}, err
	}

	var response models.AsyncTaskResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return models.TaskHandle{}, &ProtocolError{Kind: kind, Reason: "undecodable start response", Payload: payload, Err: err}
	}

	taskID := parseTaskID(response.TaskID)
	if taskID == "" {
		return models.TaskHandle{}, &ProtocolError{Kind: kind, Reason: "missing task identifier", Payload: payload}
	}

	handle := models.TaskHandle{ID: taskID, Kind: kind, StartedAt: time.Now()}
	logger.Debug("Registered %s task %s for polling", kind, taskID)
	return handle, nil
}

func poll[T any](ctx context.Context, c *Client, task Task[T], handle models.TaskHandle) (T, error) {
	var zero T
	var last json.RawMessage

	timer := time.NewTimer(task.Policy.Interval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			c.abort(ctx, handle, task.stopRequest(handle.ID))
			return zero, interrupted(ctx, handle, attempt-1, last)
		case <-timer.C:
		}
		if ctx.Err() != nil {
			c.abort(ctx, handle, task.stopRequest(handle.ID))
			return zero, interrupted(ctx, handle, attempt-1, last)
		}

		payload, err := c.dispatcher.Call(ctx, task.Status(handle.ID))
		if err != nil {
			if abortErr := interrupted(ctx, handle, attempt-1, last); abortErr != nil {
				c.abort(ctx, handle, task.stopRequest(handle.ID))
				return zero, abortErr
			}
			logger.Debug("%s task %s: status request %d failed: %v", handle.Kind, handle.ID, attempt, err)
			return zero, err
		}
		last = payload

		finished, err := task.Finished(payload)
		if err != nil {
			return zero, &ProtocolError{Kind: handle.Kind, TaskID: handle.ID, Reason: "undecodable status response", Payload: payload, Err: err}
		}

		c.observer.TaskPolled(handle, models.PollOutcome{Attempt: attempt, Finished: finished, Payload: payload})
		if !finished {
			logger.Debug("%s task %s not finished after poll %d", handle.Kind, handle.ID, attempt)
			timer.Reset(task.Policy.Interval)
			continue
		}

		result, err := task.Extract(payload)
		if err != nil {
			var remote *RemoteOperationError
			if errors.As(err, &remote) {
				remote.Kind = handle.Kind
				remote.TaskID = handle.ID
				remote.Payload = payload
				return zero, remote
			}
			return zero, &ProtocolError{Kind: handle.Kind, TaskID: handle.ID, Reason: "invalid result", Payload: payload, Err: err}
		}
		return result, nil
	}
}

// interrupted translates a done context into the error Run reports, or nil
// while the context is still live.
func interrupted(ctx context.Context, handle models.TaskHandle, polls int, payload json.RawMessage) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return nil
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		deadline := "unknown"
		if d, ok := ctx.Deadline(); ok {
			deadline = d.Format(time.RFC3339)
		}
		return &TimeoutError{Kind: handle.Kind, TaskID: handle.ID, Polls: polls, Deadline: deadline, Payload: payload}
	}
	return fmt.Errorf("%s task %s: polling canceled after %d polls: %w", handle.Kind, handle.ID, polls, ctxErr)
}

func (c *Client) abort(ctx context.Context, handle models.TaskHandle, req *client.Request) {
	if req == nil {
		logger.Warn("%s task %s abandoned; the server may still be running it", handle.Kind, handle.ID)
		return
	}
	c.bestEffort(ctx, handle, "stop", req)
}

func (t Task[T]) stopRequest(taskID string) *client.Request {
	if t.Stop == nil {
		return nil
	}
	return t.Stop(taskID)
}

// bestEffort sends a follow-up request on a context detached from the
// caller's cancellation. Failures are logged only.
func (c *Client) bestEffort(ctx context.Context, handle models.TaskHandle, action string, req *client.Request) {
	if req == nil {
		return
	}
	followCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.stopTimeout)
	defer cancel()

	if _, err := c.dispatcher.Call(followCtx, req); err != nil {
		logger.Warn("%s task %s: %s request failed: %v", handle.Kind, handle.ID, action, err)
		return
	}
	logger.Debug("%s task %s: %s request sent", handle.Kind, handle.ID, action)
}

// FinishedFlag reads the finished member of a status payload. A payload
// without one violates the protocol.
func FinishedFlag(payload json.RawMessage) (bool, error) {
	var status models.TaskStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return false, err
	}
	if status.Finished == nil {
		return false, errors.New("missing finished flag")
	}
	return *status.Finished, nil
}

// parseTaskID accepts the identifier as a JSON string or number.
func parseTaskID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
