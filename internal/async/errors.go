package async

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/models"
)

// ProtocolError means the service answered in a shape the runner cannot use,
// such as a start response without a task identifier. It is never retried.
type ProtocolError struct {
	Kind    models.TaskKind
	TaskID  string
	Reason  string
	Payload json.RawMessage
	Err     error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s task", e.Kind)
	if e.TaskID != "" {
		msg += " " + e.TaskID
	}
	msg += ": protocol error: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// TimeoutError means polling ran past its deadline. The remote job may still
// be running.
type TimeoutError struct {
	Kind     models.TaskKind
	TaskID   string
	Polls    int
	Deadline string
	Payload  json.RawMessage
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s task %s: not finished after %d polls (deadline %s)", e.Kind, e.TaskID, e.Polls, e.Deadline)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// RemoteOperationError means the job finished but reported a failure of its own.
type RemoteOperationError struct {
	Kind    models.TaskKind
	TaskID  string
	Code    int
	Payload json.RawMessage
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s task %s failed on the server with code %d (%s)",
		e.Kind, e.TaskID, e.Code, client.Describe("SYNO.FileStation.", e.Code))
}

// CheckRemoteFailure returns a RemoteOperationError when a status payload
// carries an error object. Extractors call it before reading result fields.
func CheckRemoteFailure(payload json.RawMessage) error {
	var failure models.TaskFailure
	if err := json.Unmarshal(payload, &failure); err != nil {
		return nil
	}
	if failure.Error == nil {
		return nil
	}
	return &RemoteOperationError{Code: failure.Error.Code}
}
