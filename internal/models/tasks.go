package models

import (
	"encoding/json"
	"time"
)

type TaskKind string

const (
	TaskKindSearch  TaskKind = "search"
	TaskKindDirSize TaskKind = "dir-size"
	TaskKindMD5     TaskKind = "md5"
)

// TaskHandle addresses one server-side job between its start call and its
// terminal status poll. It is never reused once the job has finished.
type TaskHandle struct {
	ID        string
	Kind      TaskKind
	StartedAt time.Time
}

// PollOutcome is the result of a single status request. Payload must not be
// read as a result while Finished is false.
type PollOutcome struct {
	Attempt  int
	Finished bool
	Payload  json.RawMessage
}

// PollPolicy controls the cadence of status requests. A zero Timeout leaves
// the run bounded only by the caller's context.
type PollPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

type AsyncTaskResponse struct {
	TaskID json.RawMessage `json:"taskid"`
}

type TaskStatus struct {
	Finished *bool `json:"finished"`
}

// TaskFailure is reported inside a finished status payload when the job
// itself failed on the server.
type TaskFailure struct {
	Error *APIErrorBody `json:"error,omitempty"`
}
