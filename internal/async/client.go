package async

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/models"
)

// Dispatcher executes one request and returns the decoded response data.
// *client.APIClient satisfies it.
type Dispatcher interface {
	Call(ctx context.Context, req *client.Request) (json.RawMessage, error)
}

// Observer receives task lifecycle events. Calls happen on the goroutine that
// runs the task, so implementations shared between tasks must be safe for
// concurrent use.
type Observer interface {
	TaskStarted(handle models.TaskHandle)
	TaskPolled(handle models.TaskHandle, outcome models.PollOutcome)
	TaskFinished(handle models.TaskHandle, err error)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(models.TaskHandle)                     {}
func (nopObserver) TaskPolled(models.TaskHandle, models.PollOutcome) {}
func (nopObserver) TaskFinished(models.TaskHandle, error)            {}

// Client runs asynchronous tasks against a dispatcher
type Client struct {
	dispatcher  Dispatcher
	observer    Observer
	stopTimeout time.Duration
}

type Option func(*Client)

// WithObserver registers an observer for every task run by the client.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithStopTimeout bounds the best-effort stop and clean requests issued after
// a run ends.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// NewClient creates a new async client on top of the given dispatcher
func NewClient(dispatcher Dispatcher, opts ...Option) *Client {
	c := &Client{
		dispatcher:  dispatcher,
		observer:    nopObserver{},
		stopTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
