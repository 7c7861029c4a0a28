// Package filestation drives the Synology FileStation web API: the three
// asynchronous jobs (search, directory size, MD5) built on async.Run, plus
// the one-shot listing, mutation and transfer calls.
//
// Canceling the context of an asynchronous call, or letting its deadline
// pass, only stops polling on this side. A stop request is sent best-effort
// but the server may keep running the job.
package filestation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/config"
	"github.com/kelsos/filestation/internal/models"
)

// API is the subset of *client.APIClient the FileStation needs.
type API interface {
	async.Dispatcher
	CallBinary(ctx context.Context, req *client.Request, w io.Writer) (int64, error)
	Upload(ctx context.Context, up client.UploadRequest) (json.RawMessage, error)
}

type FileStation struct {
	config *config.Config
	api    API
	tasks  *async.Client
}

// New creates a FileStation on top of api. Options configure the async
// client used for the polling operations.
func New(cfg *config.Config, api API, opts ...async.Option) *FileStation {
	return &FileStation{
		config: cfg,
		api:    api,
		tasks:  async.NewClient(api, opts...),
	}
}

func (fs *FileStation) policy(interval time.Duration) models.PollPolicy {
	return models.PollPolicy{Interval: interval, Timeout: fs.config.OperationTimeout}
}

func taskRequest(api, method string) func(taskID string) *client.Request {
	return func(taskID string) *client.Request {
		return client.NewRequest(api, method, url.Values{"taskid": {taskID}})
	}
}

// call issues a one-shot request and decodes its data into T.
func call[T any](ctx context.Context, api API, req *client.Request) (*T, error) {
	data, err := api.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("error decoding %s response: %w", req, err)
	}
	return &result, nil
}
