package filestation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

// DirSize returns the accumulated size in bytes of everything under path.
func (fs *FileStation) DirSize(ctx context.Context, path string) (int64, error) {
	logger.Info("Calculating size of %s", path)

	size, err := async.Run(ctx, fs.tasks, async.Task[int64]{
		Kind:     models.TaskKindDirSize,
		Start:    client.NewRequest(client.APIDirSize, "start", url.Values{"path": {path}}),
		Status:   taskRequest(client.APIDirSize, "status"),
		Stop:     taskRequest(client.APIDirSize, "stop"),
		Policy:   fs.policy(fs.config.DirSizeInterval),
		Finished: async.FinishedFlag,
		Extract:  extractTotalSize,
	})
	if err != nil {
		return 0, fmt.Errorf("size of %s failed: %w", path, err)
	}

	logger.Debug("Size of %s is %d bytes", path, size)
	return size, nil
}

// extractTotalSize accepts total_size as a JSON number or a decimal string.
func extractTotalSize(payload json.RawMessage) (int64, error) {
	if err := async.CheckRemoteFailure(payload); err != nil {
		return 0, err
	}

	var status struct {
		TotalSize *json.Number `json:"total_size"`
	}
	if err := json.Unmarshal(payload, &status); err != nil {
		return 0, err
	}
	if status.TotalSize == nil {
		return 0, errors.New("missing total_size")
	}

	size, err := strconv.ParseInt(status.TotalSize.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid total_size %q: %w", status.TotalSize.String(), err)
	}
	if size < 0 {
		return 0, fmt.Errorf("negative total_size %d", size)
	}
	return size, nil
}
