package filestation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

// Search finds files and folders under folder whose names match pattern. The
// paths come back in the order the service lists them.
func (fs *FileStation) Search(ctx context.Context, folder, pattern string) ([]string, error) {
	logger.Info("Searching %s for %q", folder, pattern)

	params := url.Values{
		"folder_path": {folder},
		"pattern":     {pattern},
	}

	paths, err := async.Run(ctx, fs.tasks, async.Task[[]string]{
		Kind:     models.TaskKindSearch,
		Start:    client.NewRequest(client.APISearch, "start", params),
		Status:   searchListRequest,
		Stop:     taskRequest(client.APISearch, "stop"),
		Release:  taskRequest(client.APISearch, "clean"),
		Policy:   fs.policy(fs.config.SearchInterval),
		Finished: async.FinishedFlag,
		Extract:  extractSearchPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("search in %s failed: %w", folder, err)
	}

	logger.Debug("Search in %s matched %d entries", folder, len(paths))
	return paths, nil
}

// searchListRequest asks for every result row at once.
func searchListRequest(taskID string) *client.Request {
	return client.NewRequest(client.APISearch, "list", url.Values{
		"taskid": {taskID},
		"offset": {"0"},
		"limit":  {"-1"},
	})
}

func extractSearchPaths(payload json.RawMessage) ([]string, error) {
	if err := async.CheckRemoteFailure(payload); err != nil {
		return nil, err
	}

	var status models.SearchStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(status.Files))
	for i, file := range status.Files {
		if file.Path == "" {
			return nil, fmt.Errorf("search result %d has no path", i)
		}
		paths = append(paths, file.Path)
	}
	return paths, nil
}
