package filestation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kelsos/filestation/internal/async"
	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

// MD5 returns the digest the service computes for the file at path, exactly
// as reported.
func (fs *FileStation) MD5(ctx context.Context, path string) (string, error) {
	logger.Info("Hashing %s", path)

	digest, err := async.Run(ctx, fs.tasks, async.Task[string]{
		Kind:     models.TaskKindMD5,
		Start:    client.NewRequest(client.APIMD5, "start", url.Values{"file_path": {path}}),
		Status:   taskRequest(client.APIMD5, "status"),
		Stop:     taskRequest(client.APIMD5, "stop"),
		Policy:   fs.policy(fs.config.MD5Interval),
		Finished: async.FinishedFlag,
		Extract:  extractMD5,
	})
	if err != nil {
		return "", fmt.Errorf("md5 of %s failed: %w", path, err)
	}

	logger.Debug("md5 of %s is %s", path, digest)
	return digest, nil
}

// MD5Many hashes every path as an independent task, at most
// Config.MaxParallelTasks at a time. The first failure cancels the rest.
func (fs *FileStation) MD5Many(ctx context.Context, paths []string) (map[string]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.config.MaxParallelTasks)

	var mu sync.Mutex
	digests := make(map[string]string, len(paths))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			digest, err := fs.MD5(gctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			digests[path] = digest
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

func extractMD5(payload json.RawMessage) (string, error) {
	if err := async.CheckRemoteFailure(payload); err != nil {
		return "", err
	}

	var status struct {
		MD5 *string `json:"md5"`
	}
	if err := json.Unmarshal(payload, &status); err != nil {
		return "", err
	}
	if status.MD5 == nil {
		return "", errors.New("missing md5")
	}
	return *status.MD5, nil
}
