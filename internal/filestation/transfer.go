package filestation

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/logger"
)

const (
	defaultThumbSize    = "small"
	defaultDownloadMode = "open"
)

// Thumbnail writes the thumbnail of the image at filePath to w. An empty size
// means "small".
func (fs *FileStation) Thumbnail(ctx context.Context, filePath, size string, rotate int, w io.Writer) (int64, error) {
	if size == "" {
		size = defaultThumbSize
	}
	params := url.Values{
		"path":   {filePath},
		"size":   {size},
		"rotate": {strconv.Itoa(rotate)},
	}
	return fs.api.CallBinary(ctx, client.NewRequest(client.APIThumb, "get", params), w)
}

// Download writes the content of filePath to w. An empty mode means "open".
func (fs *FileStation) Download(ctx context.Context, filePath, mode string, w io.Writer) (int64, error) {
	if mode == "" {
		mode = defaultDownloadMode
	}
	params := url.Values{
		"path": {filePath},
		"mode": {mode},
	}

	n, err := fs.api.CallBinary(ctx, client.NewRequest(client.APIDownload, "download", params), w)
	if err != nil {
		return n, fmt.Errorf("download of %s failed: %w", filePath, err)
	}
	logger.Debug("Downloaded %d bytes from %s", n, filePath)
	return n, nil
}

// Upload stores r at fullPath, which must be absolute, creating missing parent
// folders. Without overwrite the service rejects an existing target.
func (fs *FileStation) Upload(ctx context.Context, fullPath string, r io.Reader, overwrite bool) error {
	if !path.IsAbs(fullPath) {
		return fmt.Errorf("upload target %q must be an absolute path", fullPath)
	}
	dir, name := path.Split(path.Clean(fullPath))
	if name == "" || name == "/" || name == "." {
		return fmt.Errorf("upload target %q has no file name", fullPath)
	}
	dir = path.Clean(dir)

	logger.Info("Uploading %s into %s", name, dir)
	_, err := fs.api.Upload(ctx, client.UploadRequest{
		DestFolder:    dir,
		FileName:      name,
		Content:       r,
		Overwrite:     overwrite,
		CreateParents: true,
	})
	if err != nil {
		return fmt.Errorf("upload of %s failed: %w", fullPath, err)
	}
	return nil
}
