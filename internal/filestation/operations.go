package filestation

import (
	"context"
	"net/url"
	"strconv"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/models"
)

const (
	defaultLimit         = 25
	defaultSortBy        = "name"
	defaultSortDirection = "asc"
	defaultFileType      = "all"

	// additionalFields is what the service is asked to attach to each entry
	// when additional information is requested.
	additionalFields = "real_path,size,owner,time,perm"
)

// ListShareOptions controls SYNO.FileStation.List list_share. Zero values
// fall back to limit 25, sorted by name ascending.
type ListShareOptions struct {
	WritableOnly  bool
	Limit         int
	Offset        int
	SortBy        string
	SortDirection string
	Additional    bool
}

// ListOptions controls SYNO.FileStation.List list. Zero values fall back to
// limit 25, sorted by name ascending, all file types.
type ListOptions struct {
	Limit         int
	Offset        int
	SortBy        string
	SortDirection string
	Pattern       string
	FileType      string
	Additional    bool
}

func pageParams(params url.Values, limit, offset int, sortBy, direction string) {
	if limit == 0 {
		limit = defaultLimit
	}
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	if direction == "" {
		direction = defaultSortDirection
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("sort_by", sortBy)
	params.Set("sort_direction", direction)
}

func additionalParam(params url.Values, additional bool) {
	if additional {
		params.Set("additional", additionalFields)
	}
}

// Info returns general FileStation information for the session.
func (fs *FileStation) Info(ctx context.Context) (*models.Info, error) {
	return call[models.Info](ctx, fs.api, client.NewRequest(client.APIFileStationInfo, "getinfo", nil))
}

// ListShares lists the shared folders visible to the logged-in user.
func (fs *FileStation) ListShares(ctx context.Context, opts ListShareOptions) (*models.ShareList, error) {
	params := url.Values{"onlywritable": {client.FormatBool(opts.WritableOnly)}}
	pageParams(params, opts.Limit, opts.Offset, opts.SortBy, opts.SortDirection)
	additionalParam(params, opts.Additional)

	return call[models.ShareList](ctx, fs.api, client.NewRequest(client.APIList, "list_share", params))
}

// List enumerates the entries of the folder at path.
func (fs *FileStation) List(ctx context.Context, path string, opts ListOptions) (*models.FileList, error) {
	fileType := opts.FileType
	if fileType == "" {
		fileType = defaultFileType
	}
	params := url.Values{
		"folder_path": {path},
		"filetype":    {fileType},
	}
	if opts.Pattern != "" {
		params.Set("pattern", opts.Pattern)
	}
	pageParams(params, opts.Limit, opts.Offset, opts.SortBy, opts.SortDirection)
	additionalParam(params, opts.Additional)

	return call[models.FileList](ctx, fs.api, client.NewRequest(client.APIList, "list", params))
}

// GetInfo returns the entry for a single file or folder.
func (fs *FileStation) GetInfo(ctx context.Context, path string, additional bool) (*models.FileList, error) {
	params := url.Values{"path": {path}}
	additionalParam(params, additional)

	return call[models.FileList](ctx, fs.api, client.NewRequest(client.APIList, "getinfo", params))
}

// CheckWritePermission succeeds when the user may write to path.
func (fs *FileStation) CheckWritePermission(ctx context.Context, path string) error {
	params := url.Values{
		"path":        {path},
		"create_only": {client.FormatBool(false)},
	}
	_, err := fs.api.Call(ctx, client.NewRequest(client.APICheckPermission, "write", params))
	return err
}

// Delete removes path using the blocking variant of the API.
func (fs *FileStation) Delete(ctx context.Context, path string) error {
	_, err := fs.api.Call(ctx, client.NewRequest(client.APIDelete, "delete", url.Values{"path": {path}}))
	return err
}

// CreateFolder creates name inside parent. With forceParent missing parents
// are created too.
func (fs *FileStation) CreateFolder(ctx context.Context, parent, name string, forceParent, additional bool) (*models.CreatedFolders, error) {
	params := url.Values{
		"folder_path":  {parent},
		"name":         {name},
		"force_parent": {client.FormatBool(forceParent)},
	}
	additionalParam(params, additional)

	return call[models.CreatedFolders](ctx, fs.api, client.NewRequest(client.APICreateFolder, "create", params))
}

// Rename gives the entry at path the new name.
func (fs *FileStation) Rename(ctx context.Context, path, name string, additional bool) (*models.RenamedFiles, error) {
	params := url.Values{
		"path": {path},
		"name": {name},
	}
	additionalParam(params, additional)

	return call[models.RenamedFiles](ctx, fs.api, client.NewRequest(client.APIRename, "rename", params))
}
