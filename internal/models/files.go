package models

type Info struct {
	Hostname               string `json:"hostname"`
	IsManager              bool   `json:"is_manager"`
	SupportSharing         bool   `json:"support_sharing"`
	SupportVirtualProtocol string `json:"support_virtual_protocol,omitempty"`
}

type FileOwner struct {
	User  string `json:"user"`
	Group string `json:"group"`
	UID   int    `json:"uid"`
	GID   int    `json:"gid"`
}

type FileTime struct {
	Atime  int64 `json:"atime"`
	Mtime  int64 `json:"mtime"`
	Ctime  int64 `json:"ctime"`
	Crtime int64 `json:"crtime"`
}

type FilePerm struct {
	Posix     int  `json:"posix"`
	IsACLMode bool `json:"is_acl_mode"`
}

type FileAdditional struct {
	RealPath string     `json:"real_path,omitempty"`
	Size     int64      `json:"size,omitempty"`
	Owner    *FileOwner `json:"owner,omitempty"`
	Time     *FileTime  `json:"time,omitempty"`
	Perm     *FilePerm  `json:"perm,omitempty"`
	Type     string     `json:"type,omitempty"`
}

type File struct {
	Path       string          `json:"path"`
	Name       string          `json:"name"`
	IsDir      bool            `json:"isdir"`
	Additional *FileAdditional `json:"additional,omitempty"`
}

type FileList struct {
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Files  []File `json:"files"`
}

// SearchStatus is what SYNO.FileStation.Search list answers while polling.
type SearchStatus struct {
	Finished bool   `json:"finished"`
	Total    int    `json:"total"`
	Offset   int    `json:"offset"`
	Files    []File `json:"files"`
}

type Share struct {
	Path       string          `json:"path"`
	Name       string          `json:"name"`
	IsDir      bool            `json:"isdir"`
	Additional *FileAdditional `json:"additional,omitempty"`
}

type ShareList struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Shares []Share `json:"shares"`
}

type CreatedFolders struct {
	Folders []File `json:"folders"`
}

type RenamedFiles struct {
	Files []File `json:"files"`
}
