package client

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultCGI = "entry.cgi"

	APIInfo            = "SYNO.API.Info"
	APIAuth            = "SYNO.API.Auth"
	APIFileStationInfo = "SYNO.FileStation.Info"
	APIList            = "SYNO.FileStation.List"
	APISearch          = "SYNO.FileStation.Search"
	APIDirSize         = "SYNO.FileStation.DirSize"
	APIMD5             = "SYNO.FileStation.MD5"
	APICheckPermission = "SYNO.FileStation.CheckPermission"
	APIDelete          = "SYNO.FileStation.Delete"
	APICreateFolder    = "SYNO.FileStation.CreateFolder"
	APIRename          = "SYNO.FileStation.Rename"
	APIThumb           = "SYNO.FileStation.Thumb"
	APIDownload        = "SYNO.FileStation.Download"
	APIUpload          = "SYNO.FileStation.Upload"
)

var apiVersions = map[string]int{
	APIInfo:            1,
	APIAuth:            6,
	APIFileStationInfo: 2,
	APIList:            2,
	APISearch:          2,
	APIDirSize:         2,
	APIMD5:             2,
	APICheckPermission: 3,
	APIDelete:          2,
	APICreateFolder:    2,
	APIRename:          2,
	APIThumb:           2,
	APIDownload:        2,
	APIUpload:          1,
}

var apiCGIs = map[string]string{
	APIInfo: "query.cgi",
}

// Request is a dispatchable description of one web API call.
type Request struct {
	API     string
	Version int
	CGI     string
	Method  string
	Params  url.Values
}

// NewRequest builds a request for api/method using the version and CGI
// script this client was written against.
func NewRequest(api, method string, params url.Values) *Request {
	version, ok := apiVersions[api]
	if !ok {
		version = 1
	}
	cgi, ok := apiCGIs[api]
	if !ok {
		cgi = DefaultCGI
	}
	if params == nil {
		params = url.Values{}
	}
	return &Request{
		API:     api,
		Version: version,
		CGI:     cgi,
		Method:  method,
		Params:  params,
	}
}

// Path returns the URL path of the CGI entry point relative to the base URL.
func (r *Request) Path() string {
	cgi := r.CGI
	if cgi == "" {
		cgi = DefaultCGI
	}
	return "/webapi/" + cgi
}

// Query merges the method parameters with the api/version/method triple and
// the session id. An empty sid is left out.
func (r *Request) Query(sid string) url.Values {
	query := url.Values{}
	for key, values := range r.Params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set("api", r.API)
	query.Set("version", strconv.Itoa(r.Version))
	query.Set("method", r.Method)
	if sid != "" {
		query.Set("_sid", sid)
	}
	return query
}

func (r *Request) String() string {
	return fmt.Sprintf("%s.%s v%d", r.API, r.Method, r.Version)
}

// FormatBool renders a boolean the way the web API expects it.
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}
