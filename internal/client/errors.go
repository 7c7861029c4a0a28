package client

import (
	"fmt"
	"strings"

	"github.com/kelsos/filestation/internal/models"
)

// TransportError reports a request that never produced a usable DSM envelope:
// network failures, non-2xx statuses and undecodable bodies.
type TransportError struct {
	Request    string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP error %d: %s", e.Request, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Request, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a DSM envelope answered with success=false.
type APIError struct {
	API     string
	Method  string
	Code    int
	Details []models.APIErrorDetail
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s.%s failed with code %d (%s)", e.API, e.Method, e.Code, Describe(e.API, e.Code))
	if len(e.Details) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Path, Describe(e.API, d.Code)))
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// SessionExpired reports codes that require a fresh login.
func (e *APIError) SessionExpired() bool {
	switch e.Code {
	case 106, 107, 119:
		return true
	}
	return false
}

var commonCodes = map[int]string{
	100: "unknown error",
	101: "no parameter of API, method or version",
	102: "the requested API does not exist",
	103: "the requested method does not exist",
	104: "the requested version does not support the functionality",
	105: "the logged in session does not have permission",
	106: "session timeout",
	107: "session interrupted by duplicate login",
	119: "SID not found",
}

var authCodes = map[int]string{
	400: "no such account or incorrect password",
	401: "account disabled",
	402: "permission denied",
	403: "2-step verification code required",
	404: "failed to authenticate 2-step verification code",
}

var fileStationCodes = map[int]string{
	400: "invalid parameter of file operation",
	401: "unknown error of file operation",
	402: "system is too busy",
	403: "invalid user does this file operation",
	404: "invalid group does this file operation",
	405: "invalid user and group does this file operation",
	406: "can't get user/group information from the account server",
	407: "operation not permitted",
	408: "no such file or directory",
	409: "non-supported file system",
	410: "failed to connect internet-based file system",
	411: "read-only file system",
	412: "filename too long in the non-encrypted file system",
	413: "filename too long in the encrypted file system",
	414: "file already exists",
	415: "disk quota exceeded",
	416: "no space left on device",
	417: "input/output error",
	418: "illegal name or path",
	419: "illegal file name",
	420: "illegal file name on FAT file system",
	421: "device or resource busy",
	599: "no such task of the file operation",
	900: "failed to delete file(s)/folder(s)",
	1100: "failed to create a folder",
	1101: "the number of folders in the parent folder would exceed the system limitation",
	1200: "failed to rename it",
	1800: "content length missing or mismatched",
	1801: "timed out waiting for upload data",
	1802: "no filename information in the last part of the file content",
	1803: "upload connection was cancelled",
	1804: "failed to upload oversized file to FAT file system",
	1805: "can't overwrite or skip the existing file without an overwrite parameter",
}

// Describe returns a human readable description of a DSM error code.
func Describe(api string, code int) string {
	if msg, ok := commonCodes[code]; ok {
		return msg
	}
	switch {
	case api == APIAuth:
		if msg, ok := authCodes[code]; ok {
			return msg
		}
	case strings.HasPrefix(api, "SYNO.FileStation."):
		if msg, ok := fileStationCodes[code]; ok {
			return msg
		}
	}
	return "unknown error code"
}
