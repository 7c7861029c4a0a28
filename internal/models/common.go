package models

import "encoding/json"

// APIResponse is the envelope every DSM web API call answers with.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *APIErrorBody   `json:"error,omitempty"`
}

type APIErrorBody struct {
	Code   int              `json:"code"`
	Errors []APIErrorDetail `json:"errors,omitempty"`
}

// APIErrorDetail points at the path a multi-path operation failed on.
type APIErrorDetail struct {
	Code int    `json:"code"`
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
}

// APIInfo describes one entry of a SYNO.API.Info query answer.
type APIInfo struct {
	Path          string `json:"path"`
	MinVersion    int    `json:"minVersion"`
	MaxVersion    int    `json:"maxVersion"`
	RequestFormat string `json:"requestFormat,omitempty"`
}

type LoginResponse struct {
	SID string `json:"sid"`
}
