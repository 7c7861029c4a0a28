package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kelsos/filestation/internal/config"
)

type recordedRequest struct {
	Path  string
	Query url.Values
	Form  url.Values
	File  string
	Name  string
}

type ClientSuite struct {
	suite.Suite

	server   *httptest.Server
	client   *APIClient
	handler  http.HandlerFunc
	mu       sync.Mutex
	requests []recordedRequest
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.requests = nil
	s.handler = nil
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Path: r.URL.Path, Query: r.URL.Query()}
		if r.Method == http.MethodPost {
			s.Require().NoError(r.ParseMultipartForm(1 << 20))
			rec.Form = url.Values(r.MultipartForm.Value)
			if file, header, err := r.FormFile("file"); err == nil {
				data, _ := io.ReadAll(file)
				rec.File = string(data)
				rec.Name = header.Filename
				file.Close()
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()
		s.handler(w, r)
	}))

	cfg := config.NewConfig()
	cfg.BaseURL = s.server.URL
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.RequestTimeout = 5 * time.Second
	cfg.APIReadyAttempts = 3
	cfg.APIReadyDelay = time.Millisecond
	s.client = NewAPIClient(cfg)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ClientSuite) TestCallReturnsData() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": map[string]any{"taskid": "t1"}})
	}

	data, err := s.client.Call(context.Background(), NewRequest(APISearch, "start", url.Values{"folder_path": {"/volume1/data"}}))
	s.Require().NoError(err)
	s.JSONEq(`{"taskid":"t1"}`, string(data))

	s.Require().Len(s.recorded(), 1)
	req := s.recorded()[0]
	s.Equal("/webapi/entry.cgi", req.Path)
	s.Equal(APISearch, req.Query.Get("api"))
	s.Equal("2", req.Query.Get("version"))
	s.Equal("start", req.Query.Get("method"))
	s.Equal("/volume1/data", req.Query.Get("folder_path"))
	s.False(req.Query.Has("_sid"))
}

func (s *ClientSuite) TestCallWithoutDataReturnsEmptyObject() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	}

	data, err := s.client.Call(context.Background(), NewRequest(APIDelete, "delete", nil))
	s.Require().NoError(err)
	s.JSONEq(`{}`, string(data))
}

func (s *ClientSuite) TestCallAPIError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"success": false,
			"error": map[string]any{
				"code":   408,
				"errors": []map[string]any{{"code": 408, "path": "/volume1/missing"}},
			},
		})
	}

	_, err := s.client.Call(context.Background(), NewRequest(APIList, "getinfo", nil))
	s.Require().Error(err)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(408, apiErr.Code)
	s.Equal(APIList, apiErr.API)
	s.Contains(err.Error(), "no such file or directory")
	s.Contains(err.Error(), "/volume1/missing")
	s.False(apiErr.SessionExpired())
}

func (s *ClientSuite) TestCallHTTPError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	_, err := s.client.Call(context.Background(), NewRequest(APIList, "list", nil))

	var transportErr *TransportError
	s.Require().ErrorAs(err, &transportErr)
	s.Equal(http.StatusBadGateway, transportErr.StatusCode)
	s.Contains(transportErr.Body, "bad gateway")
}

func (s *ClientSuite) TestCallMalformedEnvelope() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}

	_, err := s.client.Call(context.Background(), NewRequest(APIList, "list", nil))

	var transportErr *TransportError
	s.Require().ErrorAs(err, &transportErr)
	s.Zero(transportErr.StatusCode)
}

func (s *ClientSuite) TestCallCanceledContext() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.client.Call(ctx, NewRequest(APIList, "list", nil))

	var transportErr *TransportError
	s.Require().ErrorAs(err, &transportErr)
	s.True(errors.Is(err, context.Canceled))
}

func (s *ClientSuite) TestLoginStoresSessionAndSendsIt() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("api") {
		case APIAuth:
			if r.URL.Query().Get("method") == "login" {
				writeJSON(w, map[string]any{"success": true, "data": map[string]any{"sid": "abc123"}})
				return
			}
			writeJSON(w, map[string]any{"success": true})
		default:
			writeJSON(w, map[string]any{"success": true, "data": map[string]any{}})
		}
	}

	ctx := context.Background()
	s.Require().NoError(s.client.Login(ctx))
	s.Equal("abc123", s.client.SessionID())

	_, err := s.client.Call(ctx, NewRequest(APIList, "list_share", nil))
	s.Require().NoError(err)

	s.Require().NoError(s.client.Logout(ctx))
	s.Empty(s.client.SessionID())

	s.Require().Len(s.recorded(), 3)
	login := s.recorded()[0].Query
	s.Equal("admin", login.Get("account"))
	s.Equal("secret", login.Get("passwd"))
	s.Equal("FileStation", login.Get("session"))
	s.Equal("sid", login.Get("format"))
	s.Equal("6", login.Get("version"))
	s.Equal("abc123", s.recorded()[1].Query.Get("_sid"))
	s.Equal("logout", s.recorded()[2].Query.Get("method"))
	s.Equal("abc123", s.recorded()[2].Query.Get("_sid"))
}

func (s *ClientSuite) TestLoginRejected() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": map[string]any{"code": 400}})
	}

	err := s.client.Login(context.Background())
	s.Require().Error(err)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Contains(err.Error(), "no such account or incorrect password")
	s.Empty(s.client.SessionID())
}

func (s *ClientSuite) TestLogoutWithoutSessionIsNoop() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Fail("no request expected")
	}

	s.NoError(s.client.Logout(context.Background()))
	s.Empty(s.recorded())
}

func (s *ClientSuite) TestCallBinaryStreamsBody() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}

	var buf bytes.Buffer
	n, err := s.client.CallBinary(context.Background(), NewRequest(APIThumb, "get", url.Values{"path": {"/volume1/a.jpg"}}), &buf)
	s.Require().NoError(err)
	s.EqualValues(len("jpeg-bytes"), n)
	s.Equal("jpeg-bytes", buf.String())
	s.Equal("/volume1/a.jpg", s.recorded()[0].Query.Get("path"))
}

func (s *ClientSuite) TestCallBinaryJSONFailure() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": map[string]any{"code": 408}})
	}

	var buf bytes.Buffer
	_, err := s.client.CallBinary(context.Background(), NewRequest(APIDownload, "download", nil), &buf)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(408, apiErr.Code)
	s.Zero(buf.Len())
}

func (s *ClientSuite) TestCallBinaryJSONFileIsContent() {
	bodies := []string{
		`{"name": "settings", "enabled": true}`,
		`{"success": false, "note": "no error object"}`,
		`[1, 2, 3]`,
	}

	for _, body := range bodies {
		s.Run(body, func() {
			s.handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				_, _ = w.Write([]byte(body))
			}

			var buf bytes.Buffer
			n, err := s.client.CallBinary(context.Background(), NewRequest(APIDownload, "download", url.Values{"mode": {"open"}}), &buf)
			s.Require().NoError(err)
			s.EqualValues(len(body), n)
			s.Equal(body, buf.String())
		})
	}
}

func (s *ClientSuite) TestUploadMultipartFields() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	}
	s.client.setSessionID("sid-1")

	_, err := s.client.Upload(context.Background(), UploadRequest{
		DestFolder:    "/volume1/data",
		FileName:      "report.txt",
		Content:       strings.NewReader("hello"),
		CreateParents: true,
	})
	s.Require().NoError(err)

	s.Require().Len(s.recorded(), 1)
	form := s.recorded()[0].Form
	s.Equal(APIUpload, form.Get("api"))
	s.Equal("1", form.Get("version"))
	s.Equal("upload", form.Get("method"))
	s.Equal("true", form.Get("create_parents"))
	s.Equal("/volume1/data", form.Get("dest_folder_path"))
	s.Equal("sid-1", form.Get("_sid"))
	s.False(form.Has("overwrite"))
	s.Equal("hello", s.recorded()[0].File)
	s.Equal("report.txt", s.recorded()[0].Name)
}

func (s *ClientSuite) TestUploadOverwrite() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	}

	_, err := s.client.Upload(context.Background(), UploadRequest{
		DestFolder: "/volume1/data",
		FileName:   "report.txt",
		Content:    strings.NewReader("hello"),
		Overwrite:  true,
	})
	s.Require().NoError(err)
	s.Equal("true", s.recorded()[0].Form.Get("overwrite"))
}

func (s *ClientSuite) TestPingAndWaitForAPIReady() {
	var calls atomic.Int32
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"success": true, "data": map[string]any{
			APIAuth: map[string]any{"path": "entry.cgi", "minVersion": 1, "maxVersion": 7},
		}})
	}

	s.True(s.client.WaitForAPIReady(context.Background()))
	s.EqualValues(2, calls.Load())
	s.Equal("/webapi/query.cgi", s.recorded()[0].Path)
	s.Equal(APIAuth+",SYNO.FileStation.", s.recorded()[0].Query.Get("query"))

	apis, err := s.client.Ping(context.Background())
	s.Require().NoError(err)
	s.Equal(7, apis[APIAuth].MaxVersion)
}

func (s *ClientSuite) TestWaitForAPIReadyGivesUp() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}

	s.False(s.client.WaitForAPIReady(context.Background()))
	s.Len(s.recorded(), 3)
}
