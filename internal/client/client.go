package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kelsos/filestation/internal/config"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

const userAgent = "filestation-cli/1"

// APIClient handles all HTTP communication with the DSM web API
type APIClient struct {
	config *config.Config
	rest   *resty.Client

	mu  sync.RWMutex
	sid string
}

// NewAPIClient creates a new API client with the given configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", userAgent)

	if cfg.Insecure {
		// #nosec G402 - opt-in for appliances with self-signed certificates
		rest.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &APIClient{
		config: cfg,
		rest:   rest,
	}
}

// SessionID returns the sid of the current session, empty when logged out.
func (c *APIClient) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sid
}

func (c *APIClient) setSessionID(sid string) {
	c.mu.Lock()
	c.sid = sid
	c.mu.Unlock()
}

// Call issues req once and returns the data member of a successful envelope.
func (c *APIClient) Call(ctx context.Context, req *Request) (json.RawMessage, error) {
	start := time.Now()
	logger.Debug("Starting %s request", req)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParamsFromValues(req.Query(c.SessionID())).
		Get(req.Path())
	if err != nil {
		logger.Error("%s failed after %v: %v", req, time.Since(start), err)
		return nil, &TransportError{Request: req.String(), Err: err}
	}

	logger.Debug("%s completed in %v with status %d", req, time.Since(start), resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Request: req.String(), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return decodeEnvelope(req, resp.Body())
}

// CallBinary issues req and streams the raw response body into w. DSM answers
// failed binary calls with a JSON envelope, which is returned as an APIError.
// Any other JSON body is file content and is copied unchanged.
func (c *APIClient) CallBinary(ctx context.Context, req *Request, w io.Writer) (int64, error) {
	start := time.Now()
	logger.Debug("Starting binary %s request", req)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParamsFromValues(req.Query(c.SessionID())).
		Get(req.Path())
	if err != nil {
		logger.Error("%s failed after %v: %v", req, time.Since(start), err)
		return 0, &TransportError{Request: req.String(), Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		data, _ := io.ReadAll(body)
		return 0, &TransportError{Request: req.String(), StatusCode: resp.StatusCode(), Body: string(data)}
	}

	if isJSON(resp.Header().Get("Content-Type")) {
		data, err := io.ReadAll(body)
		if err != nil {
			return 0, &TransportError{Request: req.String(), Err: err}
		}
		if apiErr := binaryFailure(req, data); apiErr != nil {
			return 0, apiErr
		}
		n, err := io.Copy(w, bytes.NewReader(data))
		if err != nil {
			return n, &TransportError{Request: req.String(), Err: fmt.Errorf("error streaming response: %w", err)}
		}
		return n, nil
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, &TransportError{Request: req.String(), Err: fmt.Errorf("error streaming response: %w", err)}
	}

	logger.Debug("%s streamed %d bytes in %v", req, n, time.Since(start))
	return n, nil
}

// UploadRequest describes a multipart upload into DestFolder.
type UploadRequest struct {
	DestFolder    string
	FileName      string
	Content       io.Reader
	Overwrite     bool
	CreateParents bool
}

// Upload posts a multipart form to SYNO.FileStation.Upload. The overwrite
// field is omitted unless requested, which makes the service reject an
// existing target instead of silently skipping it.
func (c *APIClient) Upload(ctx context.Context, up UploadRequest) (json.RawMessage, error) {
	req := NewRequest(APIUpload, "upload", nil)
	start := time.Now()
	logger.Debug("Starting %s request for %s/%s", req, up.DestFolder, up.FileName)

	form := map[string]string{
		"api":              req.API,
		"version":          strconv.Itoa(req.Version),
		"method":           req.Method,
		"create_parents":   FormatBool(up.CreateParents),
		"dest_folder_path": up.DestFolder,
	}
	if up.Overwrite {
		form["overwrite"] = FormatBool(true)
	}
	if sid := c.SessionID(); sid != "" {
		form["_sid"] = sid
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetMultipartField("file", up.FileName, "application/octet-stream", up.Content).
		Post(req.Path())
	if err != nil {
		logger.Error("%s failed after %v: %v", req, time.Since(start), err)
		return nil, &TransportError{Request: req.String(), Err: err}
	}

	logger.Debug("%s completed in %v with status %d", req, time.Since(start), resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Request: req.String(), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return decodeEnvelope(req, resp.Body())
}

// Ping queries SYNO.API.Info for the APIs this client relies on.
func (c *APIClient) Ping(ctx context.Context) (map[string]models.APIInfo, error) {
	params := url.Values{"query": {APIAuth + ",SYNO.FileStation."}}
	data, err := c.Call(ctx, NewRequest(APIInfo, "query", params))
	if err != nil {
		return nil, err
	}

	var apis map[string]models.APIInfo
	if err := json.Unmarshal(data, &apis); err != nil {
		return nil, &TransportError{Request: APIInfo + ".query", Err: fmt.Errorf("error decoding API info: %w", err)}
	}
	return apis, nil
}

// WaitForAPIReady pings the API until it answers or attempts run out.
func (c *APIClient) WaitForAPIReady(ctx context.Context) bool {
	attempts := c.config.APIReadyAttempts
	logger.Info("Checking API readiness...")

	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Debug("Checking API readiness (attempt %d/%d)...", attempt, attempts)

		_, err := c.Ping(ctx)
		if err == nil {
			logger.Info("API is ready!")
			return true
		}
		logger.Warn("API not ready: %v", err)

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(c.config.APIReadyDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	logger.Error("API failed to become ready after %d attempts", attempts)
	return false
}

func decodeEnvelope(req *Request, body []byte) (json.RawMessage, error) {
	var envelope models.APIResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TransportError{Request: req.String(), Err: fmt.Errorf("error decoding response: %w", err)}
	}

	if !envelope.Success {
		apiErr := &APIError{API: req.API, Method: req.Method, Code: 100}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Details = envelope.Error.Errors
		}
		logger.Debug("%s answered with error code %d", req, apiErr.Code)
		return nil, apiErr
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return json.RawMessage("{}"), nil
	}
	return envelope.Data, nil
}

// binaryFailure recognizes a failure envelope: success explicitly false and an
// error object with a code. Anything else is not an envelope.
func binaryFailure(req *Request, body []byte) *APIError {
	var envelope struct {
		Success *bool                `json:"success"`
		Error   *models.APIErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Success == nil || *envelope.Success || envelope.Error == nil {
		return nil
	}

	logger.Debug("%s answered with error code %d", req, envelope.Error.Code)
	return &APIError{API: req.API, Method: req.Method, Code: envelope.Error.Code, Details: envelope.Error.Errors}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(contentType, "application/json")
	}
	return mediaType == "application/json"
}
