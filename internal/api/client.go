package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service defines the server operations available to the CLI. It is
// implemented by *Client and by the disabled-network gate.
type Service interface {
	UploadRecording(ctx context.Context, path string) (*RecordingUploadResult, error)
	ListUserStreams(ctx context.Context, prefix string) ([]StreamHandle, error)
	CreateStream(ctx context.Context, changeset StreamChangeset) (*StreamHandle, error)
	UpdateStream(ctx context.Context, id uint64, changeset StreamChangeset) (*StreamHandle, error)
}

// Ensure both implementations satisfy Service at compile time.
var (
	_ Service = (*Client)(nil)
	_ Service = disabled{}
)

// Config supplies the server location and installation credentials. Both
// are looked up on every operation.
type Config interface {
	ServerURL() (*url.URL, error)
	InstallID() (string, error)
}

// Client talks to the asciinema server HTTP API.
type Client struct {
	config    Config
	http      *http.Client
	logger    *zap.Logger
	userAgent string
}

const (
	recordingsPath  = "/api/v1/recordings"
	userStreamsPath = "/api/v1/user/streams"
	streamsPath     = "/api/v1/streams"

	userStreamsLimit = 10

	uploadUnreachable = "cannot upload recording - is the server down?"
	streamUnreachable = "cannot obtain stream producer endpoint - is the server down?"
)

// Option configures New and NewClient.
type Option func(*options)

type options struct {
	httpClient      *http.Client
	logger          *zap.Logger
	networkDisabled bool
}

// WithHTTPClient replaces the default transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNetworkDisabled makes New return the disabled gate.
func WithNetworkDisabled(disabled bool) Option {
	return func(o *options) { o.networkDisabled = disabled }
}

// New returns the Service for cfg: a *Client, or a gate that fails every
// operation with ErrNetworkDisabled when network access is turned off.
func New(cfg Config, opts ...Option) Service {
	o := collectOptions(opts)
	if o.networkDisabled {
		return disabled{}
	}
	return newClient(cfg, o)
}

// NewClient builds a network-enabled Client.
func NewClient(cfg Config, opts ...Option) *Client {
	return newClient(cfg, collectOptions(opts))
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func newClient(cfg Config, o options) *Client {
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:    cfg,
		http:      httpClient,
		logger:    logger,
		userAgent: UserAgent(),
	}
}

// UploadRecording sends the recording at path as a multipart form.
func (c *Client) UploadRecording(ctx context.Context, path string) (*RecordingUploadResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ep, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	body, contentType, err := multipartFile("file", path)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, ep, http.MethodPost, &url.URL{Path: recordingsPath}, body, contentType)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, transportError(uploadUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return interpretRecordingResponse(resp)
}

// ListUserStreams returns up to ten of the user's streams whose names start
// with prefix.
func (c *Client) ListUserStreams(ctx context.Context, prefix string) ([]StreamHandle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ep, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	rel := &url.URL{
		Path:     userStreamsPath,
		RawQuery: "prefix=" + url.QueryEscape(prefix) + "&limit=" + strconv.Itoa(userStreamsLimit),
	}
	req, err := c.newRequest(ctx, ep, http.MethodGet, rel, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, transportError(streamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var streams []StreamHandle
	if err := interpretStreamResponse(resp, ep.hostname(), &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

// CreateStream creates a stream initialized from changeset.
func (c *Client) CreateStream(ctx context.Context, changeset StreamChangeset) (*StreamHandle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.writeStream(ctx, http.MethodPost, streamsPath, changeset)
}

// UpdateStream applies changeset to stream id.
func (c *Client) UpdateStream(ctx context.Context, id uint64, changeset StreamChangeset) (*StreamHandle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.writeStream(ctx, http.MethodPatch, streamsPath+"/"+strconv.FormatUint(id, 10), changeset)
}

func (c *Client) writeStream(ctx context.Context, method, path string, changeset StreamChangeset) (*StreamHandle, error) {
	ep, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(changeset)
	if err != nil {
		return nil, fmt.Errorf("encode changeset: %w", err)
	}
	req, err := c.newRequest(ctx, ep, method, &url.URL{Path: path}, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, transportError(streamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var stream StreamHandle
	if err := interpretStreamResponse(resp, ep.hostname(), &stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

// endpoint captures the per-operation server URL and install id.
type endpoint struct {
	base      *url.URL
	installID string
}

// hostname is the server host without its port. IPv6 literals keep their
// brackets.
func (e endpoint) hostname() string {
	host := e.base.Hostname()
	switch {
	case host == "":
		return e.base.Host
	case strings.Contains(host, ":"):
		return "[" + host + "]"
	}
	return host
}

func (c *Client) endpoint() (endpoint, error) {
	base, err := c.config.ServerURL()
	if err != nil {
		return endpoint{}, &ConfigError{Err: err}
	}
	installID, err := c.config.InstallID()
	if err != nil {
		return endpoint{}, &ConfigError{Err: err}
	}
	return endpoint{base: base, installID: installID}, nil
}

func (c *Client) newRequest(ctx context.Context, ep endpoint, method string, rel *url.URL, body io.Reader, contentType string) (*http.Request, error) {
	reqURL := ep.base.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(BasicAuthPair(ep.installID))
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do sends req. An error means no response was received.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	target := req.URL.Redacted()
	start := time.Now()
	c.logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", target),
	)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	c.logger.Debug("received response",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// multipartFile reads path fully into a form body with a single file field.
func multipartFile(field, path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open recording: %w", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read recording: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func transportError(message string, err error) error {
	return &TransportError{Message: message, Err: err}
}
