// ABOUTME: HTTP client for the assistant service (ask, process, health, process-repo)
// ABOUTME: JSON for questions, multipart form uploads for documents

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is read into a StatusError.
const maxErrorBody = 4096

// Client communicates with the assistant service HTTP API.
type Client struct {
	baseURL       string
	client        *http.Client
	timeout       time.Duration
	maxUploadSize int64
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Nil keeps the default.
// The client passed in is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves the http.Client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxUploadSize rejects files larger than n bytes before sending them.
// Zero disables the check.
func WithMaxUploadSize(n int64) Option {
	return func(c *Client) { c.maxUploadSize = n }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	c.logger = c.logger.With("component", "assistant")
	return c
}

// AskAssistant sends a question and returns the assistant's answer.
func (c *Client) AskAssistant(ctx context.Context, query string) (*Answer, error) {
	body, err := json.Marshal(askRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp askResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return nil, ErrEmptyAnswer
	}

	c.logger.Debug("answer received",
		"query_len", len(query),
		"answer_len", len(resp.Answer),
		"sources", len(resp.SourceDocuments))

	return resp.toAnswer(), nil
}

// ProcessFile uploads a document for ingestion as a multipart form with a
// single "file" field.
func (c *Client) ProcessFile(ctx context.Context, file *File) (*Ack, error) {
	if file == nil {
		return nil, fmt.Errorf("no file given")
	}
	if c.maxUploadSize > 0 && int64(len(file.Content)) > c.maxUploadSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, file.Name, len(file.Content), c.maxUploadSize)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var ack Ack
	if err := c.do(req, &ack); err != nil {
		return nil, err
	}

	c.logger.Debug("file processed", "file", file.Name, "bytes", len(file.Content), "ack", ack.Message)
	return &ack, nil
}

// ProcessRepository asks the service to ingest a path that lives on the server.
func (c *Client) ProcessRepository(ctx context.Context, path string) (*Ack, error) {
	body, err := json.Marshal(processRepoRequest{Path: path})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-repo", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ack Ack
	if err := c.do(req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	var resp healthResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unhealthy: status %q", resp.Status)
	}
	return nil
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// handleErrorResponse extracts the error detail from a non-2xx response.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case len(errResp.Detail) > 0:
			statusErr.Detail = rawText(errResp.Detail)
		case errResp.Error != "":
			statusErr.Detail = errResp.Error
		}
	}
	if statusErr.Detail == "" {
		statusErr.Detail = strings.TrimSpace(string(body))
	}

	c.logger.Debug("request failed",
		"url", resp.Request.URL.Path,
		"status", resp.StatusCode,
		"detail", statusErr.Detail)

	return statusErr
}

// ReadFile loads a document from disk for upload. When allowed is non-empty,
// the file extension must match one of its entries (case-insensitive).
func ReadFile(path string, allowed []string) (*File, error) {
	name := filepath.Base(path)
	if len(allowed) > 0 && !hasAllowedExtension(name, allowed) {
		return nil, fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFileType, name, strings.Join(allowed, ", "))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return &File{Name: name, Content: content}, nil
}

func hasAllowedExtension(name string, allowed []string) bool {
	ext := filepath.Ext(name)
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}
