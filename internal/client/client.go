// Package client is the HTTP client for the session API: snapshot reads
// used by reconciliation and the mutating approval/artifact actions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
	"github.com/felixgeelhaar/tasksync/internal/log"
	"github.com/felixgeelhaar/tasksync/internal/version"
)

// Client calls the session REST API
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// New creates an API client for the given base URL
func New(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// BaseURL returns the configured API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session fetches the session record
func (c *Client) Session(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	if err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tasks fetches the session's task snapshots
func (c *Client) Tasks(ctx context.Context, sessionID string) ([]Task, error) {
	var out []Task
	if err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID)+"/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approvals fetches the session's pending and resolved approvals
func (c *Client) Approvals(ctx context.Context, sessionID string) ([]Approval, error) {
	var out []Approval
	if err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID)+"/approvals", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Artifacts fetches the session's artifact snapshots
func (c *Client) Artifacts(ctx context.Context, sessionID string) ([]Artifact, error) {
	var out []Artifact
	if err := c.get(ctx, "/sessions/"+url.PathEscape(sessionID)+"/artifacts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveApproval resolves a pending approval to approved or rejected
func (c *Client) ResolveApproval(ctx context.Context, approvalID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/approvals/"+url.PathEscape(approvalID), body, nil)
}

// ApplyArtifact applies a generated artifact and returns the authoritative
// post-apply record.
func (c *Client) ApplyArtifact(ctx context.Context, artifactID string) (*Artifact, error) {
	var out Artifact
	if err := c.do(ctx, http.MethodPost, "/artifacts/"+url.PathEscape(artifactID)+"/apply", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevertArtifact reverts a previously applied artifact and returns the
// authoritative post-revert record.
func (c *Client) RevertArtifact(ctx context.Context, artifactID string) (*Artifact, error) {
	var out Artifact
	if err := c.do(ctx, http.MethodPost, "/artifacts/"+url.PathEscape(artifactID)+"/revert", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get issues a GET and decodes the JSON response into out
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues one request with a fresh request id. Non-2xx statuses become
// coded API errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeAPIRequest,
			fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the log, then report the status.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("api error response",
			"method", method, "path", path,
			"status", resp.StatusCode, "body", string(snippet))
		return syncerrors.NewAPIStatusError(method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeAPIDecode,
			fmt.Sprintf("decode %s %s response", method, path), err)
	}
	return nil
}
