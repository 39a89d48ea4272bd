// Package stream implements the resumable event-stream transport: opening a
// session stream, parsing frames, and tracking liveness. It knows nothing
// about the graph; callers feed frames to the reducer.
package stream

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
	"github.com/felixgeelhaar/tasksync/internal/log"
)

// contentTypeEventStream is the declared content kind a stream response
// must carry. Anything else means the server cannot stream this session.
const contentTypeEventStream = "text/event-stream"

// Transport opens long-lived event streams against the session API
type Transport struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewTransport creates a stream transport for the given API base URL.
// The HTTP client must not enforce an overall request timeout: the stream
// request stays open for the connection's lifetime.
func NewTransport(baseURL string, client *http.Client, logger *log.Logger) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Conn is an open event stream
type Conn struct {
	body    io.ReadCloser
	scanner *Scanner
}

// Next returns the next well-formed frame, blocking until one arrives.
// io.EOF signals a remote close.
func (c *Conn) Next() (Frame, error) {
	return c.scanner.Next()
}

// Close aborts the stream
func (c *Conn) Close() error {
	return c.body.Close()
}

// Open establishes the event stream for a session, resuming after
// lastEventID when non-empty. A server response whose content kind is not an
// event stream (or a missing/placeholder session id) yields a SyncError with
// code STREAM-001; the caller must fall back to polling instead of retrying
// the stream.
func (t *Transport) Open(ctx context.Context, sessionID, lastEventID string) (*Conn, error) {
	if sessionID == "" || sessionID == "new" {
		return nil, syncerrors.NewStreamUnavailableError(sessionID, "")
	}

	endpoint := fmt.Sprintf("%s/sessions/%s/stream", t.baseURL, url.PathEscape(sessionID))
	if lastEventID != "" {
		endpoint += "?lastEventId=" + url.QueryEscape(lastEventID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", contentTypeEventStream)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if resp.StatusCode != http.StatusOK || mediaType != contentTypeEventStream {
		resp.Body.Close()
		t.logger.Debug("stream unavailable",
			"session_id", sessionID,
			"status", resp.StatusCode,
			"content_type", mediaType)
		return nil, syncerrors.NewStreamUnavailableError(sessionID, mediaType)
	}

	t.logger.Debug("stream opened", "session_id", sessionID, "last_event_id", lastEventID)
	return &Conn{
		body:    resp.Body,
		scanner: NewScanner(resp.Body),
	}, nil
}

// IsUnavailable reports whether err means streaming cannot be established
// for this session and the caller should poll instead.
func IsUnavailable(err error) bool {
	syncErr, ok := err.(*syncerrors.SyncError)
	return ok && syncErr.Code == syncerrors.ErrCodeStreamUnavailable
}

// Heartbeat is the reserved event type that refreshes liveness without
// mutating the graph.
const Heartbeat = "system.heartbeat"

// Liveness thresholds: the monitor samples every SampleInterval and marks
// the connection not live once silence exceeds SilenceThreshold.
const (
	SampleInterval   = 10 * time.Second
	SilenceThreshold = 45 * time.Second
)
