// Package cache persists reconstructed session graphs between page loads of
// the host application. One JSON file per session under a cache directory,
// with a retention TTL and a content checksum. Writes are best effort: a
// full disk or unwritable directory must never fail a sync path.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/tasksync/internal/graph"
	"github.com/felixgeelhaar/tasksync/internal/log"
)

// DefaultTTL is the enforced retention for cached graphs
const DefaultTTL = 7 * 24 * time.Hour

// entry is the on-disk shape of a cached graph
type entry struct {
	SessionID         string                     `json:"sessionId"`
	Status            graph.Status               `json:"status"`
	Nodes             []*graph.Node              `json:"nodes"`
	Artifacts         map[string]*graph.Artifact `json:"artifacts"`
	PendingApprovalID string                     `json:"pendingApprovalId,omitempty"`
	MessageUsage      map[string]graph.Usage     `json:"messageUsage,omitempty"`
	AgentMode         graph.AgentMode            `json:"agentMode,omitempty"`
	Usage             *graph.Usage               `json:"usage,omitempty"`
	SavedAt           time.Time                  `json:"savedAt"`
	Checksum          string                     `json:"checksum,omitempty"`
}

// Store is a session-scoped durable cache for graphs
type Store struct {
	dir    string
	ttl    time.Duration
	logger *log.Logger
}

// NewStore creates a cache store rooted at dir. A zero ttl means DefaultTTL.
func NewStore(dir string, ttl time.Duration, logger *log.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{dir: dir, ttl: ttl, logger: logger}
}

// Save writes a timestamped snapshot of the graph keyed by session id.
// Failures are logged and swallowed, never returned.
func (s *Store) Save(sessionID string, g *graph.Graph) {
	if g == nil || sessionID == "" {
		return
	}

	e := entry{
		SessionID:         g.SessionID,
		Status:            g.Status,
		Nodes:             g.Nodes,
		Artifacts:         g.Artifacts,
		PendingApprovalID: g.PendingApprovalID,
		MessageUsage:      g.MessageUsage,
		AgentMode:         g.AgentMode,
		Usage:             g.Usage,
		SavedAt:           time.Now(),
	}

	sum, err := checksum(&e)
	if err != nil {
		s.logger.WithError(err).Warn("cache checksum failed", "session_id", sessionID)
		return
	}
	e.Checksum = sum

	data, err := json.Marshal(&e)
	if err != nil {
		s.logger.WithError(err).Warn("cache marshal failed", "session_id", sessionID)
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.WithError(err).Warn("cache dir unavailable", "dir", s.dir)
		return
	}
	if err := os.WriteFile(s.path(sessionID), data, 0o644); err != nil {
		s.logger.WithError(err).Warn("cache write failed", "session_id", sessionID)
	}
}

// Load returns the cached graph for the session along with its save time.
// A miss (absent, corrupt, structurally invalid, or older than the TTL)
// returns (nil, zero time, false); stale and corrupt entries are evicted.
func (s *Store) Load(sessionID string) (*graph.Graph, time.Time, bool) {
	if sessionID == "" {
		return nil, time.Time{}, false
	}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return nil, time.Time{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.WithError(err).Warn("corrupt cache entry evicted", "session_id", sessionID)
		s.Evict(sessionID)
		return nil, time.Time{}, false
	}

	if e.SessionID == "" || e.Nodes == nil {
		s.logger.Warn("structurally invalid cache entry evicted", "session_id", sessionID)
		s.Evict(sessionID)
		return nil, time.Time{}, false
	}

	if e.Checksum != "" {
		want := e.Checksum
		e.Checksum = ""
		got, err := checksum(&e)
		if err != nil || got != want {
			s.logger.Warn("cache checksum mismatch, entry evicted", "session_id", sessionID)
			s.Evict(sessionID)
			return nil, time.Time{}, false
		}
	}

	if time.Since(e.SavedAt) > s.ttl {
		s.logger.Debug("stale cache entry evicted", "session_id", sessionID, "saved_at", e.SavedAt)
		s.Evict(sessionID)
		return nil, time.Time{}, false
	}

	g := &graph.Graph{
		SessionID:         e.SessionID,
		Status:            e.Status,
		Nodes:             e.Nodes,
		Artifacts:         e.Artifacts,
		PendingApprovalID: e.PendingApprovalID,
		MessageUsage:      e.MessageUsage,
		AgentMode:         e.AgentMode,
		Usage:             e.Usage,
	}
	if g.Artifacts == nil {
		g.Artifacts = map[string]*graph.Artifact{}
	}
	if g.MessageUsage == nil {
		g.MessageUsage = map[string]graph.Usage{}
	}
	return g, e.SavedAt, true
}

// Evict removes the cache entry for the session, if any
func (s *Store) Evict(sessionID string) {
	if err := os.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).Warn("cache evict failed", "session_id", sessionID)
	}
}

// path derives the cache file path for a session. Session ids are hashed so
// arbitrary ids cannot escape the cache directory.
func (s *Store) path(sessionID string) string {
	sum := blake3.Sum256([]byte(sessionID))
	return filepath.Join(s.dir, fmt.Sprintf("sess-%s.json", hex.EncodeToString(sum[:8])))
}

// checksum hashes the canonical JSON of an entry (with Checksum cleared)
func checksum(e *entry) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
