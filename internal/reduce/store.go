package reduce

import (
	"github.com/felixgeelhaar/tasksync/internal/graph"
)

// taskMeta caches the last known descriptive fields for a task so that
// updates omitting them fall back to previously seen values.
type taskMeta struct {
	title    string
	prompt   string
	model    string
	provider string
	metadata map[string]any
}

// Store is the session-scoped reducer state that lives outside the graph:
// the set of already-applied event ids and the per-task metadata fallback
// cache. One Store per session; never shared across sessions.
type Store struct {
	seen  map[string]struct{}
	tasks map[string]taskMeta
}

// NewStore creates an empty reducer store
func NewStore() *Store {
	return &Store{
		seen:  make(map[string]struct{}),
		tasks: make(map[string]taskMeta),
	}
}

// Seen reports whether the event id has already been applied
func (s *Store) Seen(eventID string) bool {
	_, ok := s.seen[eventID]
	return ok
}

// MarkSeen records an event id as applied
func (s *Store) MarkSeen(eventID string) {
	s.seen[eventID] = struct{}{}
}

// SeedFromNodes repopulates the seen set from cached nodes so replayed
// historical events are not re-appended after a restore. Both the node's
// stable id and its originating event id are recorded.
func (s *Store) SeedFromNodes(nodes []*graph.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.EventID != "" {
			s.seen[n.EventID] = struct{}{}
		}
		s.seen[n.ID] = struct{}{}

		if n.Kind == graph.KindTaskStatus && n.TaskStatus != nil {
			s.RememberTask(n.TaskStatus)
		}
	}
}

// RememberTask caches non-empty descriptive fields for later fallback
func (s *Store) RememberTask(ts *graph.TaskStatusNode) {
	meta := s.tasks[ts.TaskID]
	if ts.Title != "" {
		meta.title = ts.Title
	}
	if ts.Prompt != "" {
		meta.prompt = ts.Prompt
	}
	if ts.Model != "" {
		meta.model = ts.Model
	}
	if ts.Provider != "" {
		meta.provider = ts.Provider
	}
	if len(ts.Metadata) > 0 {
		meta.metadata = ts.Metadata
	}
	s.tasks[ts.TaskID] = meta
}

// FillTask applies last-known values to fields the update left empty
func (s *Store) FillTask(ts *graph.TaskStatusNode) {
	meta, ok := s.tasks[ts.TaskID]
	if !ok {
		return
	}
	if ts.Title == "" {
		ts.Title = meta.title
	}
	if ts.Prompt == "" {
		ts.Prompt = meta.prompt
	}
	if ts.Model == "" {
		ts.Model = meta.model
	}
	if ts.Provider == "" {
		ts.Provider = meta.provider
	}
	if len(ts.Metadata) == 0 {
		ts.Metadata = meta.metadata
	}
}
