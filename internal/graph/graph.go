// Package graph holds the reconstructed in-memory state of one agent task
// session: an ordered node history, versioned artifacts, and derived status.
// A Graph is owned by exactly one sync engine and mutated only through the
// event reducer and the snapshot reconciler.
package graph

import (
	"time"
)

// Usage is a token/cost usage snapshot
type Usage struct {
	InputTokens  int     `json:"inputTokens,omitempty"`
	OutputTokens int     `json:"outputTokens,omitempty"`
	TotalTokens  int     `json:"totalTokens,omitempty"`
	CostUSD      float64 `json:"costUsd,omitempty"`
}

// Graph is the reconstructed state of one session
type Graph struct {
	SessionID         string               `json:"sessionId"`
	Status            Status               `json:"status"`
	Nodes             []*Node              `json:"nodes"`
	Artifacts         map[string]*Artifact `json:"artifacts"`
	PendingApprovalID string               `json:"pendingApprovalId,omitempty"`
	MessageUsage      map[string]Usage     `json:"messageUsage,omitempty"`
	AgentMode         AgentMode            `json:"agentMode,omitempty"`
	Usage             *Usage               `json:"usage,omitempty"`
}

// New creates an empty graph for the given session
func New(sessionID string) *Graph {
	return &Graph{
		SessionID:    sessionID,
		Status:       StatusPlanning,
		Nodes:        []*Node{},
		Artifacts:    map[string]*Artifact{},
		MessageUsage: map[string]Usage{},
	}
}

// Append adds a node to the end of the history. Insertion order is display
// order; callers are responsible for id uniqueness (the reducer's dedup set
// guarantees it for event-derived nodes).
func (g *Graph) Append(n *Node) {
	g.Nodes = append(g.Nodes, n)
}

// FindNode returns the node with the given id, or nil
func (g *Graph) FindNode(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// TaskStatusNode returns the task_status node for the given task id, or nil
func (g *Graph) TaskStatusNode(taskID string) *Node {
	return g.FindNode(PrefixTask + taskID)
}

// UpsertTaskStatus replaces the task_status node for ts.TaskID in place, or
// appends one if the task has not been seen. Exactly one task_status node
// exists per task id.
func (g *Graph) UpsertTaskStatus(eventID string, ts *TaskStatusNode, now time.Time) {
	id := PrefixTask + ts.TaskID
	for i, n := range g.Nodes {
		if n.ID == id {
			g.Nodes[i] = &Node{
				ID:         id,
				EventID:    eventID,
				Kind:       KindTaskStatus,
				Timestamp:  now,
				TaskStatus: ts,
			}
			return
		}
	}
	g.Append(&Node{
		ID:         id,
		EventID:    eventID,
		Kind:       KindTaskStatus,
		Timestamp:  now,
		TaskStatus: ts,
	})
}

// MergeArtifact applies an incoming artifact update under last-write-wins by
// UpdatedAt: the update is dropped unless its UpdatedAt is strictly greater
// than the stored one. Bookkeeping fields the update does not carry
// (Status, AppliedAt, Version) are preserved from the stored record.
// Returns whether the artifact was stored.
func (g *Graph) MergeArtifact(incoming *Artifact) bool {
	if incoming == nil || incoming.ID == "" {
		return false
	}
	if g.Artifacts == nil {
		g.Artifacts = map[string]*Artifact{}
	}

	existing, ok := g.Artifacts[incoming.ID]
	if ok && !incoming.UpdatedAt.After(existing.UpdatedAt) {
		// Stale by logical time, regardless of arrival order.
		return false
	}

	stored := incoming.Clone()
	if existing != nil {
		if stored.Status == "" {
			stored.Status = existing.Status
		}
		if stored.AppliedAt == nil {
			stored.AppliedAt = existing.AppliedAt
		}
		if stored.Version == 0 {
			stored.Version = existing.Version
		}
		if stored.TaskID == "" {
			stored.TaskID = existing.TaskID
		}
	}
	if stored.Status == "" {
		stored.Status = ArtifactPending
	}
	g.Artifacts[incoming.ID] = stored
	return true
}

// Snapshot returns a copy of the graph that is safe to read without the
// owning engine's lock. Node pointers are shared: nodes are replaced, never
// mutated, after insertion. Artifacts are cloned because action results
// rewrite their bookkeeping in place.
func (g *Graph) Snapshot() *Graph {
	s := &Graph{
		SessionID:         g.SessionID,
		Status:            g.Status,
		Nodes:             append([]*Node{}, g.Nodes...),
		Artifacts:         make(map[string]*Artifact, len(g.Artifacts)),
		PendingApprovalID: g.PendingApprovalID,
		AgentMode:         g.AgentMode,
	}
	for id, a := range g.Artifacts {
		s.Artifacts[id] = a.Clone()
	}
	if len(g.MessageUsage) > 0 {
		s.MessageUsage = make(map[string]Usage, len(g.MessageUsage))
		for id, u := range g.MessageUsage {
			s.MessageUsage[id] = u
		}
	}
	if g.Usage != nil {
		u := *g.Usage
		s.Usage = &u
	}
	return s
}

// PromoteStatus sets the graph's overall status
func (g *Graph) PromoteStatus(s Status) {
	g.Status = s
}

// Valid reports whether the graph is structurally sound enough to restore
// from cache: it has a session identity and a node sequence.
func (g *Graph) Valid() bool {
	return g != nil && g.SessionID != "" && g.Nodes != nil
}
