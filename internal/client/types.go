package client

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/graph"
)

// Session is the server's session record
type Session struct {
	ID        string    `json:"id"`
	AgentMode string    `json:"agentMode,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a server-side task snapshot
type Task struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Prompt   string         `json:"prompt,omitempty"`
	Status   string         `json:"status,omitempty"`
	Model    string         `json:"model,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Approval is a server-side approval record. Referenced, never owned: the
// graph tracks at most the most recent pending approval id.
type Approval struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"sessionId,omitempty"`
	TaskID     string     `json:"taskId,omitempty"`
	Action     string     `json:"action,omitempty"`
	RiskTags   []string   `json:"riskTags,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Approval statuses on the wire
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Artifact is a server-side artifact snapshot
type Artifact struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	TaskID    string          `json:"taskId,omitempty"`
	Version   int             `json:"version,omitempty"`
	Status    string          `json:"status,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
	AppliedAt *time.Time      `json:"appliedAt,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ToGraph converts a wire artifact into the graph representation. Unknown
// kinds and unparsable payloads return nil; snapshot merging skips them.
func (a *Artifact) ToGraph() *graph.Artifact {
	out := &graph.Artifact{
		ID:        a.ID,
		TaskID:    a.TaskID,
		Version:   a.Version,
		Status:    graph.ArtifactStatus(a.Status),
		UpdatedAt: a.UpdatedAt,
		AppliedAt: a.AppliedAt,
	}

	switch graph.ArtifactKind(a.Kind) {
	case graph.ArtifactPlan:
		var body graph.PlanPayload
		if json.Unmarshal(a.Payload, &body) != nil {
			return nil
		}
		out.Kind = graph.ArtifactPlan
		out.Plan = &body
	case graph.ArtifactDiff:
		var body graph.DiffPayload
		if json.Unmarshal(a.Payload, &body) != nil {
			return nil
		}
		out.Kind = graph.ArtifactDiff
		out.Diff = &body
	case graph.ArtifactMarkdown:
		var body graph.MarkdownPayload
		if json.Unmarshal(a.Payload, &body) != nil {
			return nil
		}
		out.Kind = graph.ArtifactMarkdown
		out.Markdown = &body
	default:
		return nil
	}
	return out
}

// ToTaskStatus converts a task snapshot into a task_status node body
func (t *Task) ToTaskStatus() *graph.TaskStatusNode {
	ts := &graph.TaskStatusNode{
		TaskID:    t.ID,
		Title:     t.Title,
		Prompt:    t.Prompt,
		RawStatus: t.Status,
		Model:     t.Model,
		Provider:  t.Provider,
		Metadata:  t.Metadata,
	}
	if mapped, ok := graph.MapTaskStatus(t.Status); ok {
		ts.Status = mapped
	}
	return ts
}
