// Package reduce turns stream events into graph mutations. Dispatch is a
// fixed table keyed by exact event type; duplicate event ids are dropped
// before dispatch and unknown types leave the graph untouched.
package reduce

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/graph"
	"github.com/felixgeelhaar/tasksync/internal/log"
	"github.com/felixgeelhaar/tasksync/internal/schema"
)

// handlerFunc mutates the graph for one event type and reports whether
// anything changed. Handlers never see duplicate event ids.
type handlerFunc func(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool

// handlers is the fixed dispatch table. Kept package-level so the set of
// recognized event types is visible in one place.
var handlers = map[string]handlerFunc{
	TypeTaskCreated:      handleTaskUpsert,
	TypeTaskUpdated:      handleTaskUpsert,
	TypeApprovalRequired: handleApprovalRequired,
	TypeApprovalResolved: handleApprovalResolved,
	TypeAgentThink:       handleThink,
	TypeAgentToolCall:    handleToolCall,
	TypeAgentToolResult:  handleToolResult,
	TypeAgentPlan:        handlePlan,
	TypeAgentArtifact:    handleArtifact,
	TypeModeChanged:      handleModeChanged,
	TypeSessionUsage:     handleSessionUsage,
	TypeTokenUsage:       handleTokenUsage,
}

// Reducer applies events to a session's graph. It owns the session-scoped
// Store; constructing one Reducer per session keeps concurrent sessions
// isolated.
type Reducer struct {
	store  *Store
	logger *log.Logger
}

// New creates a Reducer around the given store
func New(store *Store, logger *log.Logger) *Reducer {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Reducer{store: store, logger: logger}
}

// Store returns the reducer's session store
func (r *Reducer) Store() *Store {
	return r.store
}

// Apply dispatches one event against the graph and reports whether the
// graph changed. Duplicate event ids are dropped unconditionally before
// dispatch; unknown event types are no-ops.
func (r *Reducer) Apply(g *graph.Graph, ev Event, now time.Time) bool {
	if ev.ID != "" && r.store.Seen(ev.ID) {
		r.logger.Debug("duplicate event dropped", "event_id", ev.ID, "event_type", ev.Type)
		return false
	}

	handler, ok := handlers[ev.Type]
	if !ok {
		// Unknown types are forward-compatibility, not errors.
		r.logger.Debug("unknown event type ignored", "event_type", ev.Type)
		return false
	}

	changed := handler(r, g, ev, now)
	if ev.ID != "" {
		r.store.MarkSeen(ev.ID)
	}
	return changed
}

func handleTaskUpsert(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		TaskID   string         `json:"taskId"`
		Title    string         `json:"title,omitempty"`
		Prompt   string         `json:"prompt,omitempty"`
		Status   string         `json:"status,omitempty"`
		Model    string         `json:"model,omitempty"`
		Provider string         `json:"provider,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.TaskID == "" {
		r.logger.WithError(err).Warn("task event without task id dropped", "event_id", ev.ID)
		return false
	}

	ts := &graph.TaskStatusNode{
		TaskID:    p.TaskID,
		Title:     p.Title,
		Prompt:    p.Prompt,
		RawStatus: p.Status,
		Model:     p.Model,
		Provider:  p.Provider,
		Metadata:  p.Metadata,
	}
	if mapped, ok := graph.MapTaskStatus(p.Status); ok {
		ts.Status = mapped
		g.PromoteStatus(mapped)
	} else if prev := g.TaskStatusNode(p.TaskID); prev != nil && prev.TaskStatus != nil {
		// Unrecognized raw status keeps the previous mapped status.
		ts.Status = prev.TaskStatus.Status
	}

	r.store.FillTask(ts)
	r.store.RememberTask(ts)
	g.UpsertTaskStatus(ev.ID, ts, now)
	return true
}

func handleApprovalRequired(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		ApprovalID string   `json:"approvalId"`
		TaskID     string   `json:"taskId,omitempty"`
		Action     string   `json:"action,omitempty"`
		RiskTags   []string `json:"riskTags,omitempty"`
		Activity   string   `json:"activity,omitempty"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ApprovalID == "" {
		r.logger.WithError(err).Warn("approval event without id dropped", "event_id", ev.ID)
		return false
	}

	g.PromoteStatus(graph.StatusAwaitingApproval)
	g.PendingApprovalID = p.ApprovalID

	// Pending approvals surface as synthetic tool_call nodes so the history
	// shows what is being gated. A snapshot merge may have created the node
	// already, in which case the event carries nothing new.
	if g.FindNode(graph.PrefixCall+p.ApprovalID) == nil {
		g.Append(&graph.Node{
			ID:        graph.PrefixCall + p.ApprovalID,
			EventID:   ev.ID,
			Kind:      graph.KindToolCall,
			Timestamp: now,
			ToolCall: &graph.ToolCallNode{
				Tool:             p.Action,
				Risk:             graph.DeriveRiskLevel(p.RiskTags),
				RequiresApproval: true,
				ApprovalID:       p.ApprovalID,
				Activity:         p.Activity,
			},
		})
	}
	return true
}

func handleApprovalResolved(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		ApprovalID string `json:"approvalId"`
		Status     string `json:"status,omitempty"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.ApprovalID == "" {
		return false
	}

	if g.PendingApprovalID == p.ApprovalID {
		g.PendingApprovalID = ""
		if g.Status == graph.StatusAwaitingApproval {
			g.PromoteStatus(graph.StatusRunning)
		}
	}

	text := "Approval " + p.ApprovalID + " resolved"
	if p.Status != "" {
		text += ": " + p.Status
	}
	g.Append(&graph.Node{
		ID:        graph.PrefixThink + ev.ID,
		EventID:   ev.ID,
		Kind:      graph.KindThinking,
		Timestamp: now,
		Thinking:  &graph.ThinkingNode{Text: text},
	})
	return true
}

func handleThink(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.Text == "" {
		return false
	}

	g.Append(&graph.Node{
		ID:        graph.PrefixThink + ev.ID,
		EventID:   ev.ID,
		Kind:      graph.KindThinking,
		Timestamp: now,
		Thinking:  &graph.ThinkingNode{Text: p.Text},
	})
	return true
}

func handleToolCall(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		CallID           string         `json:"callId,omitempty"`
		Tool             string         `json:"tool"`
		Args             map[string]any `json:"args,omitempty"`
		RiskTags         []string       `json:"riskTags,omitempty"`
		RequiresApproval bool           `json:"requiresApproval,omitempty"`
		ApprovalID       string         `json:"approvalId,omitempty"`
		Activity         string         `json:"activity,omitempty"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.Tool == "" {
		r.logger.WithError(err).Warn("tool call event dropped", "event_id", ev.ID)
		return false
	}

	id := graph.PrefixCall + ev.ID
	if p.CallID != "" {
		id = graph.PrefixCall + p.CallID
	}
	g.Append(&graph.Node{
		ID:        id,
		EventID:   ev.ID,
		Kind:      graph.KindToolCall,
		Timestamp: now,
		ToolCall: &graph.ToolCallNode{
			CallID:           p.CallID,
			Tool:             p.Tool,
			Args:             p.Args,
			Risk:             graph.DeriveRiskLevel(p.RiskTags),
			RequiresApproval: p.RequiresApproval,
			ApprovalID:       p.ApprovalID,
			Activity:         p.Activity,
		},
	})
	return true
}

func handleToolResult(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		CallID     string `json:"callId,omitempty"`
		Result     any    `json:"result,omitempty"`
		IsError    bool   `json:"isError,omitempty"`
		ErrorCode  string `json:"errorCode,omitempty"`
		DurationMS int64  `json:"durationMs,omitempty"`
		Attempt    int    `json:"attempt,omitempty"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		r.logger.WithError(err).Warn("tool result event dropped", "event_id", ev.ID)
		return false
	}

	g.Append(&graph.Node{
		ID:        graph.PrefixOut + ev.ID,
		EventID:   ev.ID,
		Kind:      graph.KindToolOutput,
		Timestamp: now,
		ToolOutput: &graph.ToolOutputNode{
			CallID:     p.CallID,
			Result:     p.Result,
			IsError:    p.IsError,
			ErrorCode:  p.ErrorCode,
			DurationMS: p.DurationMS,
			Attempt:    p.Attempt,
		},
	})
	return true
}

func handlePlan(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	update, err := schema.ParsePlanUpdate(ev.Payload, now)
	if err != nil {
		r.logger.WithError(err).Warn("invalid plan payload dropped", "event_id", ev.ID)
		return false
	}

	g.Append(&graph.Node{
		ID:         graph.PrefixPlan + ev.ID,
		EventID:    ev.ID,
		Kind:       graph.KindPlanUpdate,
		Timestamp:  now,
		PlanUpdate: &graph.PlanUpdateNode{Steps: update.Steps},
	})

	g.MergeArtifact(&graph.Artifact{
		ID:        update.ArtifactID,
		Kind:      graph.ArtifactPlan,
		TaskID:    update.TaskID,
		UpdatedAt: update.UpdatedAt,
		Plan:      &graph.PlanPayload{Steps: update.Steps},
	})
	return true
}

func handleArtifact(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	a, err := schema.ParseArtifact(ev.Payload)
	if err != nil {
		r.logger.WithError(err).Warn("invalid artifact payload dropped", "event_id", ev.ID)
		return false
	}
	return g.MergeArtifact(a)
}

func handleModeChanged(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.Mode == "" {
		return false
	}
	g.AgentMode = graph.AgentMode(p.Mode)
	return true
}

func handleSessionUsage(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p graph.Usage
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return false
	}
	g.Usage = &p
	return true
}

func handleTokenUsage(r *Reducer, g *graph.Graph, ev Event, now time.Time) bool {
	var p struct {
		MessageID string `json:"messageId,omitempty"`
		TaskID    string `json:"taskId,omitempty"`
		graph.Usage
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return false
	}

	msgID := p.MessageID
	if msgID == "" && p.TaskID != "" {
		msgID = "task:" + p.TaskID
	}
	if msgID == "" {
		return false
	}

	if g.MessageUsage == nil {
		g.MessageUsage = map[string]graph.Usage{}
	}
	g.MessageUsage[msgID] = p.Usage
	return true
}
