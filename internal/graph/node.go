package graph

import (
	"time"
)

// NodeKind identifies the variant of a Node
type NodeKind string

const (
	KindThinking   NodeKind = "thinking"
	KindToolCall   NodeKind = "tool_call"
	KindToolOutput NodeKind = "tool_output"
	KindPlanUpdate NodeKind = "plan_update"
	KindTaskStatus NodeKind = "task_status"
)

// Node id prefixes, one per kind. The prefixed id is the stable display
// identity; the originating event id is carried separately in EventID.
const (
	PrefixTask  = "task-"
	PrefixThink = "think-"
	PrefixCall  = "call-"
	PrefixOut   = "out-"
	PrefixPlan  = "plan-"
)

// Node is one unit of session history. It is a tagged union: Kind names the
// variant and exactly one of the variant pointers is non-nil. All kinds
// except task_status are append-once and never mutated; task_status nodes
// are upserted, one per task id.
type Node struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId,omitempty"`
	Kind      NodeKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Thinking   *ThinkingNode   `json:"thinking,omitempty"`
	ToolCall   *ToolCallNode   `json:"toolCall,omitempty"`
	ToolOutput *ToolOutputNode `json:"toolOutput,omitempty"`
	PlanUpdate *PlanUpdateNode `json:"planUpdate,omitempty"`
	TaskStatus *TaskStatusNode `json:"taskStatus,omitempty"`
}

// ThinkingNode is a free-text reasoning fragment
type ThinkingNode struct {
	Text string `json:"text"`
}

// ToolCallNode describes an invoked (or approval-gated) tool call
type ToolCallNode struct {
	CallID           string         `json:"callId,omitempty"`
	Tool             string         `json:"tool"`
	Args             map[string]any `json:"args,omitempty"`
	Risk             RiskLevel      `json:"risk"`
	RequiresApproval bool           `json:"requiresApproval,omitempty"`
	ApprovalID       string         `json:"approvalId,omitempty"`
	Activity         string         `json:"activity,omitempty"`
}

// ToolOutputNode carries the result of a tool call, correlated by CallID
type ToolOutputNode struct {
	CallID     string `json:"callId,omitempty"`
	Result     any    `json:"result,omitempty"`
	IsError    bool   `json:"isError,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	DurationMS int64  `json:"durationMs,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
}

// PlanStep is one step of a generated plan
type PlanStep struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

// PlanUpdateNode is a snapshot of the plan at a point in time
type PlanUpdateNode struct {
	Steps []PlanStep `json:"steps"`
}

// TaskStatusNode tracks the lifecycle of one task
type TaskStatusNode struct {
	TaskID    string         `json:"taskId"`
	Title     string         `json:"title,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	RawStatus string         `json:"rawStatus,omitempty"`
	Status    Status         `json:"status,omitempty"`
	Model     string         `json:"model,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
