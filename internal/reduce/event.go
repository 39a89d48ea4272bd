package reduce

import (
	"encoding/json"
)

// Event types dispatched by the reducer. The table in reducer.go is the
// single source of truth for what mutates the graph; anything else is a
// no-op. system.heartbeat is reserved for transport liveness and never
// reaches the reducer.
const (
	TypeTaskCreated      = "task.created"
	TypeTaskUpdated      = "task.updated"
	TypeApprovalRequired = "approval.required"
	TypeApprovalResolved = "approval.resolved"
	TypeAgentThink       = "agent.think"
	TypeAgentToolCall    = "agent.tool.call"
	TypeAgentToolResult  = "agent.tool.result"
	TypeAgentPlan        = "agent.plan"
	TypeAgentArtifact    = "agent.artifact"
	TypeModeChanged      = "session.mode.changed"
	TypeSessionUsage     = "session.usage.updated"
	TypeTokenUsage       = "token.usage"
	TypeHeartbeat        = "system.heartbeat"
)

// Event is one discrete unit of the session event stream
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}
