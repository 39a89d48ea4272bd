package graph

// Status represents the overall state of a session's task activity
type Status string

const (
	StatusPlanning         Status = "PLANNING"
	StatusRunning          Status = "RUNNING"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
)

// AgentMode mirrors the last known server-side session mode
type AgentMode string

const (
	ModePlan  AgentMode = "plan"
	ModeBuild AgentMode = "build"
)

// RiskLevel classifies how dangerous a pending tool call is
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MapTaskStatus maps a raw server-side task status string to the internal
// Status enum. The second return value is false for unrecognized strings,
// which callers must treat as "no status change".
func MapTaskStatus(raw string) (Status, bool) {
	switch raw {
	case "queued", "planning", "ready":
		return StatusPlanning, true
	case "running":
		return StatusRunning, true
	case "awaiting_confirmation":
		return StatusAwaitingApproval, true
	case "completed":
		return StatusCompleted, true
	case "failed", "cancelled":
		return StatusFailed, true
	default:
		return "", false
	}
}

// DeriveRiskLevel derives a risk level from an approval's risk tags.
// Tags that destroy data rank highest; any other tag set is medium.
func DeriveRiskLevel(tags []string) RiskLevel {
	for _, tag := range tags {
		if tag == "delete" || tag == "overwrite" {
			return RiskHigh
		}
	}
	if len(tags) > 0 {
		return RiskMedium
	}
	return RiskLow
}
