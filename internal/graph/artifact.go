package graph

import (
	"time"
)

// ArtifactKind identifies the typed payload of an artifact
type ArtifactKind string

const (
	ArtifactPlan     ArtifactKind = "plan"
	ArtifactDiff     ArtifactKind = "diff"
	ArtifactMarkdown ArtifactKind = "markdown"
)

// ArtifactStatus tracks whether a generated artifact has been applied
type ArtifactStatus string

const (
	ArtifactPending  ArtifactStatus = "pending"
	ArtifactApplied  ArtifactStatus = "applied"
	ArtifactReverted ArtifactStatus = "reverted"
)

// PlanPayload is the plan-kind artifact body
type PlanPayload struct {
	Steps []PlanStep `json:"steps"`
}

// DiffPayload is the diff-kind artifact body
type DiffPayload struct {
	Files []FileDiff `json:"files"`
}

// FileDiff is one file's change inside a diff artifact
type FileDiff struct {
	Path    string `json:"path"`
	Patch   string `json:"patch"`
	Added   int    `json:"added,omitempty"`
	Removed int    `json:"removed,omitempty"`
}

// MarkdownPayload is the markdown-kind artifact body
type MarkdownPayload struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Artifact is a versioned generated output associated with a task.
// Exactly one payload pointer matches Kind.
type Artifact struct {
	ID        string         `json:"id"`
	Kind      ArtifactKind   `json:"kind"`
	TaskID    string         `json:"taskId,omitempty"`
	Version   int            `json:"version,omitempty"`
	Status    ArtifactStatus `json:"status,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
	AppliedAt *time.Time     `json:"appliedAt,omitempty"`

	Plan     *PlanPayload     `json:"plan,omitempty"`
	Diff     *DiffPayload     `json:"diff,omitempty"`
	Markdown *MarkdownPayload `json:"markdown,omitempty"`
}

// Clone returns a deep-enough copy for the merge bookkeeping paths
// (payload pointers are shared; payloads are treated as immutable).
func (a *Artifact) Clone() *Artifact {
	cp := *a
	if a.AppliedAt != nil {
		at := *a.AppliedAt
		cp.AppliedAt = &at
	}
	return &cp
}
