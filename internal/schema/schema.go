// Package schema validates event payloads that carry structured artifacts.
// Validation failures drop the single payload; they never fail the stream.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/graph"
)

// planPayload is the wire shape of an agent.plan event payload
type planPayload struct {
	ArtifactID string `json:"artifactId,omitempty"`
	TaskID     string `json:"taskId,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
	Steps      []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status,omitempty"`
	} `json:"steps"`
}

// PlanUpdate is the validated result of parsing an agent.plan payload
type PlanUpdate struct {
	ArtifactID string
	TaskID     string
	UpdatedAt  time.Time
	Steps      []graph.PlanStep
}

// DefaultPlanArtifactID is used when the event does not name an artifact
const DefaultPlanArtifactID = "plan"

// ParsePlanUpdate validates an agent.plan payload against the plan-step
// schema. Every step must carry an id and a title; step ids must be unique.
func ParsePlanUpdate(raw json.RawMessage, now time.Time) (*PlanUpdate, error) {
	var p planPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan payload: %w", err)
	}

	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("plan must have at least one step")
	}

	seen := make(map[string]bool)
	steps := make([]graph.PlanStep, 0, len(p.Steps))
	for i, s := range p.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("step at index %d has no id", i)
		}
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("step %q has no title", s.ID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate step id %q at index %d", s.ID, i)
		}
		seen[s.ID] = true
		steps = append(steps, graph.PlanStep{ID: s.ID, Title: s.Title, Status: s.Status})
	}

	out := &PlanUpdate{
		ArtifactID: p.ArtifactID,
		TaskID:     p.TaskID,
		UpdatedAt:  now,
		Steps:      steps,
	}
	if out.ArtifactID == "" {
		out.ArtifactID = DefaultPlanArtifactID
	}
	if p.UpdatedAt > 0 {
		out.UpdatedAt = time.UnixMilli(p.UpdatedAt)
	}
	return out, nil
}

// artifactPayload is the wire shape of an agent.artifact event payload
type artifactPayload struct {
	ArtifactID string          `json:"artifactId"`
	Kind       string          `json:"kind"`
	TaskID     string          `json:"taskId,omitempty"`
	UpdatedAt  int64           `json:"updatedAt"`
	Payload    json.RawMessage `json:"payload"`
}

// ParseArtifact validates an agent.artifact payload against the artifact
// schema and returns a graph.Artifact carrying only what the event declares.
// Bookkeeping fields (status, version, appliedAt) are left zero so the merge
// preserves any stored values.
func ParseArtifact(raw json.RawMessage) (*graph.Artifact, error) {
	var p artifactPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal artifact payload: %w", err)
	}

	if strings.TrimSpace(p.ArtifactID) == "" {
		return nil, fmt.Errorf("artifact id is required")
	}
	if p.UpdatedAt <= 0 {
		return nil, fmt.Errorf("artifact %q has no updatedAt", p.ArtifactID)
	}

	a := &graph.Artifact{
		ID:        p.ArtifactID,
		TaskID:    p.TaskID,
		UpdatedAt: time.UnixMilli(p.UpdatedAt),
	}

	switch graph.ArtifactKind(p.Kind) {
	case graph.ArtifactPlan:
		var body graph.PlanPayload
		if err := json.Unmarshal(p.Payload, &body); err != nil {
			return nil, fmt.Errorf("unmarshal plan body: %w", err)
		}
		a.Kind = graph.ArtifactPlan
		a.Plan = &body
	case graph.ArtifactDiff:
		var body graph.DiffPayload
		if err := json.Unmarshal(p.Payload, &body); err != nil {
			return nil, fmt.Errorf("unmarshal diff body: %w", err)
		}
		a.Kind = graph.ArtifactDiff
		a.Diff = &body
	case graph.ArtifactMarkdown:
		var body graph.MarkdownPayload
		if err := json.Unmarshal(p.Payload, &body); err != nil {
			return nil, fmt.Errorf("unmarshal markdown body: %w", err)
		}
		if strings.TrimSpace(body.Content) == "" {
			return nil, fmt.Errorf("markdown artifact %q has no content", p.ArtifactID)
		}
		a.Kind = graph.ArtifactMarkdown
		a.Markdown = &body
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", p.Kind)
	}

	return a, nil
}
