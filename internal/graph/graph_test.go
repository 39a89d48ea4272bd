package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapTaskStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   Status
		mapped bool
	}{
		{"queued", StatusPlanning, true},
		{"planning", StatusPlanning, true},
		{"ready", StatusPlanning, true},
		{"running", StatusRunning, true},
		{"awaiting_confirmation", StatusAwaitingApproval, true},
		{"completed", StatusCompleted, true},
		{"failed", StatusFailed, true},
		{"cancelled", StatusFailed, true},
		{"exploded", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := MapTaskStatus(tt.raw)
			assert.Equal(t, tt.mapped, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, DeriveRiskLevel([]string{"delete"}))
	assert.Equal(t, RiskHigh, DeriveRiskLevel([]string{"network", "overwrite"}))
	assert.Equal(t, RiskMedium, DeriveRiskLevel([]string{"network"}))
	assert.Equal(t, RiskLow, DeriveRiskLevel(nil))
	assert.Equal(t, RiskLow, DeriveRiskLevel([]string{}))
}

func TestUpsertTaskStatus(t *testing.T) {
	g := New("sess-1")
	now := time.Now()

	g.UpsertTaskStatus("ev-1", &TaskStatusNode{TaskID: "t1", Title: "first", Status: StatusPlanning}, now)
	g.UpsertTaskStatus("ev-2", &TaskStatusNode{TaskID: "t1", Title: "second", Status: StatusRunning}, now)
	g.UpsertTaskStatus("ev-3", &TaskStatusNode{TaskID: "t2", Title: "other", Status: StatusPlanning}, now)

	require.Len(t, g.Nodes, 2)

	n := g.TaskStatusNode("t1")
	require.NotNil(t, n)
	assert.Equal(t, "task-t1", n.ID)
	assert.Equal(t, "ev-2", n.EventID)
	assert.Equal(t, "second", n.TaskStatus.Title)
	assert.Equal(t, StatusRunning, n.TaskStatus.Status)

	// Upsert keeps insertion position: t1 stays first.
	assert.Equal(t, "task-t1", g.Nodes[0].ID)
	assert.Equal(t, "task-t2", g.Nodes[1].ID)
}

func TestMergeArtifactLastWriteWins(t *testing.T) {
	g := New("sess-1")

	newer := &Artifact{
		ID:        "plan",
		Kind:      ArtifactPlan,
		UpdatedAt: time.UnixMilli(100),
		Plan:      &PlanPayload{Steps: []PlanStep{{ID: "s1", Title: "newer"}}},
	}
	older := &Artifact{
		ID:        "plan",
		Kind:      ArtifactPlan,
		UpdatedAt: time.UnixMilli(50),
		Plan:      &PlanPayload{Steps: []PlanStep{{ID: "s1", Title: "older"}}},
	}

	// Arrival order reversed relative to logical time.
	require.True(t, g.MergeArtifact(newer))
	require.False(t, g.MergeArtifact(older))

	stored := g.Artifacts["plan"]
	require.NotNil(t, stored)
	assert.Equal(t, "newer", stored.Plan.Steps[0].Title)
	assert.Equal(t, time.UnixMilli(100), stored.UpdatedAt)
}

func TestMergeArtifactEqualTimestampDropped(t *testing.T) {
	g := New("sess-1")
	at := time.UnixMilli(100)

	require.True(t, g.MergeArtifact(&Artifact{ID: "doc", Kind: ArtifactMarkdown, UpdatedAt: at,
		Markdown: &MarkdownPayload{Content: "first"}}))
	require.False(t, g.MergeArtifact(&Artifact{ID: "doc", Kind: ArtifactMarkdown, UpdatedAt: at,
		Markdown: &MarkdownPayload{Content: "second"}}))

	assert.Equal(t, "first", g.Artifacts["doc"].Markdown.Content)
}

func TestMergeArtifactPreservesBookkeeping(t *testing.T) {
	g := New("sess-1")
	applied := time.UnixMilli(90)

	require.True(t, g.MergeArtifact(&Artifact{
		ID:        "diff",
		Kind:      ArtifactDiff,
		TaskID:    "t1",
		Version:   3,
		Status:    ArtifactApplied,
		AppliedAt: &applied,
		UpdatedAt: time.UnixMilli(100),
		Diff:      &DiffPayload{},
	}))

	// An event-derived update carries no bookkeeping fields.
	require.True(t, g.MergeArtifact(&Artifact{
		ID:        "diff",
		Kind:      ArtifactDiff,
		UpdatedAt: time.UnixMilli(200),
		Diff:      &DiffPayload{Files: []FileDiff{{Path: "main.go"}}},
	}))

	stored := g.Artifacts["diff"]
	assert.Equal(t, ArtifactApplied, stored.Status)
	assert.Equal(t, 3, stored.Version)
	assert.Equal(t, "t1", stored.TaskID)
	require.NotNil(t, stored.AppliedAt)
	assert.Equal(t, applied, *stored.AppliedAt)
	assert.Len(t, stored.Diff.Files, 1)
}

func TestMergeArtifactConvergesUnderReordering(t *testing.T) {
	updates := []*Artifact{
		{ID: "a", Kind: ArtifactMarkdown, UpdatedAt: time.UnixMilli(30), Markdown: &MarkdownPayload{Content: "v3"}},
		{ID: "a", Kind: ArtifactMarkdown, UpdatedAt: time.UnixMilli(10), Markdown: &MarkdownPayload{Content: "v1"}},
		{ID: "a", Kind: ArtifactMarkdown, UpdatedAt: time.UnixMilli(20), Markdown: &MarkdownPayload{Content: "v2"}},
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {1, 0, 2}, {2, 0, 1}, {0, 2, 1}}
	for _, order := range orders {
		g := New("sess-1")
		for _, i := range order {
			g.MergeArtifact(updates[i])
		}
		assert.Equal(t, "v3", g.Artifacts["a"].Markdown.Content, "order %v", order)
	}
}

func TestSnapshotIsolatedFromLaterMutation(t *testing.T) {
	g := New("sess-1")
	g.Append(&Node{ID: "think-1", Kind: KindThinking, Thinking: &ThinkingNode{Text: "one"}})
	g.MergeArtifact(&Artifact{
		ID:        "notes",
		Kind:      ArtifactMarkdown,
		UpdatedAt: time.UnixMilli(100),
		Markdown:  &MarkdownPayload{Content: "v1"},
	})
	g.PendingApprovalID = "a1"

	snap := g.Snapshot()

	g.Append(&Node{ID: "think-2", Kind: KindThinking, Thinking: &ThinkingNode{Text: "two"}})
	g.Artifacts["notes"].Status = ArtifactApplied
	g.PendingApprovalID = ""
	g.PromoteStatus(StatusRunning)

	assert.Len(t, snap.Nodes, 1)
	assert.Equal(t, "a1", snap.PendingApprovalID)
	assert.Equal(t, StatusPlanning, snap.Status)
	assert.Equal(t, ArtifactPending, snap.Artifacts["notes"].Status)
}

func TestValid(t *testing.T) {
	assert.True(t, New("sess-1").Valid())
	assert.False(t, (&Graph{}).Valid())
	assert.False(t, (&Graph{SessionID: "s"}).Valid())

	var nilGraph *Graph
	assert.False(t, nilGraph.Valid())
}
