package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/graph"
)

func TestParsePlanUpdate(t *testing.T) {
	now := time.UnixMilli(1000)

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "valid plan",
			payload: `{"steps":[{"id":"s1","title":"scaffold"},{"id":"s2","title":"wire API"}]}`,
		},
		{
			name:    "no steps",
			payload: `{"steps":[]}`,
			wantErr: true,
		},
		{
			name:    "step missing title",
			payload: `{"steps":[{"id":"s1"}]}`,
			wantErr: true,
		},
		{
			name:    "duplicate step ids",
			payload: `{"steps":[{"id":"s1","title":"a"},{"id":"s1","title":"b"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `steps: nope`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlanUpdate(json.RawMessage(tt.payload), now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlanUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.ArtifactID != DefaultPlanArtifactID {
				t.Errorf("expected default artifact id, got %q", got.ArtifactID)
			}
			if !got.UpdatedAt.Equal(now) {
				t.Errorf("expected updatedAt fallback to now, got %v", got.UpdatedAt)
			}
		})
	}
}

func TestParsePlanUpdateExplicitFields(t *testing.T) {
	payload := `{"artifactId":"plan-t1","taskId":"t1","updatedAt":5000,
		"steps":[{"id":"s1","title":"scaffold","status":"done"}]}`

	got, err := ParsePlanUpdate(json.RawMessage(payload), time.UnixMilli(1))
	if err != nil {
		t.Fatalf("ParsePlanUpdate() error = %v", err)
	}
	if got.ArtifactID != "plan-t1" {
		t.Errorf("unexpected artifact id: %q", got.ArtifactID)
	}
	if got.TaskID != "t1" {
		t.Errorf("unexpected task id: %q", got.TaskID)
	}
	if !got.UpdatedAt.Equal(time.UnixMilli(5000)) {
		t.Errorf("unexpected updatedAt: %v", got.UpdatedAt)
	}
	if got.Steps[0].Status != "done" {
		t.Errorf("step status not carried through: %+v", got.Steps[0])
	}
}

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind graph.ArtifactKind
		wantErr  bool
	}{
		{
			name:     "markdown artifact",
			payload:  `{"artifactId":"readme","kind":"markdown","updatedAt":100,"payload":{"content":"# hi"}}`,
			wantKind: graph.ArtifactMarkdown,
		},
		{
			name:     "diff artifact",
			payload:  `{"artifactId":"d1","kind":"diff","taskId":"t1","updatedAt":100,"payload":{"files":[{"path":"main.go","patch":"@@"}]}}`,
			wantKind: graph.ArtifactDiff,
		},
		{
			name:     "plan artifact",
			payload:  `{"artifactId":"plan","kind":"plan","updatedAt":100,"payload":{"steps":[{"id":"s1","title":"x"}]}}`,
			wantKind: graph.ArtifactPlan,
		},
		{
			name:    "missing id",
			payload: `{"kind":"markdown","updatedAt":100,"payload":{"content":"x"}}`,
			wantErr: true,
		},
		{
			name:    "missing updatedAt",
			payload: `{"artifactId":"a","kind":"markdown","payload":{"content":"x"}}`,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			payload: `{"artifactId":"a","kind":"hologram","updatedAt":100,"payload":{}}`,
			wantErr: true,
		},
		{
			name:    "markdown without content",
			payload: `{"artifactId":"a","kind":"markdown","updatedAt":100,"payload":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArtifact(json.RawMessage(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseArtifact() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Status != "" || got.Version != 0 || got.AppliedAt != nil {
				t.Errorf("event-derived artifact must not carry bookkeeping: %+v", got)
			}
		})
	}
}
