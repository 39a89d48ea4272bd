package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
	"github.com/felixgeelhaar/tasksync/internal/graph"
)

func TestSessionFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/sess-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		if got := r.Header.Get("User-Agent"); got != "tasksync/dev" {
			t.Errorf("unexpected User-Agent: %q", got)
		}
		json.NewEncoder(w).Encode(Session{
			ID:        "sess-1",
			AgentMode: "build",
			UpdatedAt: time.UnixMilli(5000).UTC(),
		})
	}))
	defer server.Close()

	c := New(server.URL, nil, nil)
	sess, err := c.Session(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.ID != "sess-1" || sess.AgentMode != "build" {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestNonOKStatusBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, nil, nil)
	_, err := c.Tasks(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	syncErr, ok := err.(*syncerrors.SyncError)
	if !ok {
		t.Fatalf("expected SyncError, got %T", err)
	}
	if syncErr.Code != syncerrors.ErrCodeAPIStatus {
		t.Errorf("expected API-002, got %s", syncErr.Code)
	}
}

func TestResolveApproval(t *testing.T) {
	var gotMethod, gotPath, gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotStatus = body["status"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, nil, nil)
	if err := c.ResolveApproval(context.Background(), "a1", ApprovalApproved); err != nil {
		t.Fatalf("ResolveApproval() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if gotPath != "/approvals/a1" {
		t.Errorf("path = %s", gotPath)
	}
	if gotStatus != "approved" {
		t.Errorf("status = %s", gotStatus)
	}
}

func TestApplyArtifactReturnsAuthoritativeRecord(t *testing.T) {
	applied := time.UnixMilli(9000).UTC()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/artifacts/d1/apply" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Artifact{
			ID:        "d1",
			Kind:      "diff",
			Version:   4,
			Status:    "applied",
			UpdatedAt: applied,
			AppliedAt: &applied,
			Payload:   json.RawMessage(`{"files":[]}`),
		})
	}))
	defer server.Close()

	c := New(server.URL, nil, nil)
	a, err := c.ApplyArtifact(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ApplyArtifact() error = %v", err)
	}
	if a.Version != 4 || a.Status != "applied" || a.AppliedAt == nil {
		t.Errorf("unexpected artifact: %+v", a)
	}
}

func TestArtifactToGraph(t *testing.T) {
	tests := []struct {
		name    string
		in      Artifact
		wantNil bool
	}{
		{
			name: "markdown",
			in: Artifact{
				ID: "m1", Kind: "markdown", UpdatedAt: time.UnixMilli(100),
				Payload: json.RawMessage(`{"content":"# doc"}`),
			},
		},
		{
			name: "plan",
			in: Artifact{
				ID: "p1", Kind: "plan", UpdatedAt: time.UnixMilli(100),
				Payload: json.RawMessage(`{"steps":[{"id":"s1","title":"x"}]}`),
			},
		},
		{
			name:    "unknown kind",
			in:      Artifact{ID: "x", Kind: "sculpture", UpdatedAt: time.UnixMilli(100)},
			wantNil: true,
		},
		{
			name: "bad payload",
			in: Artifact{
				ID: "m2", Kind: "markdown", UpdatedAt: time.UnixMilli(100),
				Payload: json.RawMessage(`"not an object`),
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ToGraph()
			if (got == nil) != tt.wantNil {
				t.Errorf("ToGraph() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}

func TestTaskToTaskStatus(t *testing.T) {
	task := Task{ID: "t1", Title: "Build", Status: "running", Model: "m"}
	ts := task.ToTaskStatus()

	if ts.Status != graph.StatusRunning {
		t.Errorf("status = %s, want RUNNING", ts.Status)
	}
	if ts.RawStatus != "running" || ts.Title != "Build" {
		t.Errorf("unexpected conversion: %+v", ts)
	}

	// Unmapped status leaves the enum empty.
	ts = (&Task{ID: "t2", Status: "weird"}).ToTaskStatus()
	if ts.Status != "" {
		t.Errorf("expected empty status for unmapped raw value, got %s", ts.Status)
	}
}
