package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/client"
	"github.com/felixgeelhaar/tasksync/internal/graph"
	"github.com/felixgeelhaar/tasksync/internal/reduce"
)

// Refresh reconciles REST snapshots into the graph. Safe to call at any
// time; overlapping calls coalesce into one (the in-flight refresh wins),
// and the graph is read fresh under the lock at application time, so a
// slow fetch can never clobber newer push-derived state with a stale write.
func (e *Engine) Refresh(ctx context.Context) error {
	if !e.refreshing.CompareAndSwap(false, true) {
		return nil
	}
	defer e.refreshing.Store(false)

	var (
		sess      *client.Session
		tasks     []client.Task
		approvals []client.Approval
		artifacts []client.Artifact

		sessErr, tasksErr, apprErr, artErr error
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		sess, sessErr = e.api.Session(ctx, e.sessionID)
	}()
	go func() {
		defer wg.Done()
		tasks, tasksErr = e.api.Tasks(ctx, e.sessionID)
	}()
	go func() {
		defer wg.Done()
		approvals, apprErr = e.api.Approvals(ctx, e.sessionID)
	}()
	go func() {
		defer wg.Done()
		artifacts, artErr = e.api.Artifacts(ctx, e.sessionID)
	}()
	wg.Wait()

	if sessErr != nil {
		return sessErr
	}
	// Partial snapshot fetches degrade to merging what arrived; sections
	// whose fetch failed are left untouched rather than merged as empty.
	for _, err := range []error{tasksErr, apprErr, artErr} {
		if err != nil {
			e.logger.WithError(err).Warn("partial snapshot fetch")
		}
	}

	snap := snapshot{
		sess:        sess,
		tasks:       tasks,
		approvals:   approvals,
		artifacts:   artifacts,
		tasksOK:     tasksErr == nil,
		approvalsOK: apprErr == nil,
		artifactsOK: artErr == nil,
	}

	e.mu.Lock()

	if !e.restoredAt.IsZero() {
		if sess.UpdatedAt.After(e.restoredAt) {
			// The server moved past anything the restored cache entry
			// captured: rebuild from the snapshot rather than merging
			// into stale state.
			e.logger.Info("server state newer than restored cache, rebuilding graph",
				"server_updated_at", sess.UpdatedAt, "cache_saved_at", e.restoredAt)
			e.graph = graph.New(e.sessionID)
			e.reducer = reduce.New(reduce.NewStore(), e.logger)
			e.lastEventID = ""
		}
		// The staleness check applies only to the restored entry; state
		// built after the first reconciliation is never thrown away.
		e.restoredAt = time.Time{}
	}

	e.mergeSnapshotLocked(snap)
	e.persistLocked()
	var notify func(*graph.Graph)
	var view *graph.Graph
	if e.onChange != nil {
		notify, view = e.onChange, e.graph.Snapshot()
	}
	e.mu.Unlock()

	if notify != nil {
		notify(view)
	}
	return nil
}

// snapshot bundles one round of REST fetches with per-section success flags
type snapshot struct {
	sess      *client.Session
	tasks     []client.Task
	approvals []client.Approval
	artifacts []client.Artifact

	tasksOK     bool
	approvalsOK bool
	artifactsOK bool
}

// mergeSnapshotLocked folds snapshot records into the graph without ever
// removing push-derived history. Sections whose fetch failed are skipped.
// Callers must hold e.mu.
func (e *Engine) mergeSnapshotLocked(snap snapshot) {
	if snap.sess.AgentMode != "" {
		e.graph.AgentMode = graph.AgentMode(snap.sess.AgentMode)
	}
	if snap.tasksOK {
		e.mergeTasksLocked(snap.tasks)
	}
	if snap.approvalsOK {
		e.mergeApprovalsLocked(snap.approvals)
	}
	if snap.artifactsOK {
		e.mergeArtifactsLocked(snap.artifacts)
	}
}

// mergeTasksLocked upserts task snapshots exactly like event-driven task
// updates, including metadata fallback and status promotion.
func (e *Engine) mergeTasksLocked(tasks []client.Task) {
	now := time.Now()
	rstore := e.reducer.Store()
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		ts := t.ToTaskStatus()
		rstore.FillTask(ts)
		rstore.RememberTask(ts)
		if ts.Status != "" {
			e.graph.PromoteStatus(ts.Status)
		}
		e.graph.UpsertTaskStatus("", ts, now)
	}
}

// mergeApprovalsLocked tracks only the most recently created pending
// approval. An empty list is authoritative: it clears the pending state.
func (e *Engine) mergeApprovalsLocked(approvals []client.Approval) {
	var pending *client.Approval
	sort.Slice(approvals, func(i, j int) bool {
		return approvals[i].CreatedAt.Before(approvals[j].CreatedAt)
	})
	for i := range approvals {
		if approvals[i].Status == client.ApprovalPending {
			pending = &approvals[i]
		}
	}
	if pending == nil {
		e.graph.PendingApprovalID = ""
		if e.graph.Status == graph.StatusAwaitingApproval {
			e.graph.PromoteStatus(graph.StatusRunning)
		}
		return
	}

	e.graph.PendingApprovalID = pending.ID
	e.graph.PromoteStatus(graph.StatusAwaitingApproval)
	if e.graph.FindNode(graph.PrefixCall+pending.ID) == nil {
		e.graph.Append(&graph.Node{
			ID:        graph.PrefixCall + pending.ID,
			Kind:      graph.KindToolCall,
			Timestamp: pending.CreatedAt,
			ToolCall: &graph.ToolCallNode{
				Tool:             pending.Action,
				Risk:             graph.DeriveRiskLevel(pending.RiskTags),
				RequiresApproval: true,
				ApprovalID:       pending.ID,
			},
		})
	}
}

// mergeArtifactsLocked applies the same strictly-newer-UpdatedAt rule as
// artifact events
func (e *Engine) mergeArtifactsLocked(artifacts []client.Artifact) {
	for i := range artifacts {
		if a := artifacts[i].ToGraph(); a != nil {
			e.graph.MergeArtifact(a)
		} else {
			e.logger.Warn("snapshot artifact skipped", "artifact_id", artifacts[i].ID, "kind", artifacts[i].Kind)
		}
	}
}
