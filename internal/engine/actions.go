package engine

import (
	"context"

	"github.com/felixgeelhaar/tasksync/internal/client"
	syncerrors "github.com/felixgeelhaar/tasksync/internal/errors"
	"github.com/felixgeelhaar/tasksync/internal/graph"
)

// Actions are optimistic-then-reconciling: the local graph is patched
// immediately, the remote call follows, and a failure triggers a full
// Refresh instead of a local rollback.

// ApproveApproval approves a pending operation
func (e *Engine) ApproveApproval(ctx context.Context, approvalID string) error {
	e.mutate(func(g *graph.Graph) {
		if g.PendingApprovalID == approvalID {
			g.PendingApprovalID = ""
			if g.Status == graph.StatusAwaitingApproval {
				g.PromoteStatus(graph.StatusRunning)
			}
		}
	})

	if err := e.api.ResolveApproval(ctx, approvalID, client.ApprovalApproved); err != nil {
		e.reconcileAfterFailure(ctx)
		return syncerrors.Wrap(syncerrors.ErrCodeActionApproval, "approve failed", err)
	}
	return nil
}

// RejectApproval rejects a pending operation
func (e *Engine) RejectApproval(ctx context.Context, approvalID string) error {
	e.mutate(func(g *graph.Graph) {
		if g.PendingApprovalID == approvalID {
			g.PendingApprovalID = ""
		}
	})

	if err := e.api.ResolveApproval(ctx, approvalID, client.ApprovalRejected); err != nil {
		e.reconcileAfterFailure(ctx)
		return syncerrors.Wrap(syncerrors.ErrCodeActionApproval, "reject failed", err)
	}
	return nil
}

// ApplyArtifact applies a generated artifact and folds the authoritative
// post-apply bookkeeping back into the graph.
func (e *Engine) ApplyArtifact(ctx context.Context, artifactID string) error {
	applied, err := e.api.ApplyArtifact(ctx, artifactID)
	if err != nil {
		e.reconcileAfterFailure(ctx)
		return syncerrors.Wrap(syncerrors.ErrCodeActionArtifact, "apply failed", err)
	}

	e.adoptArtifactState(applied)
	return nil
}

// RevertArtifact reverts a previously applied artifact
func (e *Engine) RevertArtifact(ctx context.Context, artifactID string) error {
	reverted, err := e.api.RevertArtifact(ctx, artifactID)
	if err != nil {
		e.reconcileAfterFailure(ctx)
		return syncerrors.Wrap(syncerrors.ErrCodeActionArtifact, "revert failed", err)
	}

	e.adoptArtifactState(reverted)
	return nil
}

// adoptArtifactState overwrites the local artifact's bookkeeping from the
// server's authoritative record.
func (e *Engine) adoptArtifactState(a *client.Artifact) {
	e.mutate(func(g *graph.Graph) {
		local, ok := g.Artifacts[a.ID]
		if !ok {
			if converted := a.ToGraph(); converted != nil {
				g.Artifacts[a.ID] = converted
			}
			return
		}
		local.Status = graph.ArtifactStatus(a.Status)
		local.Version = a.Version
		local.AppliedAt = a.AppliedAt
		if a.UpdatedAt.After(local.UpdatedAt) {
			local.UpdatedAt = a.UpdatedAt
		}
	})
}

// mutate applies an optimistic graph patch under the lock, persisting and
// notifying like any other change.
func (e *Engine) mutate(fn func(*graph.Graph)) {
	e.mu.Lock()
	fn(e.graph)
	e.persistLocked()
	var notify func(*graph.Graph)
	var snap *graph.Graph
	if e.onChange != nil {
		notify, snap = e.onChange, e.graph.Snapshot()
	}
	e.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// reconcileAfterFailure re-derives ground truth after a failed action
func (e *Engine) reconcileAfterFailure(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil {
		e.logger.WithError(err).Warn("post-action refresh failed")
	}
}
