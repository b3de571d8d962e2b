package likes

import (
	"context"

	"github.com/anonto42/nano-midea/threads/internal/metrics"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// Result describes one counter reconciliation
type Result struct {
	TargetID string            `json:"target_id"`
	Kind     models.TargetKind `json:"target_kind"`
	Before   int64             `json:"before"`
	After    int64             `json:"after"`
}

// Corrected reports whether the stored counter had drifted
func (r Result) Corrected() bool {
	return r.Before != r.After
}

// Reconcile rewrites the target's like_count to the number of its like
// edges. Where the store can, the count and the write are one step.
func (r *Reconciler) Reconcile(ctx context.Context, targetID string, kind models.TargetKind) (Result, error) {
	before, after, err := r.Store.RecountCounter(ctx, targetID, kind)
	if err != nil {
		return Result{}, err
	}

	res := Result{TargetID: targetID, Kind: kind, Before: before, After: after}
	if !res.Corrected() {
		return res, nil
	}

	metrics.CounterDriftCorrected.WithLabelValues(string(kind)).Add(float64(abs(after - before)))
	r.Logger.Info("like counter repaired", "target_id", targetID, "kind", kind, "before", before, "after", after)
	return res, nil
}

// ReconcilePost reconciles a post and every one of its replies
func (r *Reconciler) ReconcilePost(ctx context.Context, postID string) ([]Result, error) {
	replies, err := r.Store.ListRepliesByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(replies)+1)
	res, err := r.Reconcile(ctx, postID, models.TargetPost)
	if err != nil {
		return nil, err
	}
	results = append(results, res)

	for _, reply := range replies {
		res, err := r.Reconcile(ctx, reply.ID, models.TargetReply)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
