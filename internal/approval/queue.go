package approval

import (
	"sync"
)

// Queue holds the independent workflows awaiting review. Multiple
// pending batches may coexist; bulk operations apply the single-batch
// transition to each and report per-batch results.
type Queue struct {
	mu    sync.Mutex
	items []*Workflow
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add registers a workflow.
func (q *Queue) Add(w *Workflow) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, w)
}

// Get returns the workflow with the given id, or nil.
func (q *Queue) Get(id string) *Workflow {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, w := range q.items {
		if w.ID() == id {
			return w
		}
	}
	return nil
}

// Pending returns workflows that have not reached a terminal state, in
// submission order.
func (q *Queue) Pending() []*Workflow {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []*Workflow
	for _, w := range q.items {
		if !w.State().Terminal() {
			pending = append(pending, w)
		}
	}
	return pending
}

// All returns every workflow in submission order.
func (q *Queue) All() []*Workflow {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Workflow(nil), q.items...)
}

// BulkResult reports the outcome of a bulk transition for one batch.
type BulkResult struct {
	ID      string
	Summary string
	Err     error
}

// ApproveAll approves every proposed batch, reporting a result per
// batch rather than a single pass/fail.
func (q *Queue) ApproveAll() []BulkResult {
	return q.bulk(func(w *Workflow) error { return w.Approve() }, StateProposed)
}

// RejectAll rejects every proposed batch, reporting a result per batch.
func (q *Queue) RejectAll() []BulkResult {
	return q.bulk(func(w *Workflow) error { return w.Reject() }, StateProposed)
}

func (q *Queue) bulk(transition func(*Workflow) error, from State) []BulkResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	var results []BulkResult
	for _, w := range q.items {
		if w.State() != from {
			continue
		}
		results = append(results, BulkResult{
			ID:      w.ID(),
			Summary: w.Batch().Summary,
			Err:     transition(w),
		})
	}
	return results
}
