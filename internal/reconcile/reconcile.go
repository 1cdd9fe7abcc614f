// Package reconcile turns a client-submitted batch of child-record
// edits into an explicit plan of creates, updates, and deletes. The
// planner is pure; the store applies a plan inside one transaction so
// a batch either fully commits or leaves the collection untouched.
package reconcile

import (
	"errors"
	"fmt"
)

// Record is a child record owned by a parent collection. An empty ID
// marks a new record.
type Record interface {
	RecordID() string
}

// Batch is one client-submitted set of edits for a collection.
// An entry in Updated with no id, or with an id not present in the
// existing collection, becomes a create; deletes must reference ids
// the parent actually owns.
type Batch[T Record] struct {
	Updated []T
	Deleted []string
}

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeDeleted Outcome = "deleted"
)

// ItemResult tags what the plan will do with each batch entry, so a
// client whose stale-id update was applied as a create can see that
// instead of it being silently masked.
type ItemResult struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
}

// Plan is the resolved set of operations for one batch.
type Plan[T Record] struct {
	Creates []T
	Updates []T
	Deletes []string
	Results []ItemResult
}

// Empty reports whether the plan performs no work.
func (p Plan[T]) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// OwnershipError rejects a delete that references a record outside the
// parent's collection — a cross-tenant deletion attempt, never a
// silent no-op.
type OwnershipError struct {
	ID string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("record %s does not belong to this wedding", e.ID)
}

// ErrContradictoryBatch rejects a batch naming the same id in both
// Updated and Deleted; the two instructions cannot both be honored.
var ErrContradictoryBatch = errors.New("batch updates and deletes the same record")

// BuildPlan classifies every batch entry against the existing
// collection. assignID mints ids for creates. The plan is rejected
// whole on the first ownership violation or contradiction; nothing is
// partially classified.
func BuildPlan[T Record](existing []T, batch Batch[T], assignID func(T) T) (Plan[T], error) {
	existingIDs := make(map[string]struct{}, len(existing))
	for _, record := range existing {
		existingIDs[record.RecordID()] = struct{}{}
	}

	deleted := make(map[string]struct{}, len(batch.Deleted))
	for _, id := range batch.Deleted {
		if _, ok := existingIDs[id]; !ok {
			return Plan[T]{}, &OwnershipError{ID: id}
		}
		deleted[id] = struct{}{}
	}

	var plan Plan[T]
	for _, entry := range batch.Updated {
		id := entry.RecordID()
		if id != "" {
			if _, contradicts := deleted[id]; contradicts {
				return Plan[T]{}, ErrContradictoryBatch
			}
		}
		if _, exists := existingIDs[id]; id != "" && exists {
			plan.Updates = append(plan.Updates, entry)
			plan.Results = append(plan.Results, ItemResult{ID: id, Outcome: OutcomeUpdated})
			continue
		}
		// Absent or stale id: treated as a create, surfaced in Results.
		created := assignID(entry)
		plan.Creates = append(plan.Creates, created)
		plan.Results = append(plan.Results, ItemResult{ID: created.RecordID(), Outcome: OutcomeCreated})
	}

	for _, id := range batch.Deleted {
		plan.Deletes = append(plan.Deletes, id)
		plan.Results = append(plan.Results, ItemResult{ID: id, Outcome: OutcomeDeleted})
	}

	return plan, nil
}
