package application

import (
	"sort"

	"github.com/bakery-platform/batching-service/internal/domain"
)

// MergeAction is one merge the reconciler recommends: move the members of
// Source into Target and delete Source.
type MergeAction struct {
	SourceBatchID string
	TargetBatchID string
	Key           domain.ScheduleKey
}

// PlanMerges inspects the given batches for violations of the one-batch-per
// (type, recipe, date) rule and returns the merges that restore it. Pure
// function: callers apply the actions through the batch service once per
// synchronization cycle and discard the plan. Empty and unscheduled batches
// occupy no slot and are ignored.
//
// The oldest batch in each colliding slot is kept as the target so that
// batch ids stay stable across reconciliation runs.
func PlanMerges(batches []*domain.Batch) []MergeAction {
	bySlot := make(map[string][]*domain.Batch)
	var slots []string

	for _, b := range batches {
		if b.IsEmpty() || b.ScheduledDate == nil {
			continue
		}
		slot := b.Key().String()
		if _, ok := bySlot[slot]; !ok {
			slots = append(slots, slot)
		}
		bySlot[slot] = append(bySlot[slot], b)
	}

	sort.Strings(slots)

	var actions []MergeAction
	for _, slot := range slots {
		group := bySlot[slot]
		if len(group) < 2 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].BatchID < group[j].BatchID
		})

		target := group[0]
		for _, source := range group[1:] {
			actions = append(actions, MergeAction{
				SourceBatchID: source.BatchID,
				TargetBatchID: target.BatchID,
				Key:           target.Key(),
			})
		}
	}

	return actions
}
