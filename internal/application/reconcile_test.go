package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-platform/batching-service/internal/domain"
)

func reconBatch(t *testing.T, batchID string, day int, createdAt time.Time) *domain.Batch {
	t.Helper()
	date := dueDate(day)
	b, err := domain.NewBatch(batchID, domain.BatchTypeBake, domain.RecipeRef{RecipeName: "Vanilla"}, "vanilla", &date)
	require.NoError(t, err)
	require.NoError(t, b.AddTier(domain.BatchTier{TierID: "tier-" + batchID, Servings: 20, DueDate: dueDate(day + 2)}))
	b.CreatedAt = createdAt
	return b
}

func TestPlanMerges(t *testing.T) {
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	t.Run("no collisions means no actions", func(t *testing.T) {
		actions := PlanMerges([]*domain.Batch{
			reconBatch(t, "a", 10, base),
			reconBatch(t, "b", 11, base),
		})
		assert.Empty(t, actions)
	})

	t.Run("oldest batch in a slot is the merge target", func(t *testing.T) {
		older := reconBatch(t, "older", 10, base)
		newer := reconBatch(t, "newer", 10, base.Add(time.Hour))
		newest := reconBatch(t, "newest", 10, base.Add(2*time.Hour))

		actions := PlanMerges([]*domain.Batch{newest, older, newer})
		require.Len(t, actions, 2)
		assert.Equal(t, "older", actions[0].TargetBatchID)
		assert.Equal(t, "newer", actions[0].SourceBatchID)
		assert.Equal(t, "older", actions[1].TargetBatchID)
		assert.Equal(t, "newest", actions[1].SourceBatchID)
	})

	t.Run("empty and unscheduled batches occupy no slot", func(t *testing.T) {
		occupied := reconBatch(t, "a", 10, base)

		empty := reconBatch(t, "b", 10, base)
		empty.RemoveTiers([]string{"tier-b"})

		unscheduled, err := domain.NewBatch("c", domain.BatchTypeBake, domain.RecipeRef{RecipeName: "Vanilla"}, "vanilla", nil)
		require.NoError(t, err)

		actions := PlanMerges([]*domain.Batch{occupied, empty, unscheduled})
		assert.Empty(t, actions)
	})

	t.Run("deterministic regardless of input order", func(t *testing.T) {
		a := reconBatch(t, "a", 10, base)
		b := reconBatch(t, "b", 10, base.Add(time.Hour))
		c := reconBatch(t, "c", 12, base)
		d := reconBatch(t, "d", 12, base.Add(time.Minute))

		first := PlanMerges([]*domain.Batch{a, b, c, d})
		second := PlanMerges([]*domain.Batch{d, c, b, a})
		assert.Equal(t, first, second)
	})
}
