package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDate(day int) time.Time {
	return time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC)
}

func newTestBatch(t *testing.T, batchType BatchType, day int) *Batch {
	t.Helper()
	date := testDate(day)
	batch, err := NewBatch("BT-test-1", batchType, RecipeRef{RecipeName: "Vanilla Sponge"}, "vanilla sponge", &date)
	require.NoError(t, err)
	return batch
}

func tierMember(tierID string, servings int, dueDay int) BatchTier {
	return BatchTier{
		TierID:   tierID,
		OrderID:  "order-1",
		Servings: servings,
		DueDate:  testDate(dueDay),
	}
}

func TestNewBatch(t *testing.T) {
	t.Run("scheduled when date given", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		assert.Equal(t, BatchStatusScheduled, batch.Status)
		assert.Equal(t, testDate(10), *batch.ScheduledDate)
		assert.Equal(t, 1, batch.DurationDays)
		assert.True(t, batch.IsEmpty())
		require.Len(t, batch.GetDomainEvents(), 1)
		assert.Equal(t, "bakery.batch.created", batch.GetDomainEvents()[0].EventType())
	})

	t.Run("draft when no date", func(t *testing.T) {
		batch, err := NewBatch("BT-test-2", BatchTypePrep, RecipeRef{RecipeName: "Ganache"}, "ganache", nil)
		require.NoError(t, err)
		assert.Equal(t, BatchStatusDraft, batch.Status)
		assert.Nil(t, batch.ScheduledDate)
	})

	t.Run("date normalized to UTC midnight", func(t *testing.T) {
		late := time.Date(2026, 9, 10, 23, 30, 0, 0, time.UTC)
		batch, err := NewBatch("BT-test-3", BatchTypeBake, RecipeRef{RecipeName: "Red Velvet"}, "red velvet", &late)
		require.NoError(t, err)
		assert.Equal(t, testDate(10), *batch.ScheduledDate)
	})

	t.Run("rejects blank type", func(t *testing.T) {
		_, err := NewBatch("BT-test-4", " ", RecipeRef{RecipeName: "x"}, "x", nil)
		assert.ErrorIs(t, err, ErrInvalidBatchType)
	})
}

func TestBatchMembership(t *testing.T) {
	t.Run("add tier updates aggregates", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.AddTier(tierMember("tier-1", 20, 12)))
		require.NoError(t, batch.AddTier(tierMember("tier-2", 34, 11)))

		assert.Equal(t, 2, batch.Aggregates.TierCount)
		assert.Equal(t, 54, batch.Aggregates.TotalServings)
		// 2.0 + 3.4 = 5.4 rounds to 5.5
		assert.Equal(t, 5.5, batch.Aggregates.EstimatedLaborHours)
	})

	t.Run("duplicate tier rejected", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.AddTier(tierMember("tier-1", 20, 12)))
		assert.ErrorIs(t, batch.AddTier(tierMember("tier-1", 20, 12)), ErrTierAlreadyInBatch)
	})

	t.Run("remove unknown tier is a no-op", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.AddTier(tierMember("tier-1", 20, 12)))

		removed := batch.RemoveTiers([]string{"tier-1", "tier-missing"})
		assert.Equal(t, []string{"tier-1"}, removed)
		assert.True(t, batch.IsEmpty())
		assert.Zero(t, batch.Aggregates.EstimatedLaborHours)
	})

	t.Run("stock task contributes mass only", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.AddStockTask(BatchStockTask{
			TaskID: "task-1", ItemName: "Brownies", Quantity: 24, MassG: 1800, DueDate: testDate(12),
		}))
		assert.Equal(t, 1, batch.Aggregates.StockTaskCount)
		assert.Equal(t, 1800.0, batch.Aggregates.TotalMassG)
		assert.Zero(t, batch.Aggregates.EstimatedLaborHours)
	})

	t.Run("completed batch rejects mutation", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.AddTier(tierMember("tier-1", 20, 12)))
		require.NoError(t, batch.Complete())
		assert.ErrorIs(t, batch.AddTier(tierMember("tier-2", 12, 12)), ErrBatchCompleted)
	})
}

func TestBatchMerge(t *testing.T) {
	t.Run("moves members and empties source", func(t *testing.T) {
		target := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, target.AddTier(tierMember("tier-1", 20, 12)))

		source := newTestBatch(t, BatchTypeBake, 11)
		require.NoError(t, source.AddTier(tierMember("tier-2", 34, 11)))
		require.NoError(t, source.AddStockTask(BatchStockTask{TaskID: "task-1", Quantity: 12, MassG: 600, DueDate: testDate(11)}))

		require.NoError(t, target.MergeFrom(source))

		assert.Equal(t, 3, target.MemberCount())
		assert.Equal(t, 54, target.Aggregates.TotalServings)
		assert.True(t, source.IsEmpty())
		assert.Zero(t, source.Aggregates.TierCount)
	})

	t.Run("shared members are not duplicated", func(t *testing.T) {
		target := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, target.AddTier(tierMember("tier-1", 20, 12)))

		source := newTestBatch(t, BatchTypeBake, 11)
		require.NoError(t, source.AddTier(tierMember("tier-1", 20, 12)))

		require.NoError(t, target.MergeFrom(source))
		assert.Equal(t, 1, target.MemberCount())
	})

	t.Run("type mismatch rejected", func(t *testing.T) {
		target := newTestBatch(t, BatchTypeBake, 10)
		source := newTestBatch(t, BatchTypePrep, 10)
		assert.ErrorIs(t, target.MergeFrom(source), ErrMergeTypeMismatch)
	})
}

func TestBatchReschedule(t *testing.T) {
	batch := newTestBatch(t, BatchTypeBake, 10)
	require.NoError(t, batch.Reschedule(testDate(14), 2))

	assert.Equal(t, testDate(14), *batch.ScheduledDate)
	assert.Equal(t, 2, batch.DurationDays)

	var found bool
	for _, e := range batch.GetDomainEvents() {
		if e.EventType() == "bakery.batch.rescheduled" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBatchStatusTransitions(t *testing.T) {
	t.Run("draft cannot start without a date", func(t *testing.T) {
		batch, err := NewBatch("BT-test-5", BatchTypeBake, RecipeRef{RecipeName: "x"}, "x", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, batch.StartProgress(), ErrBatchNotScheduled)
	})

	t.Run("scheduled to completed", func(t *testing.T) {
		batch := newTestBatch(t, BatchTypeBake, 10)
		require.NoError(t, batch.StartProgress())
		assert.Equal(t, BatchStatusInProgress, batch.Status)
		require.NoError(t, batch.Complete())
		assert.Equal(t, BatchStatusCompleted, batch.Status)
		require.NotNil(t, batch.CompletedAt)
		assert.ErrorIs(t, batch.Complete(), ErrBatchCompleted)
	})
}

func TestEarliestDueDate(t *testing.T) {
	batch := newTestBatch(t, BatchTypeBake, 10)
	assert.True(t, batch.EarliestDueDate().IsZero())

	require.NoError(t, batch.AddTier(tierMember("tier-1", 20, 14)))
	require.NoError(t, batch.AddStockTask(BatchStockTask{TaskID: "task-1", Quantity: 6, DueDate: testDate(12)}))
	assert.Equal(t, testDate(12), batch.EarliestDueDate())
}

func TestRecipeIdentity(t *testing.T) {
	resolver := ResolvedNameResolver{}

	t.Run("name normalization collapses case and whitespace", func(t *testing.T) {
		a := resolver.Key(RecipeRef{RecipeName: "Vanilla  Sponge"})
		b := resolver.Key(RecipeRef{RecipeName: "vanilla sponge "})
		assert.Equal(t, a, b)
	})

	t.Run("name without id resolves to the name", func(t *testing.T) {
		ref := RecipeRef{RecipeName: "Vanilla Sponge"}
		assert.Equal(t, "Vanilla Sponge", ref.Resolved())
		assert.Equal(t, "vanilla sponge", resolver.Key(ref))
	})

	t.Run("fallback used only when name absent", func(t *testing.T) {
		assert.Equal(t, "choc", RecipeRef{Fallback: "choc"}.Resolved())
	})

	t.Run("linked recipe name wins over fallback", func(t *testing.T) {
		key := resolver.Key(RecipeRef{RecipeID: "rec-1", RecipeName: "Chocolate Fudge", Fallback: "choc"})
		assert.Equal(t, "chocolate fudge", key)
	})

	t.Run("id resolver separates same-named recipes", func(t *testing.T) {
		idResolver := RecipeIDResolver{}
		a := idResolver.Key(RecipeRef{RecipeID: "rec-1", RecipeName: "Vanilla"})
		b := idResolver.Key(RecipeRef{RecipeID: "rec-2", RecipeName: "Vanilla"})
		assert.NotEqual(t, a, b)
	})
}
