package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-platform/batching-service/internal/domain"
)

func newTestGroupingEngine(tiers []domain.Tier, tasks []domain.StockTask) *GroupingEngine {
	return NewGroupingEngine(
		&fakeTierProvider{tiers: tiers},
		&fakeStockTaskProvider{tasks: tasks},
		domain.ResolvedNameResolver{},
		domain.DefaultFrostingFactors(),
		testLogger(),
	)
}

func testWindow() PlanningWindow {
	return PlanningWindow{From: dueDate(1), To: dueDate(30)}
}

func TestBuildGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("tier joins one bake and one prep group", func(t *testing.T) {
		engine := newTestGroupingEngine([]domain.Tier{
			cakeTier("tier-1", "Vanilla Sponge", "Chocolate Ganache", 20, 12),
		}, nil)

		groups, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)
		require.Len(t, groups, 2)

		assert.Equal(t, domain.BatchTypeBake, groups[0].BatchType)
		assert.Equal(t, "vanilla sponge", groups[0].RecipeKey)
		assert.Equal(t, domain.BatchTypePrep, groups[1].BatchType)
		assert.Equal(t, "chocolate ganache", groups[1].RecipeKey)
		assert.Equal(t, []string{"tier-1"}, groups[0].TierIDs())
	})

	t.Run("same resolved name means same group", func(t *testing.T) {
		engine := newTestGroupingEngine([]domain.Tier{
			cakeTier("tier-1", "Vanilla Sponge", "Buttercream", 20, 12),
			cakeTier("tier-2", "vanilla  sponge", "Buttercream", 34, 14),
		}, nil)

		groups, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)

		var bake *CandidateGroup
		for i := range groups {
			if groups[i].BatchType == domain.BatchTypeBake {
				bake = &groups[i]
			}
		}
		require.NotNil(t, bake)
		assert.Equal(t, 2, bake.Aggregates.TierCount)
		assert.Equal(t, 54, bake.Aggregates.TotalServings)
		assert.Equal(t, dueDate(12), bake.EarliestDue)
	})

	t.Run("filling keys the prep group when frosting absent", func(t *testing.T) {
		tier := cakeTier("tier-1", "Vanilla Sponge", "", 20, 12)
		tier.Filling = domain.RecipeRef{Fallback: "raspberry jam"}
		engine := newTestGroupingEngine([]domain.Tier{tier}, nil)

		groups, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "raspberry jam", groups[1].RecipeKey)
	})

	t.Run("stock task merges into matching bake group by mass", func(t *testing.T) {
		engine := newTestGroupingEngine(
			[]domain.Tier{cakeTier("tier-1", "Vanilla Sponge", "Buttercream", 20, 12)},
			[]domain.StockTask{{
				ID:         "task-1",
				ItemName:   "Vanilla Cupcakes",
				Quantity:   24,
				Recipe:     domain.RecipeRef{RecipeName: "Vanilla Sponge"},
				UnitWeight: 75,
				Date:       dueDate(11),
			}},
		)

		groups, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)

		bake := groups[0]
		assert.Equal(t, domain.BatchTypeBake, bake.BatchType)
		assert.Equal(t, 1, bake.Aggregates.TierCount)
		assert.Equal(t, 1, bake.Aggregates.StockTaskCount)
		assert.Equal(t, []string{"task-1"}, bake.TaskIDs())
		// 24 units at 75g each on top of the tier frosting mass
		assert.Greater(t, bake.Aggregates.TotalMassG, 1800.0)
		// Task due date pulls the group's earliest due earlier
		assert.Equal(t, dueDate(11), bake.EarliestDue)
	})

	t.Run("ordering by earliest due then type priority", func(t *testing.T) {
		engine := newTestGroupingEngine([]domain.Tier{
			cakeTier("tier-1", "Red Velvet", "Cream Cheese", 20, 15),
			cakeTier("tier-2", "Vanilla Sponge", "Buttercream", 20, 12),
		}, nil)

		groups, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)
		require.Len(t, groups, 4)

		assert.Equal(t, dueDate(12), groups[0].EarliestDue)
		assert.Equal(t, domain.BatchTypeBake, groups[0].BatchType)
		assert.Equal(t, domain.BatchTypePrep, groups[1].BatchType)
		assert.Equal(t, dueDate(15), groups[2].EarliestDue)
		assert.Equal(t, domain.BatchTypeBake, groups[2].BatchType)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		engine := newTestGroupingEngine([]domain.Tier{
			cakeTier("tier-1", "Red Velvet", "Cream Cheese", 20, 12),
			cakeTier("tier-2", "Vanilla Sponge", "Buttercream", 34, 12),
			cakeTier("tier-3", "Chocolate Fudge", "Buttercream", 13, 12),
		}, []domain.StockTask{{
			ID: "task-1", Quantity: 6, Recipe: domain.RecipeRef{RecipeName: "Chocolate Fudge"},
			UnitWeight: 120, Date: dueDate(12),
		}})

		first, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)
		second, err := engine.BuildGroups(ctx, testWindow())
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].BatchType, second[i].BatchType)
			assert.Equal(t, first[i].RecipeKey, second[i].RecipeKey)
			assert.Equal(t, first[i].TierIDs(), second[i].TierIDs())
			assert.Equal(t, first[i].TaskIDs(), second[i].TaskIDs())
			assert.Equal(t, first[i].Aggregates, second[i].Aggregates)
		}
	})
}
