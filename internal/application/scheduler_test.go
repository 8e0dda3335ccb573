package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-platform/batching-service/internal/domain"
)

func newTestScheduler(today time.Time) *Scheduler {
	s := NewScheduler(domain.NewStaticConfigProvider(domain.DefaultBatchTypeConfigs()), nil, testLogger())
	s.now = func() time.Time { return today }
	return s
}

func bakeGroup(recipe string, dueDay int) CandidateGroup {
	ref := domain.RecipeRef{RecipeName: recipe}
	return CandidateGroup{
		BatchType:   domain.BatchTypeBake,
		Recipe:      ref,
		RecipeKey:   domain.ResolvedNameResolver{}.Key(ref),
		EarliestDue: dueDate(dueDay),
	}
}

func TestSchedulerSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("applies lead time before earliest due", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		suggestions := s.Suggest(ctx, []CandidateGroup{bakeGroup("Vanilla Sponge", 10)}, nil)

		require.Len(t, suggestions, 1)
		assert.Equal(t, dueDate(8), suggestions[0].SuggestedDate)
		assert.Equal(t, 2, suggestions[0].LeadTimeDays)
		assert.False(t, suggestions[0].Clamped)
	})

	t.Run("clamps past dates to today with warning", func(t *testing.T) {
		s := newTestScheduler(dueDate(10))
		suggestions := s.Suggest(ctx, []CandidateGroup{bakeGroup("Vanilla Sponge", 11)}, nil)

		require.Len(t, suggestions, 1)
		assert.Equal(t, dueDate(10), suggestions[0].SuggestedDate)
		assert.True(t, suggestions[0].Clamped)
		assert.Contains(t, suggestions[0].Reason, "clamped to today")
	})

	t.Run("monotonic with due dates", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		suggestions := s.Suggest(ctx, []CandidateGroup{
			bakeGroup("Vanilla Sponge", 8),
			bakeGroup("Red Velvet", 14),
			bakeGroup("Chocolate Fudge", 20),
		}, nil)

		require.Len(t, suggestions, 3)
		for i := 1; i < len(suggestions); i++ {
			assert.False(t, suggestions[i].SuggestedDate.Before(suggestions[i-1].SuggestedDate))
		}
	})

	t.Run("missing dependency is advisory", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		ref := domain.RecipeRef{RecipeName: "Vanilla Sponge"}
		stackGroup := CandidateGroup{
			BatchType:   domain.BatchTypeStack,
			Recipe:      ref,
			RecipeKey:   "vanilla sponge",
			EarliestDue: dueDate(12),
		}

		suggestions := s.Suggest(ctx, []CandidateGroup{stackGroup}, nil)
		require.Len(t, suggestions, 1)

		// stack needs bake and prep; neither exists for this recipe
		require.Len(t, suggestions[0].MissingDependencies, 2)
		assert.Equal(t, domain.BatchTypeBake, suggestions[0].MissingDependencies[0].BatchType)
		// stack suggested 11, bake lead 2 recommends 9
		assert.Equal(t, dueDate(9), suggestions[0].MissingDependencies[0].RecommendedDate)
	})

	t.Run("existing batch covers a dependency", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		ref := domain.RecipeRef{RecipeName: "Vanilla Sponge"}

		date := dueDate(9)
		bakeBatch, err := domain.NewBatch("BT-BAK-1", domain.BatchTypeBake, ref, "vanilla sponge", &date)
		require.NoError(t, err)
		require.NoError(t, bakeBatch.AddTier(domain.BatchTier{TierID: "tier-1", Servings: 20, DueDate: dueDate(12)}))

		stackGroup := CandidateGroup{
			BatchType:   domain.BatchTypeStack,
			Recipe:      ref,
			RecipeKey:   "vanilla sponge",
			EarliestDue: dueDate(12),
		}

		suggestions := s.Suggest(ctx, []CandidateGroup{stackGroup}, []*domain.Batch{bakeBatch})
		require.Len(t, suggestions, 1)
		require.Len(t, suggestions[0].MissingDependencies, 1)
		assert.Equal(t, domain.BatchTypePrep, suggestions[0].MissingDependencies[0].BatchType)
	})

	t.Run("sibling group of this run covers a dependency", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		groups := []CandidateGroup{
			bakeGroup("Vanilla Sponge", 12),
			{
				BatchType:   domain.BatchTypePrep,
				Recipe:      domain.RecipeRef{RecipeName: "Vanilla Sponge"},
				RecipeKey:   "vanilla sponge",
				EarliestDue: dueDate(12),
			},
			{
				BatchType:   domain.BatchTypeStack,
				Recipe:      domain.RecipeRef{RecipeName: "Vanilla Sponge"},
				RecipeKey:   "vanilla sponge",
				EarliestDue: dueDate(12),
			},
		}

		suggestions := s.Suggest(ctx, groups, nil)
		require.Len(t, suggestions, 3)
		assert.Empty(t, suggestions[2].MissingDependencies)
	})

	t.Run("unknown batch type is skipped", func(t *testing.T) {
		s := newTestScheduler(dueDate(1))
		group := bakeGroup("Vanilla Sponge", 10)
		group.BatchType = "glaze"
		suggestions := s.Suggest(ctx, []CandidateGroup{group}, nil)
		assert.Empty(t, suggestions)
	})
}
