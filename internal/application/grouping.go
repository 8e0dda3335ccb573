package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/logging"
	"github.com/bakery-platform/batching-service/pkg/resilience"
	"github.com/bakery-platform/batching-service/pkg/units"
)

// GroupAggregates are the summed quantities of a candidate group
type GroupAggregates struct {
	TierCount           int     `json:"tierCount"`
	StockTaskCount      int     `json:"stockTaskCount"`
	TotalServings       int     `json:"totalServings"`
	TotalSurfaceAreaCm2 float64 `json:"totalSurfaceAreaCm2"`
	TotalFrostingMassG  float64 `json:"totalFrostingMassG"`
	TotalMassG          float64 `json:"totalMassG"`
	EstimatedLaborHours float64 `json:"estimatedLaborHours"`
}

// CandidateGroup is one prospective batch: every unbatched tier and stock
// task sharing a (batch type, recipe identity) pair within the window
type CandidateGroup struct {
	BatchType   domain.BatchType
	Recipe      domain.RecipeRef
	RecipeKey   string
	Tiers       []domain.Tier
	StockTasks  []domain.StockTask
	EarliestDue time.Time
	Aggregates  GroupAggregates
}

// TierIDs returns the member tier ids in insertion order
func (g *CandidateGroup) TierIDs() []string {
	ids := make([]string, 0, len(g.Tiers))
	for _, t := range g.Tiers {
		ids = append(ids, t.ID)
	}
	return ids
}

// TaskIDs returns the member stock task ids in insertion order
func (g *CandidateGroup) TaskIDs() []string {
	ids := make([]string, 0, len(g.StockTasks))
	for _, t := range g.StockTasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// GroupingEngine builds candidate groups from the unbatched pool. It holds
// no mutable state; BuildGroups is a pure function of provider output, so
// repeated calls without intervening mutations return identical groups.
type GroupingEngine struct {
	tiers    domain.TierProvider
	tasks    domain.StockTaskProvider
	resolver domain.IdentityResolver
	factors  domain.FrostingFactors
	retry    *resilience.RetryConfig
	logger   *logging.Logger
}

// NewGroupingEngine creates a new GroupingEngine
func NewGroupingEngine(
	tiers domain.TierProvider,
	tasks domain.StockTaskProvider,
	resolver domain.IdentityResolver,
	factors domain.FrostingFactors,
	logger *logging.Logger,
) *GroupingEngine {
	return &GroupingEngine{
		tiers:    tiers,
		tasks:    tasks,
		resolver: resolver,
		factors:  factors,
		retry:    resilience.DefaultRetryConfig(),
		logger:   logger.WithComponent("grouping-engine"),
	}
}

// BuildGroups produces the candidate groups for a date window, one per
// distinct (batch type, recipe identity) pair, sorted by ascending earliest
// due date with ties broken by type priority.
func (e *GroupingEngine) BuildGroups(ctx context.Context, window PlanningWindow) ([]CandidateGroup, error) {
	var tiers []domain.Tier
	err := resilience.Retry(ctx, e.retry, e.logger.Logger, "list-unbatched-tiers", func() error {
		var err error
		tiers, err = e.tiers.UnbatchedTiers(ctx, window.From, window.To)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load unbatched tiers: %w", err)
	}

	var tasks []domain.StockTask
	err = resilience.Retry(ctx, e.retry, e.logger.Logger, "list-open-stock-tasks", func() error {
		var err error
		tasks, err = e.tasks.OpenTasks(ctx, window.From, window.To)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock tasks: %w", err)
	}

	return e.group(tiers, tasks), nil
}

type groupKey struct {
	batchType domain.BatchType
	recipeKey string
}

func (e *GroupingEngine) group(tiers []domain.Tier, tasks []domain.StockTask) []CandidateGroup {
	groups := make(map[groupKey]*CandidateGroup)
	var order []groupKey

	upsert := func(batchType domain.BatchType, recipe domain.RecipeRef) *CandidateGroup {
		key := groupKey{batchType: batchType, recipeKey: e.resolver.Key(recipe)}
		g, ok := groups[key]
		if !ok {
			g = &CandidateGroup{BatchType: batchType, Recipe: recipe, RecipeKey: key.recipeKey}
			groups[key] = g
			order = append(order, key)
		}
		return g
	}

	// Each tier joins exactly one bake group through its batter and one prep
	// group through its frosting (or filling when no frosting is set).
	for _, tier := range tiers {
		if !tier.Batter.IsZero() {
			e.addTier(upsert(domain.BatchTypeBake, tier.Batter), tier)
		}
		prepRecipe := tier.Frosting
		if prepRecipe.IsZero() {
			prepRecipe = tier.Filling
		}
		if !prepRecipe.IsZero() {
			e.addTier(upsert(domain.BatchTypePrep, prepRecipe), tier)
		}
	}

	// Stock tasks always seed a bake group for their recipe; when a prep
	// group with the same recipe identity already exists they are listed
	// there too for traceability.
	for _, task := range tasks {
		if task.Recipe.IsZero() {
			continue
		}
		e.addTask(upsert(domain.BatchTypeBake, task.Recipe), task)

		prepKey := groupKey{batchType: domain.BatchTypePrep, recipeKey: e.resolver.Key(task.Recipe)}
		if g, ok := groups[prepKey]; ok {
			e.addTask(g, task)
		}
	}

	result := make([]CandidateGroup, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Aggregates.EstimatedLaborHours = domain.EstimatedLaborHours(g.Tiers)
		result = append(result, *g)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].EarliestDue.Equal(result[j].EarliestDue) {
			return result[i].EarliestDue.Before(result[j].EarliestDue)
		}
		pi, pj := domain.TypePriority(result[i].BatchType), domain.TypePriority(result[j].BatchType)
		if pi != pj {
			return pi < pj
		}
		return result[i].RecipeKey < result[j].RecipeKey
	})

	return result
}

func (e *GroupingEngine) addTier(g *CandidateGroup, tier domain.Tier) {
	g.Tiers = append(g.Tiers, tier)
	g.Aggregates.TierCount++
	g.Aggregates.TotalServings += domain.Servings(tier)
	g.Aggregates.TotalSurfaceAreaCm2 += domain.SurfaceArea(tier)
	frosting := domain.FrostingMass(tier, e.factors)
	g.Aggregates.TotalFrostingMassG += frosting
	g.Aggregates.TotalMassG += frosting
	e.noteDue(g, tier.DueDate)
}

func (e *GroupingEngine) addTask(g *CandidateGroup, task domain.StockTask) {
	g.StockTasks = append(g.StockTasks, task)
	g.Aggregates.StockTaskCount++
	mass := units.MassFromGrams(task.UnitWeight).Mul(decimal.NewFromInt(int64(task.Quantity)))
	g.Aggregates.TotalMassG += mass.Grams()
	e.noteDue(g, task.DueDate())
}

func (e *GroupingEngine) noteDue(g *CandidateGroup, due time.Time) {
	if due.IsZero() {
		return
	}
	due = domain.DateOnly(due)
	if g.EarliestDue.IsZero() || due.Before(g.EarliestDue) {
		g.EarliestDue = due
	}
}
