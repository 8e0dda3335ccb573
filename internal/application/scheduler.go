package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/logging"
	"github.com/bakery-platform/batching-service/pkg/metrics"
)

// MissingDependency is an advisory warning that an upstream batch type has
// no batch covering the same recipe. It never blocks scheduling; rush
// orders may legitimately skip a dependency by using stock ingredients.
type MissingDependency struct {
	BatchType       domain.BatchType `json:"batchType"`
	RecommendedDate time.Time        `json:"recommendedDate"`
}

// ScheduleSuggestion is the ephemeral output of the scheduler, one per
// candidate group. Suggestions are computed fresh on every request and are
// never persisted; accepting one means creating a batch from it.
type ScheduleSuggestion struct {
	BatchType           domain.BatchType    `json:"batchType"`
	Recipe              domain.RecipeRef    `json:"recipe"`
	RecipeKey           string              `json:"recipeKey"`
	EarliestDue         time.Time           `json:"earliestDue"`
	SuggestedDate       time.Time           `json:"suggestedDate"`
	LeadTimeDays        int                 `json:"leadTimeDays"`
	Clamped             bool                `json:"clamped"`
	Reason              string              `json:"reason"`
	DependsOn           []domain.BatchType  `json:"dependsOn,omitempty"`
	MissingDependencies []MissingDependency `json:"missingDependencies,omitempty"`
	TierIDs             []string            `json:"tierIds"`
	StockTaskIDs        []string            `json:"stockTaskIds"`
	Aggregates          GroupAggregates     `json:"aggregates"`
}

// Scheduler proposes production dates for candidate groups. Stateless and
// greedy: each group is dated independently from its earliest due date and
// the configured lead time, with no cross-group optimization. Manual
// rescheduling and merging downstream make up for the lack of it.
type Scheduler struct {
	configs domain.BatchTypeConfigProvider
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewScheduler creates a new Scheduler
func NewScheduler(configs domain.BatchTypeConfigProvider, m *metrics.Metrics, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		configs: configs,
		metrics: m,
		logger:  logger.WithComponent("scheduler"),
		now:     time.Now,
	}
}

// Suggest computes a suggestion for every candidate group. The existing
// batches are consulted only for dependency coverage checks.
func (s *Scheduler) Suggest(ctx context.Context, groups []CandidateGroup, existing []*domain.Batch) []ScheduleSuggestion {
	today := domain.DateOnly(s.now())

	// Recipe keys already covered per batch type, from persisted batches
	// plus the groups of this run. A dependency counts as covered whether
	// it is scheduled or merely suggested.
	covered := make(map[groupKey]bool)
	for _, b := range existing {
		if !b.IsEmpty() {
			covered[groupKey{batchType: b.Type, recipeKey: b.RecipeKey}] = true
		}
	}
	for _, g := range groups {
		covered[groupKey{batchType: g.BatchType, recipeKey: g.RecipeKey}] = true
	}

	suggestions := make([]ScheduleSuggestion, 0, len(groups))
	for _, g := range groups {
		cfg, ok := s.configs.Get(g.BatchType)
		if !ok {
			s.logger.Warn("No configuration for batch type, skipping group",
				"batchType", string(g.BatchType), "recipeKey", g.RecipeKey)
			continue
		}

		suggestion := ScheduleSuggestion{
			BatchType:    g.BatchType,
			Recipe:       g.Recipe,
			RecipeKey:    g.RecipeKey,
			EarliestDue:  g.EarliestDue,
			LeadTimeDays: cfg.LeadTimeDays,
			DependsOn:    cfg.DependsOn,
			TierIDs:      g.TierIDs(),
			StockTaskIDs: g.TaskIDs(),
			Aggregates:   g.Aggregates,
		}

		suggested := g.EarliestDue.AddDate(0, 0, -cfg.LeadTimeDays)
		if suggested.Before(today) {
			suggestion.Clamped = true
			suggestion.Reason = fmt.Sprintf(
				"due %s minus %d day lead time falls in the past; clamped to today",
				g.EarliestDue.Format(time.DateOnly), cfg.LeadTimeDays)
			suggested = today
		} else {
			suggestion.Reason = fmt.Sprintf(
				"%d day lead time before earliest due date %s",
				cfg.LeadTimeDays, g.EarliestDue.Format(time.DateOnly))
		}
		suggestion.SuggestedDate = suggested

		for _, dep := range cfg.DependsOn {
			if covered[groupKey{batchType: dep, recipeKey: g.RecipeKey}] {
				continue
			}
			depLead := 0
			if depCfg, ok := s.configs.Get(dep); ok {
				depLead = depCfg.LeadTimeDays
			}
			suggestion.MissingDependencies = append(suggestion.MissingDependencies, MissingDependency{
				BatchType:       dep,
				RecommendedDate: suggested.AddDate(0, 0, -depLead),
			})
		}

		if s.metrics != nil {
			s.metrics.RecordSuggestion(string(g.BatchType), suggestion.Clamped)
		}
		suggestions = append(suggestions, suggestion)
	}

	return suggestions
}
