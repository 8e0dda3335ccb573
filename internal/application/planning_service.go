package application

import (
	"context"
	"fmt"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/logging"
)

// PlanningService is the read side of batch planning: candidate groups and
// schedule suggestions, plus the bulk apply that turns suggestions into
// batches through the mutation service.
type PlanningService struct {
	grouping  *GroupingEngine
	scheduler *Scheduler
	batches   *BatchService
	repo      domain.BatchRepository
	configs   domain.BatchTypeConfigProvider
	logger    *logging.Logger
}

// NewPlanningService creates a new PlanningService
func NewPlanningService(
	grouping *GroupingEngine,
	scheduler *Scheduler,
	batches *BatchService,
	repo domain.BatchRepository,
	configs domain.BatchTypeConfigProvider,
	logger *logging.Logger,
) *PlanningService {
	return &PlanningService{
		grouping:  grouping,
		scheduler: scheduler,
		batches:   batches,
		repo:      repo,
		configs:   configs,
		logger:    logger.WithComponent("planning-service"),
	}
}

// ListGroups returns the candidate groups for a window
func (s *PlanningService) ListGroups(ctx context.Context, window PlanningWindow) ([]CandidateGroupDTO, error) {
	groups, err := s.grouping.BuildGroups(ctx, window)
	if err != nil {
		return nil, err
	}
	return ToCandidateGroupDTOs(groups, s.configs), nil
}

// SuggestSchedule computes fresh schedule suggestions for a window
func (s *PlanningService) SuggestSchedule(ctx context.Context, window PlanningWindow) ([]ScheduleSuggestion, error) {
	groups, err := s.grouping.BuildGroups(ctx, window)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByDateRange(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing batches: %w", err)
	}

	return s.scheduler.Suggest(ctx, groups, existing), nil
}

// ApplySuggestions recomputes the suggestions for a window and creates one
// batch per suggestion, tolerating per-suggestion failures
func (s *PlanningService) ApplySuggestions(ctx context.Context, window PlanningWindow) (*ApplySuggestionsResultDTO, error) {
	suggestions, err := s.SuggestSchedule(ctx, window)
	if err != nil {
		return nil, err
	}

	result := s.batches.ApplySuggestions(ctx, suggestions)
	s.logger.Info("Applied schedule suggestions",
		"total", len(suggestions), "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}
