package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/errors"
	"github.com/bakery-platform/batching-service/pkg/logging"
	"github.com/bakery-platform/batching-service/pkg/metrics"
)

// BatchService is the only component permitted to create, alter, or destroy
// persisted batches. Mutations are serialized per (batch type, recipe
// identity) key through an in-process keyed mutex; the storage layer's
// unique index is the backstop when several instances run side by side.
type BatchService struct {
	repo      domain.BatchRepository
	tiers     domain.TierProvider
	tasks     domain.StockTaskProvider
	staff     domain.StaffProvider
	publisher domain.EventPublisher
	resolver  domain.IdentityResolver
	configs   domain.BatchTypeConfigProvider
	factors   domain.FrostingFactors
	metrics   *metrics.Metrics
	logger    *logging.Logger
	locks     *keyedMutex
}

// NewBatchService creates a new BatchService
func NewBatchService(
	repo domain.BatchRepository,
	tiers domain.TierProvider,
	tasks domain.StockTaskProvider,
	staff domain.StaffProvider,
	publisher domain.EventPublisher,
	resolver domain.IdentityResolver,
	configs domain.BatchTypeConfigProvider,
	factors domain.FrostingFactors,
	m *metrics.Metrics,
	logger *logging.Logger,
) *BatchService {
	return &BatchService{
		repo:      repo,
		tiers:     tiers,
		tasks:     tasks,
		staff:     staff,
		publisher: publisher,
		resolver:  resolver,
		configs:   configs,
		factors:   factors,
		metrics:   m,
		logger:    logger.WithComponent("batch-service"),
		locks:     newKeyedMutex(),
	}
}

// CreateBatch creates a batch from a selection of tiers and stock tasks.
// When a non-empty batch already occupies the same (type, recipe, date)
// slot, the members are merged into it instead of creating a duplicate.
func (s *BatchService) CreateBatch(ctx context.Context, cmd CreateBatchCommand) (*BatchDTO, error) {
	batchType := domain.BatchType(strings.TrimSpace(cmd.BatchType))
	if batchType == "" {
		return nil, errors.ErrValidation("batchType is required")
	}
	if _, ok := s.configs.Get(batchType); !ok {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown batch type: %s", batchType))
	}
	if len(cmd.TierIDs) == 0 && len(cmd.StockTaskIDs) == 0 {
		return nil, errors.ErrValidation("at least one tier or stock task is required")
	}
	if cmd.Recipe.IsZero() {
		return nil, errors.ErrValidation("recipe identity is required")
	}

	recipeKey := s.resolver.Key(cmd.Recipe)
	unlock := s.locks.Lock(lockKey(batchType, recipeKey))
	defer unlock()

	var slot *domain.ScheduleKey
	if cmd.Date != nil {
		slot = &domain.ScheduleKey{Type: batchType, RecipeKey: recipeKey, Date: domain.DateOnly(*cmd.Date)}
	}

	tierMembers, err := s.resolveTierMembers(ctx, batchType, slot, cmd.TierIDs)
	if err != nil {
		return nil, err
	}
	taskMembers, err := s.resolveTaskMembers(ctx, cmd.StockTaskIDs)
	if err != nil {
		return nil, err
	}

	// Auto-merge: an occupied slot absorbs the new members
	if slot != nil {
		existing, err := s.repo.FindByKey(ctx, *slot)
		if err != nil {
			s.logger.WithError(err).Error("Failed to check batch slot", "key", slot.String())
			return nil, fmt.Errorf("failed to check batch slot: %w", err)
		}
		if existing != nil {
			return s.absorbMembers(ctx, existing, tierMembers, taskMembers)
		}
	}

	batch, err := domain.NewBatch(generateBatchID(batchType), batchType, cmd.Recipe, recipeKey, cmd.Date)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	if cmd.AssignedTo != "" {
		if err := s.checkStaff(ctx, cmd.AssignedTo); err != nil {
			return nil, err
		}
		batch.AssignTo(cmd.AssignedTo)
	}
	if cmd.Notes != "" {
		batch.SetNotes(cmd.Notes)
	}
	for _, m := range tierMembers {
		if err := batch.AddTier(m); err != nil {
			return nil, errors.MapDomainError(err)
		}
	}
	for _, m := range taskMembers {
		if err := batch.AddStockTask(m); err != nil {
			return nil, errors.MapDomainError(err)
		}
	}

	if err := s.repo.Save(ctx, batch); err != nil {
		// Lost a cross-instance race on the slot: merge into the winner
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.CodeConflict && slot != nil {
			winner, findErr := s.repo.FindByKey(ctx, *slot)
			if findErr == nil && winner != nil {
				s.logger.Info("Batch slot taken concurrently, merging into winner",
					"key", slot.String(), "winnerBatchId", winner.BatchID)
				return s.absorbMembers(ctx, winner, tierMembers, taskMembers)
			}
		}
		s.logger.WithError(err).Error("Failed to create batch", "batchId", batch.BatchID)
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	s.publishEvents(ctx, batch)
	if s.metrics != nil {
		s.metrics.RecordBatchCreated(string(batchType))
		s.metrics.RecordTiersScheduled(string(batchType), len(tierMembers))
	}
	s.logger.Info("Created batch", "batchId", batch.BatchID, "batchType", string(batchType),
		"recipeKey", recipeKey, "tierCount", len(tierMembers), "taskCount", len(taskMembers))

	return ToBatchDTO(batch), nil
}

// RescheduleBatch moves a batch to a new date. When another batch of the
// same (type, recipe) already occupies that date, the two are merged and
// the result reports which batch survived.
func (s *BatchService) RescheduleBatch(ctx context.Context, cmd RescheduleBatchCommand) (*RescheduleResultDTO, error) {
	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", cmd.BatchID)
	}

	unlock := s.locks.Lock(lockKey(batch.Type, batch.RecipeKey))
	defer unlock()

	newDate := domain.DateOnly(cmd.Date)
	key := domain.ScheduleKey{Type: batch.Type, RecipeKey: batch.RecipeKey, Date: newDate}
	occupant, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check batch slot", "key", key.String())
		return nil, fmt.Errorf("failed to check batch slot: %w", err)
	}

	if occupant != nil && occupant.BatchID != batch.BatchID {
		if err := occupant.MergeFrom(batch); err != nil {
			return nil, errors.MapDomainError(err)
		}
		if err := s.repo.SaveAndDelete(ctx, occupant, batch.BatchID); err != nil {
			s.logger.WithError(err).Error("Failed to persist merge", "batchId", occupant.BatchID)
			return nil, fmt.Errorf("failed to persist merge: %w", err)
		}

		s.publishEvents(ctx, occupant)
		if s.metrics != nil {
			s.metrics.RecordBatchMerged(string(batch.Type), "reschedule")
		}
		s.logger.Info("Reschedule merged batches", "sourceBatchId", cmd.BatchID,
			"targetBatchId", occupant.BatchID, "date", newDate.Format(time.DateOnly))

		return &RescheduleResultDTO{
			Batch:        ToBatchDTO(occupant),
			Merged:       true,
			MergedIntoID: occupant.BatchID,
		}, nil
	}

	if err := batch.Reschedule(newDate, cmd.DurationDays); err != nil {
		return nil, errors.MapDomainError(err)
	}
	if err := s.repo.Save(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to reschedule batch", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to reschedule batch: %w", err)
	}

	s.publishEvents(ctx, batch)
	s.logger.Info("Rescheduled batch", "batchId", cmd.BatchID, "date", newDate.Format(time.DateOnly))

	return &RescheduleResultDTO{Batch: ToBatchDTO(batch)}, nil
}

// MergeBatches moves all members from source into target and deletes
// source. Batch types must match; mismatched recipe identities are allowed
// for manual consolidation but logged as a warning.
func (s *BatchService) MergeBatches(ctx context.Context, cmd MergeBatchesCommand) (*BatchDTO, error) {
	if cmd.SourceBatchID == cmd.TargetBatchID {
		return nil, errors.ErrValidation("source and target batch must differ")
	}

	source, err := s.findBatch(ctx, cmd.SourceBatchID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.ErrNotFoundWithID("batch", cmd.SourceBatchID)
	}
	target, err := s.findBatch(ctx, cmd.TargetBatchID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.ErrNotFoundWithID("batch", cmd.TargetBatchID)
	}
	if source.Type != target.Type {
		return nil, errors.ErrConflictWithBatch(
			fmt.Sprintf("cannot merge %s batch into %s batch", source.Type, target.Type),
			cmd.TargetBatchID)
	}

	unlock := s.locks.Lock(lockKey(target.Type, target.RecipeKey))
	defer unlock()

	if source.RecipeKey != target.RecipeKey {
		s.logger.Warn("Merging batches with different recipe identities",
			"sourceRecipeKey", source.RecipeKey, "targetRecipeKey", target.RecipeKey)
	}

	if err := target.MergeFrom(source); err != nil {
		return nil, errors.MapDomainError(err)
	}
	if err := s.repo.SaveAndDelete(ctx, target, source.BatchID); err != nil {
		s.logger.WithError(err).Error("Failed to persist merge", "batchId", cmd.TargetBatchID)
		return nil, fmt.Errorf("failed to persist merge: %w", err)
	}

	s.publishEvents(ctx, target)
	if s.metrics != nil {
		s.metrics.RecordBatchMerged(string(target.Type), "manual")
	}
	s.logger.Info("Merged batches", "sourceBatchId", cmd.SourceBatchID, "targetBatchId", cmd.TargetBatchID)

	return ToBatchDTO(target), nil
}

// RemoveMembers detaches tiers from a batch, returning them to the
// unscheduled pool. An emptied batch is deleted as a side effect. Removing
// from a batch that no longer exists is a no-op success.
func (s *BatchService) RemoveMembers(ctx context.Context, cmd RemoveMembersCommand) (*RemoveMembersResultDTO, error) {
	if len(cmd.TierIDs) == 0 {
		return nil, errors.ErrValidation("tierIds is required")
	}

	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		s.logger.Info("Remove members on missing batch, treating as no-op", "batchId", cmd.BatchID)
		return &RemoveMembersResultDTO{}, nil
	}

	unlock := s.locks.Lock(lockKey(batch.Type, batch.RecipeKey))
	defer unlock()

	removed := batch.RemoveTiers(cmd.TierIDs)
	if len(removed) == 0 {
		return &RemoveMembersResultDTO{Batch: ToBatchDTO(batch)}, nil
	}

	if batch.IsEmpty() {
		if err := s.repo.Delete(ctx, batch.BatchID); err != nil {
			s.logger.WithError(err).Error("Failed to delete emptied batch", "batchId", cmd.BatchID)
			return nil, fmt.Errorf("failed to delete emptied batch: %w", err)
		}
		batch.AddDomainEvent(&domain.BatchDeletedEvent{
			BatchID:   batch.BatchID,
			Reason:    "emptied",
			DeletedAt: time.Now(),
		})
		s.publishEvents(ctx, batch)
		if s.metrics != nil {
			s.metrics.RecordBatchDeleted(string(batch.Type), "emptied")
		}
		s.logger.Info("Deleted emptied batch", "batchId", cmd.BatchID, "removedTiers", len(removed))
		return &RemoveMembersResultDTO{Deleted: true, RemovedCount: len(removed)}, nil
	}

	if err := s.repo.Save(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to save batch after member removal", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}

	s.publishEvents(ctx, batch)
	s.logger.Info("Removed members from batch", "batchId", cmd.BatchID, "removedTiers", len(removed))

	return &RemoveMembersResultDTO{Batch: ToBatchDTO(batch), RemovedCount: len(removed)}, nil
}

// DeleteBatch removes a batch unconditionally; its members return to the
// unscheduled pool. Deleting an already deleted batch is a no-op success.
func (s *BatchService) DeleteBatch(ctx context.Context, cmd DeleteBatchCommand) error {
	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return nil
	}

	unlock := s.locks.Lock(lockKey(batch.Type, batch.RecipeKey))
	defer unlock()

	if err := s.repo.Delete(ctx, cmd.BatchID); err != nil {
		s.logger.WithError(err).Error("Failed to delete batch", "batchId", cmd.BatchID)
		return fmt.Errorf("failed to delete batch: %w", err)
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "manual"
	}
	batch.AddDomainEvent(&domain.BatchDeletedEvent{
		BatchID:   cmd.BatchID,
		Reason:    reason,
		DeletedAt: time.Now(),
	})
	s.publishEvents(ctx, batch)
	if s.metrics != nil {
		s.metrics.RecordBatchDeleted(string(batch.Type), reason)
	}
	s.logger.Info("Deleted batch", "batchId", cmd.BatchID, "reason", reason)

	return nil
}

// UpdateBatchAttributes applies a pure attribute update. No membership
// change, no merge logic.
func (s *BatchService) UpdateBatchAttributes(ctx context.Context, cmd UpdateBatchAttributesCommand) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", cmd.BatchID)
	}

	if cmd.AssignedTo != nil && *cmd.AssignedTo != "" {
		if err := s.checkStaff(ctx, *cmd.AssignedTo); err != nil {
			return nil, err
		}
	}

	if cmd.DurationDays != nil {
		if *cmd.DurationDays < 1 {
			return nil, errors.ErrValidation("durationDays must be at least 1")
		}
		batch.SetDuration(*cmd.DurationDays)
	}
	if cmd.Notes != nil {
		batch.SetNotes(*cmd.Notes)
	}
	if cmd.AssignedTo != nil {
		batch.AssignTo(*cmd.AssignedTo)
	}

	if err := s.repo.Save(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to update batch", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	s.logger.Info("Updated batch attributes", "batchId", cmd.BatchID)
	return ToBatchDTO(batch), nil
}

// ApplySuggestions creates one batch per suggestion. Failures are isolated:
// the Nth failure never rolls back the first N-1 successes, and the caller
// is told exactly which suggestions succeeded.
func (s *BatchService) ApplySuggestions(ctx context.Context, suggestions []ScheduleSuggestion) *ApplySuggestionsResultDTO {
	result := &ApplySuggestionsResultDTO{
		Results: make([]SuggestionApplyResult, 0, len(suggestions)),
	}

	for i, suggestion := range suggestions {
		entry := SuggestionApplyResult{
			Index:     i,
			BatchType: string(suggestion.BatchType),
			RecipeKey: suggestion.RecipeKey,
		}

		date := suggestion.SuggestedDate
		dto, err := s.CreateBatch(ctx, CreateBatchCommand{
			BatchType:    string(suggestion.BatchType),
			Recipe:       suggestion.Recipe,
			Date:         &date,
			TierIDs:      suggestion.TierIDs,
			StockTaskIDs: suggestion.StockTaskIDs,
		})
		if err != nil {
			entry.Error = err.Error()
			result.Failed++
			s.logger.WithError(err).Warn("Suggestion apply failed",
				"index", i, "batchType", entry.BatchType, "recipeKey", entry.RecipeKey)
		} else {
			entry.BatchID = dto.BatchID
			result.Succeeded++
		}
		result.Results = append(result.Results, entry)
	}

	return result
}

// GetBatch retrieves a batch by ID
func (s *BatchService) GetBatch(ctx context.Context, query GetBatchQuery) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, query.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", query.BatchID)
	}
	return ToBatchDTO(batch), nil
}

// ListBatches lists batches filtered by tier membership, date range or status
func (s *BatchService) ListBatches(ctx context.Context, query ListBatchesQuery) ([]BatchListDTO, int64, error) {
	if query.TierID != "" {
		batches, err := s.repo.FindContainingTier(ctx, query.TierID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list batches: %w", err)
		}
		return ToBatchListDTOs(batches), int64(len(batches)), nil
	}
	if query.From != nil && query.To != nil {
		batches, err := s.repo.FindByDateRange(ctx, domain.DateOnly(*query.From), domain.DateOnly(*query.To))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list batches: %w", err)
		}
		return ToBatchListDTOs(batches), int64(len(batches)), nil
	}
	if query.Status != "" {
		batches, err := s.repo.FindByStatus(ctx, domain.BatchStatus(query.Status), int(query.PageSize))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list batches: %w", err)
		}
		return ToBatchListDTOs(batches), int64(len(batches)), nil
	}

	offset := (query.Page - 1) * query.PageSize
	if offset < 0 {
		offset = 0
	}
	batches, total, err := s.repo.FindAll(ctx, int(offset), int(query.PageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batches: %w", err)
	}
	return ToBatchListDTOs(batches), total, nil
}

// Reconcile applies the merge plan for the batches in a window. Invoked
// once per synchronization cycle by the caller.
func (s *BatchService) Reconcile(ctx context.Context, window PlanningWindow) ([]MergeAction, error) {
	batches, err := s.repo.FindByDateRange(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load batches for reconciliation: %w", err)
	}

	actions := PlanMerges(batches)
	for _, action := range actions {
		if _, err := s.MergeBatches(ctx, MergeBatchesCommand{
			SourceBatchID: action.SourceBatchID,
			TargetBatchID: action.TargetBatchID,
		}); err != nil {
			// A concurrent actor may have resolved the collision already
			if errors.IsNotFound(err) {
				continue
			}
			return actions, fmt.Errorf("failed to apply merge %s into %s: %w",
				action.SourceBatchID, action.TargetBatchID, err)
		}
	}

	return actions, nil
}

// absorbMembers merges new members into an existing batch occupying a slot
func (s *BatchService) absorbMembers(ctx context.Context, batch *domain.Batch, tiers []domain.BatchTier, tasks []domain.BatchStockTask) (*BatchDTO, error) {
	for _, m := range tiers {
		if err := batch.AddTier(m); err != nil {
			if err == domain.ErrTierAlreadyInBatch {
				continue
			}
			return nil, errors.MapDomainError(err)
		}
	}
	for _, m := range tasks {
		if err := batch.AddStockTask(m); err != nil {
			if err == domain.ErrTaskAlreadyInBatch {
				continue
			}
			return nil, errors.MapDomainError(err)
		}
	}

	if err := s.repo.Save(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to save auto-merge target", "batchId", batch.BatchID)
		return nil, fmt.Errorf("failed to save auto-merge target: %w", err)
	}

	s.publishEvents(ctx, batch)
	if s.metrics != nil {
		s.metrics.RecordBatchMerged(string(batch.Type), "auto")
	}
	s.logger.Info("Auto-merged members into existing batch", "batchId", batch.BatchID,
		"tierCount", len(tiers), "taskCount", len(tasks))

	return ToBatchDTO(batch), nil
}

// resolveTierMembers loads tiers and builds membership snapshots, rejecting
// tiers already held by another batch of the same type. A holder occupying
// the target slot is not a conflict: the create merges into it, and the
// merge skips members it already has, so repeating a create with the same
// inputs lands on the same batch.
func (s *BatchService) resolveTierMembers(ctx context.Context, batchType domain.BatchType, slot *domain.ScheduleKey, tierIDs []string) ([]domain.BatchTier, error) {
	if len(tierIDs) == 0 {
		return nil, nil
	}

	tiers, err := s.tiers.TiersByIDs(ctx, tierIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve tiers")
		return nil, fmt.Errorf("failed to resolve tiers: %w", err)
	}
	if len(tiers) != len(tierIDs) {
		return nil, errors.ErrValidation("one or more tiers do not exist")
	}

	members := make([]domain.BatchTier, 0, len(tiers))
	for _, tier := range tiers {
		holders, err := s.repo.FindContainingTier(ctx, tier.ID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to check tier membership", "tierId", tier.ID)
			return nil, fmt.Errorf("failed to check tier membership: %w", err)
		}
		for _, holder := range holders {
			if holder.Type != batchType {
				continue
			}
			if slot != nil && holder.Key().String() == slot.String() {
				continue
			}
			return nil, errors.ErrConflictWithBatch(
				fmt.Sprintf("tier %s is already in a %s batch", tier.ID, batchType),
				holder.BatchID)
		}

		members = append(members, domain.BatchTier{
			TierID:         tier.ID,
			OrderID:        tier.OrderID,
			Position:       tier.Position,
			Servings:       domain.Servings(tier),
			SurfaceAreaCm2: domain.SurfaceArea(tier),
			FrostingMassG:  domain.FrostingMass(tier, s.factors),
			FinishName:     tier.Frosting.Resolved(),
			DueDate:        domain.DateOnly(tier.DueDate),
			Fulfillment:    tier.Fulfillment,
		})
	}

	return members, nil
}

func (s *BatchService) resolveTaskMembers(ctx context.Context, taskIDs []string) ([]domain.BatchStockTask, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	tasks, err := s.tasks.TasksByIDs(ctx, taskIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve stock tasks")
		return nil, fmt.Errorf("failed to resolve stock tasks: %w", err)
	}
	if len(tasks) != len(taskIDs) {
		return nil, errors.ErrValidation("one or more stock tasks do not exist")
	}

	members := make([]domain.BatchStockTask, 0, len(tasks))
	for _, task := range tasks {
		if task.Quantity <= 0 {
			return nil, errors.ErrValidation(fmt.Sprintf("stock task %s has non-positive quantity", task.ID))
		}
		members = append(members, domain.BatchStockTask{
			TaskID:   task.ID,
			ItemName: task.ItemName,
			Quantity: task.Quantity,
			MassG:    float64(task.Quantity) * task.UnitWeight,
			DueDate:  domain.DateOnly(task.DueDate()),
		})
	}

	return members, nil
}

func (s *BatchService) findBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get batch", "batchId", batchID)
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return batch, nil
}

func (s *BatchService) checkStaff(ctx context.Context, staffRef string) error {
	if s.staff == nil {
		return nil
	}
	exists, err := s.staff.Exists(ctx, staffRef)
	if err != nil {
		s.logger.WithError(err).Warn("Staff lookup failed, accepting assignment unverified", "staffRef", staffRef)
		return nil
	}
	if !exists {
		return errors.ErrValidation(fmt.Sprintf("unknown staff reference: %s", staffRef))
	}
	return nil
}

// publishEvents publishes and clears the batch's domain events. Publish
// failures are logged, never surfaced: the mutation already committed.
func (s *BatchService) publishEvents(ctx context.Context, batch *domain.Batch) {
	events := batch.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events); err != nil {
			s.logger.WithError(err).Warn("Failed to publish domain events",
				"batchId", batch.BatchID, "eventCount", len(events))
		}
	}
	batch.ClearDomainEvents()
}

func lockKey(batchType domain.BatchType, recipeKey string) string {
	return string(batchType) + "|" + recipeKey
}

// generateBatchID generates a unique batch ID
func generateBatchID(batchType domain.BatchType) string {
	prefix := "BT"
	switch batchType {
	case domain.BatchTypeBake:
		prefix = "BT-BAK"
	case domain.BatchTypePrep:
		prefix = "BT-PRP"
	case domain.BatchTypeStack:
		prefix = "BT-STK"
	case domain.BatchTypeAssemble:
		prefix = "BT-ASM"
	case domain.BatchTypeDecorate:
		prefix = "BT-DEC"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), uuid.NewString()[:8])
}
