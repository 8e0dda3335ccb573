package application

import "github.com/bakery-platform/batching-service/internal/domain"

// ToBatchDTO converts a domain Batch to BatchDTO
func ToBatchDTO(batch *domain.Batch) *BatchDTO {
	if batch == nil {
		return nil
	}

	tiers := make([]BatchTierDTO, 0, len(batch.Tiers))
	for _, t := range batch.Tiers {
		tiers = append(tiers, BatchTierDTO{
			TierID:         t.TierID,
			OrderID:        t.OrderID,
			Position:       t.Position,
			Servings:       t.Servings,
			SurfaceAreaCm2: t.SurfaceAreaCm2,
			FrostingMassG:  t.FrostingMassG,
			FinishName:     t.FinishName,
			DueDate:        t.DueDate,
			Fulfillment:    string(t.Fulfillment),
			AddedAt:        t.AddedAt,
		})
	}

	tasks := make([]BatchStockTaskDTO, 0, len(batch.StockTasks))
	for _, t := range batch.StockTasks {
		tasks = append(tasks, BatchStockTaskDTO{
			TaskID:   t.TaskID,
			ItemName: t.ItemName,
			Quantity: t.Quantity,
			MassG:    t.MassG,
			DueDate:  t.DueDate,
			AddedAt:  t.AddedAt,
		})
	}

	return &BatchDTO{
		BatchID:       batch.BatchID,
		BatchType:     string(batch.Type),
		RecipeID:      batch.Recipe.RecipeID,
		RecipeName:    batch.Recipe.Resolved(),
		RecipeKey:     batch.RecipeKey,
		Status:        string(batch.Status),
		ScheduledDate: batch.ScheduledDate,
		DurationDays:  batch.DurationDays,
		AssignedTo:    batch.AssignedTo,
		Notes:         batch.Notes,
		Tiers:         tiers,
		StockTasks:    tasks,
		Aggregates: BatchAggregatesDTO{
			TierCount:           batch.Aggregates.TierCount,
			StockTaskCount:      batch.Aggregates.StockTaskCount,
			TotalServings:       batch.Aggregates.TotalServings,
			TotalSurfaceAreaCm2: batch.Aggregates.TotalSurfaceAreaCm2,
			TotalMassG:          batch.Aggregates.TotalMassG,
			EstimatedLaborHours: batch.Aggregates.EstimatedLaborHours,
		},
		CreatedAt:   batch.CreatedAt,
		UpdatedAt:   batch.UpdatedAt,
		CompletedAt: batch.CompletedAt,
	}
}

// ToBatchListDTOs converts domain Batches to simplified list DTOs
func ToBatchListDTOs(batches []*domain.Batch) []BatchListDTO {
	dtos := make([]BatchListDTO, 0, len(batches))
	for _, b := range batches {
		dtos = append(dtos, BatchListDTO{
			BatchID:       b.BatchID,
			BatchType:     string(b.Type),
			RecipeName:    b.Recipe.Resolved(),
			Status:        string(b.Status),
			ScheduledDate: b.ScheduledDate,
			DurationDays:  b.DurationDays,
			AssignedTo:    b.AssignedTo,
			TierCount:     b.Aggregates.TierCount,
			TotalServings: b.Aggregates.TotalServings,
			CreatedAt:     b.CreatedAt,
		})
	}
	return dtos
}

// ToCandidateGroupDTOs converts candidate groups, attaching the display
// color from batch type configuration
func ToCandidateGroupDTOs(groups []CandidateGroup, configs domain.BatchTypeConfigProvider) []CandidateGroupDTO {
	dtos := make([]CandidateGroupDTO, 0, len(groups))
	for _, g := range groups {
		color := ""
		if cfg, ok := configs.Get(g.BatchType); ok {
			color = cfg.Color
		}
		dtos = append(dtos, CandidateGroupDTO{
			BatchType:    string(g.BatchType),
			RecipeID:     g.Recipe.RecipeID,
			RecipeName:   g.Recipe.Resolved(),
			RecipeKey:    g.RecipeKey,
			EarliestDue:  g.EarliestDue,
			TierIDs:      g.TierIDs(),
			StockTaskIDs: g.TaskIDs(),
			Aggregates:   g.Aggregates,
			Color:        color,
		})
	}
	return dtos
}
