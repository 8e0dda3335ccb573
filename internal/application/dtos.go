package application

import "time"

// BatchDTO represents a batch in responses
type BatchDTO struct {
	BatchID       string              `json:"batchId"`
	BatchType     string              `json:"batchType"`
	RecipeID      string              `json:"recipeId,omitempty"`
	RecipeName    string              `json:"recipeName"`
	RecipeKey     string              `json:"recipeKey"`
	Status        string              `json:"status"`
	ScheduledDate *time.Time          `json:"scheduledDate,omitempty"`
	DurationDays  int                 `json:"durationDays"`
	AssignedTo    string              `json:"assignedTo,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Tiers         []BatchTierDTO      `json:"tiers"`
	StockTasks    []BatchStockTaskDTO `json:"stockTasks"`
	Aggregates    BatchAggregatesDTO  `json:"aggregates"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	CompletedAt   *time.Time          `json:"completedAt,omitempty"`
}

// BatchTierDTO represents a tier membership in responses
type BatchTierDTO struct {
	TierID         string    `json:"tierId"`
	OrderID        string    `json:"orderId"`
	Position       int       `json:"position"`
	Servings       int       `json:"servings"`
	SurfaceAreaCm2 float64   `json:"surfaceAreaCm2"`
	FrostingMassG  float64   `json:"frostingMassG"`
	FinishName     string    `json:"finishName,omitempty"`
	DueDate        time.Time `json:"dueDate"`
	Fulfillment    string    `json:"fulfillment,omitempty"`
	AddedAt        time.Time `json:"addedAt"`
}

// BatchStockTaskDTO represents a stock task membership in responses
type BatchStockTaskDTO struct {
	TaskID   string    `json:"taskId"`
	ItemName string    `json:"itemName"`
	Quantity int       `json:"quantity"`
	MassG    float64   `json:"massG"`
	DueDate  time.Time `json:"dueDate"`
	AddedAt  time.Time `json:"addedAt"`
}

// BatchAggregatesDTO represents derived batch totals
type BatchAggregatesDTO struct {
	TierCount           int     `json:"tierCount"`
	StockTaskCount      int     `json:"stockTaskCount"`
	TotalServings       int     `json:"totalServings"`
	TotalSurfaceAreaCm2 float64 `json:"totalSurfaceAreaCm2"`
	TotalMassG          float64 `json:"totalMassG"`
	EstimatedLaborHours float64 `json:"estimatedLaborHours"`
}

// BatchListDTO represents a simplified batch for list operations
type BatchListDTO struct {
	BatchID       string     `json:"batchId"`
	BatchType     string     `json:"batchType"`
	RecipeName    string     `json:"recipeName"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	DurationDays  int        `json:"durationDays"`
	AssignedTo    string     `json:"assignedTo,omitempty"`
	TierCount     int        `json:"tierCount"`
	TotalServings int        `json:"totalServings"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CandidateGroupDTO represents one prospective batch for display
type CandidateGroupDTO struct {
	BatchType    string          `json:"batchType"`
	RecipeID     string          `json:"recipeId,omitempty"`
	RecipeName   string          `json:"recipeName"`
	RecipeKey    string          `json:"recipeKey"`
	EarliestDue  time.Time       `json:"earliestDue"`
	TierIDs      []string        `json:"tierIds"`
	StockTaskIDs []string        `json:"stockTaskIds"`
	Aggregates   GroupAggregates `json:"aggregates"`
	Color        string          `json:"color,omitempty"`
}

// RescheduleResultDTO reports the outcome of a reschedule, including the
// merge that happens when the target date is already occupied
type RescheduleResultDTO struct {
	Batch        *BatchDTO `json:"batch"`
	Merged       bool      `json:"merged"`
	MergedIntoID string    `json:"mergedIntoId,omitempty"`
}

// RemoveMembersResultDTO reports the outcome of a member removal. Batch is
// nil when the batch was deleted (emptied) or already gone.
type RemoveMembersResultDTO struct {
	Batch        *BatchDTO `json:"batch"`
	Deleted      bool      `json:"deleted"`
	RemovedCount int       `json:"removedCount"`
}

// SuggestionApplyResult is the per-suggestion outcome of a bulk apply
type SuggestionApplyResult struct {
	Index     int    `json:"index"`
	BatchType string `json:"batchType"`
	RecipeKey string `json:"recipeKey"`
	BatchID   string `json:"batchId,omitempty"`
	Merged    bool   `json:"merged"`
	Error     string `json:"error,omitempty"`
}

// ApplySuggestionsResultDTO reports a bulk apply. Earlier successes are
// never rolled back by later failures.
type ApplySuggestionsResultDTO struct {
	Results   []SuggestionApplyResult `json:"results"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
}
