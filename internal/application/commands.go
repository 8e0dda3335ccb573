package application

import (
	"time"

	"github.com/bakery-platform/batching-service/internal/domain"
)

// CreateBatchCommand represents the command to create a batch from a
// selection of tiers and stock tasks
type CreateBatchCommand struct {
	BatchType    string
	Recipe       domain.RecipeRef
	Date         *time.Time
	TierIDs      []string
	StockTaskIDs []string
	AssignedTo   string
	Notes        string
}

// RescheduleBatchCommand represents the command to move a batch to a new
// date, optionally spanning several days
type RescheduleBatchCommand struct {
	BatchID      string
	Date         time.Time
	DurationDays int
}

// MergeBatchesCommand represents the command to merge source into target
type MergeBatchesCommand struct {
	SourceBatchID string
	TargetBatchID string
}

// RemoveMembersCommand represents the command to detach tiers from a batch
type RemoveMembersCommand struct {
	BatchID string
	TierIDs []string
}

// DeleteBatchCommand represents the command to delete a batch
type DeleteBatchCommand struct {
	BatchID string
	Reason  string
}

// UpdateBatchAttributesCommand represents a pure attribute update. Nil
// fields are left unchanged; no membership or merge logic is triggered.
type UpdateBatchAttributesCommand struct {
	BatchID      string
	DurationDays *int
	Notes        *string
	AssignedTo   *string
}

// GetBatchQuery represents the query to get a batch by ID
type GetBatchQuery struct {
	BatchID string
}

// ListBatchesQuery represents the query to list batches with filters
type ListBatchesQuery struct {
	From     *time.Time
	To       *time.Time
	Status   string
	TierID   string
	Page     int64
	PageSize int64
}

// PlanningWindow is the date range for grouping and scheduling reads
type PlanningWindow struct {
	From time.Time
	To   time.Time
}
