package domain

import (
	"context"
	"time"
)

// BatchRepository defines the persistence interface for Batch aggregates
type BatchRepository interface {
	// Save persists a batch (insert or update). When the batch's schedule
	// key collides with another non-empty batch, Save returns a conflict
	// error carrying the occupying batch's id.
	Save(ctx context.Context, batch *Batch) error

	// SaveAndDelete atomically persists a merge target and removes the
	// absorbed source batch. Either both changes land or neither does.
	SaveAndDelete(ctx context.Context, batch *Batch, deleteBatchID string) error

	// FindByID retrieves a batch by its business identifier
	FindByID(ctx context.Context, batchID string) (*Batch, error)

	// FindByKey retrieves the non-empty batch occupying a schedule slot,
	// or nil when the slot is free
	FindByKey(ctx context.Context, key ScheduleKey) (*Batch, error)

	// FindByDateRange retrieves batches scheduled within [from, to]
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*Batch, error)

	// FindByStatus retrieves batches with the given status
	FindByStatus(ctx context.Context, status BatchStatus, limit int) ([]*Batch, error)

	// FindAll retrieves batches with pagination
	FindAll(ctx context.Context, offset, limit int) ([]*Batch, int64, error)

	// FindContainingTier retrieves every batch holding the given tier
	FindContainingTier(ctx context.Context, tierID string) ([]*Batch, error)

	// Delete removes a batch by its business identifier
	Delete(ctx context.Context, batchID string) error
}

// TierProvider supplies the tiers eligible for batching. Backed by the order
// service's read model.
type TierProvider interface {
	// UnbatchedTiers returns tiers due within [from, to] that are not yet
	// a member of any batch of the given type
	UnbatchedTiers(ctx context.Context, from, to time.Time) ([]Tier, error)

	// TiersByIDs resolves tiers by id. Unknown ids are omitted from the
	// result, not errors.
	TiersByIDs(ctx context.Context, tierIDs []string) ([]Tier, error)
}

// StockTaskProvider supplies open stock production tasks
type StockTaskProvider interface {
	OpenTasks(ctx context.Context, from, to time.Time) ([]StockTask, error)

	// TasksByIDs resolves stock tasks by id. Unknown ids are omitted.
	TasksByIDs(ctx context.Context, taskIDs []string) ([]StockTask, error)
}

// StaffProvider resolves staff references for batch assignment
type StaffProvider interface {
	// Exists reports whether the staff reference is valid
	Exists(ctx context.Context, staffRef string) (bool, error)
}

// EventPublisher publishes domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, events []DomainEvent) error
}
