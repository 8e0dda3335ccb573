package domain

import "time"

// DomainEvent is the interface implemented by all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BatchCreatedEvent is emitted when a new batch is created
type BatchCreatedEvent struct {
	BatchID   string     `json:"batchId"`
	BatchType string     `json:"batchType"`
	Recipe    string     `json:"recipe"`
	Date      *time.Time `json:"date,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (e *BatchCreatedEvent) EventType() string     { return "bakery.batch.created" }
func (e *BatchCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// MembersAddedEvent is emitted when tiers or stock tasks join a batch
type MembersAddedEvent struct {
	BatchID string    `json:"batchId"`
	TierIDs []string  `json:"tierIds,omitempty"`
	TaskIDs []string  `json:"taskIds,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

func (e *MembersAddedEvent) EventType() string     { return "bakery.batch.members_added" }
func (e *MembersAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// MembersRemovedEvent is emitted when tiers or stock tasks leave a batch
type MembersRemovedEvent struct {
	BatchID   string    `json:"batchId"`
	TierIDs   []string  `json:"tierIds,omitempty"`
	TaskIDs   []string  `json:"taskIds,omitempty"`
	RemovedAt time.Time `json:"removedAt"`
}

func (e *MembersRemovedEvent) EventType() string     { return "bakery.batch.members_removed" }
func (e *MembersRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// BatchRescheduledEvent is emitted when a batch moves to a new date
type BatchRescheduledEvent struct {
	BatchID       string     `json:"batchId"`
	PreviousDate  *time.Time `json:"previousDate,omitempty"`
	NewDate       time.Time  `json:"newDate"`
	DurationDays  int        `json:"durationDays"`
	RescheduledAt time.Time  `json:"rescheduledAt"`
}

func (e *BatchRescheduledEvent) EventType() string     { return "bakery.batch.rescheduled" }
func (e *BatchRescheduledEvent) OccurredAt() time.Time { return e.RescheduledAt }

// BatchesMergedEvent is emitted when a batch absorbs another batch's members
type BatchesMergedEvent struct {
	SourceBatchID string    `json:"sourceBatchId"`
	TargetBatchID string    `json:"targetBatchId"`
	TierIDs       []string  `json:"tierIds,omitempty"`
	TaskIDs       []string  `json:"taskIds,omitempty"`
	MergedAt      time.Time `json:"mergedAt"`
}

func (e *BatchesMergedEvent) EventType() string     { return "bakery.batch.merged" }
func (e *BatchesMergedEvent) OccurredAt() time.Time { return e.MergedAt }

// BatchDeletedEvent is emitted when a batch is removed
type BatchDeletedEvent struct {
	BatchID   string    `json:"batchId"`
	Reason    string    `json:"reason"`
	DeletedAt time.Time `json:"deletedAt"`
}

func (e *BatchDeletedEvent) EventType() string     { return "bakery.batch.deleted" }
func (e *BatchDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }

// BatchCompletedEvent is emitted when a batch finishes production
type BatchCompletedEvent struct {
	BatchID     string    `json:"batchId"`
	CompletedAt time.Time `json:"completedAt"`
	TierCount   int       `json:"tierCount"`
}

func (e *BatchCompletedEvent) EventType() string     { return "bakery.batch.completed" }
func (e *BatchCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
