package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrBatchEmpty         = errors.New("batch must contain at least one tier or stock task")
	ErrInvalidBatchType   = errors.New("invalid batch type")
	ErrTierAlreadyInBatch = errors.New("tier is already in this batch")
	ErrTierNotInBatch     = errors.New("tier not found in batch")
	ErrTaskAlreadyInBatch = errors.New("stock task is already in this batch")
	ErrBatchCompleted     = errors.New("batch is already completed")
	ErrMergeTypeMismatch  = errors.New("batches of different types cannot be merged")
	ErrBatchNotScheduled  = errors.New("batch has no scheduled date")
)

// BatchType is the production step a batch represents. The set is open:
// custom steps may be introduced through configuration, but these five are
// the standard pipeline.
type BatchType string

const (
	BatchTypeBake     BatchType = "bake"
	BatchTypePrep     BatchType = "prep"
	BatchTypeStack    BatchType = "stack"
	BatchTypeAssemble BatchType = "assemble"
	BatchTypeDecorate BatchType = "decorate"
)

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusDraft      BatchStatus = "draft"
	BatchStatusScheduled  BatchStatus = "scheduled"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
)

// BatchTier is a tier's membership in a batch, carrying a snapshot of the
// quantities it contributes so aggregates can be recomputed without a join.
type BatchTier struct {
	TierID         string          `bson:"tierId" json:"tierId"`
	OrderID        string          `bson:"orderId" json:"orderId"`
	Position       int             `bson:"position" json:"position"`
	Servings       int             `bson:"servings" json:"servings"`
	SurfaceAreaCm2 float64         `bson:"surfaceAreaCm2" json:"surfaceAreaCm2"`
	FrostingMassG  float64         `bson:"frostingMassG" json:"frostingMassG"`
	FinishName     string          `bson:"finishName,omitempty" json:"finishName,omitempty"`
	DueDate        time.Time       `bson:"dueDate" json:"dueDate"`
	Fulfillment    FulfillmentMode `bson:"fulfillment,omitempty" json:"fulfillment,omitempty"`
	AddedAt        time.Time       `bson:"addedAt" json:"addedAt"`
}

// BatchStockTask is a stock task's membership in a batch
type BatchStockTask struct {
	TaskID   string    `bson:"taskId" json:"taskId"`
	ItemName string    `bson:"itemName" json:"itemName"`
	Quantity int       `bson:"quantity" json:"quantity"`
	MassG    float64   `bson:"massG" json:"massG"`
	DueDate  time.Time `bson:"dueDate" json:"dueDate"`
	AddedAt  time.Time `bson:"addedAt" json:"addedAt"`
}

// BatchAggregates are the derived totals recomputed from members.
// MemberCount is persisted so the storage layer's partial unique index can
// exclude empty batches from the slot uniqueness rule.
type BatchAggregates struct {
	MemberCount         int     `bson:"memberCount" json:"memberCount"`
	TierCount           int     `bson:"tierCount" json:"tierCount"`
	StockTaskCount      int     `bson:"stockTaskCount" json:"stockTaskCount"`
	TotalServings       int     `bson:"totalServings" json:"totalServings"`
	TotalSurfaceAreaCm2 float64 `bson:"totalSurfaceAreaCm2" json:"totalSurfaceAreaCm2"`
	TotalMassG          float64 `bson:"totalMassG" json:"totalMassG"`
	EstimatedLaborHours float64 `bson:"estimatedLaborHours" json:"estimatedLaborHours"`
}

// Batch is the aggregate root for a scheduled unit of production work.
// At most one non-empty batch may exist per (type, recipe key, date); the
// repository enforces this with a unique index and the application service
// resolves collisions by merging.
type Batch struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	BatchID       string             `bson:"batchId" json:"batchId"`
	Type          BatchType          `bson:"batchType" json:"batchType"`
	Recipe        RecipeRef          `bson:"recipe" json:"recipe"`
	RecipeKey     string             `bson:"recipeKey" json:"recipeKey"`
	Status        BatchStatus        `bson:"status" json:"status"`
	ScheduledDate *time.Time         `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	DurationDays  int                `bson:"durationDays" json:"durationDays"`
	AssignedTo    string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Tiers         []BatchTier        `bson:"tiers" json:"tiers"`
	StockTasks    []BatchStockTask   `bson:"stockTasks" json:"stockTasks"`
	Aggregates    BatchAggregates    `bson:"aggregates" json:"aggregates"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	DomainEvents  []DomainEvent      `bson:"-" json:"-"` // Transient
}

// ScheduleKey identifies the slot a batch occupies for the uniqueness rule
type ScheduleKey struct {
	Type      BatchType
	RecipeKey string
	Date      time.Time // zero for unscheduled batches
}

func (k ScheduleKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Type, k.RecipeKey, k.Date.Format(time.DateOnly))
}

// NewBatch creates a new Batch aggregate. A nil date produces a draft batch;
// a date produces a scheduled one.
func NewBatch(batchID string, batchType BatchType, recipe RecipeRef, recipeKey string, date *time.Time) (*Batch, error) {
	if strings.TrimSpace(string(batchType)) == "" {
		return nil, ErrInvalidBatchType
	}
	if recipeKey == "" {
		return nil, errors.New("batch requires a recipe identity")
	}

	now := time.Now()
	status := BatchStatusDraft
	var scheduled *time.Time
	if date != nil {
		d := DateOnly(*date)
		scheduled = &d
		status = BatchStatusScheduled
	}

	batch := &Batch{
		BatchID:       batchID,
		Type:          batchType,
		Recipe:        recipe,
		RecipeKey:     recipeKey,
		Status:        status,
		ScheduledDate: scheduled,
		DurationDays:  1,
		Tiers:         make([]BatchTier, 0),
		StockTasks:    make([]BatchStockTask, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
		DomainEvents:  make([]DomainEvent, 0),
	}

	batch.AddDomainEvent(&BatchCreatedEvent{
		BatchID:   batchID,
		BatchType: string(batchType),
		Recipe:    recipe.Resolved(),
		Date:      scheduled,
		CreatedAt: now,
	})

	return batch, nil
}

// Key returns the uniqueness key this batch occupies
func (b *Batch) Key() ScheduleKey {
	k := ScheduleKey{Type: b.Type, RecipeKey: b.RecipeKey}
	if b.ScheduledDate != nil {
		k.Date = *b.ScheduledDate
	}
	return k
}

// IsEmpty reports whether the batch has no members
func (b *Batch) IsEmpty() bool {
	return len(b.Tiers) == 0 && len(b.StockTasks) == 0
}

// MemberCount returns the number of members (tiers plus stock tasks)
func (b *Batch) MemberCount() int {
	return len(b.Tiers) + len(b.StockTasks)
}

// HasTier reports whether a tier is a member of this batch
func (b *Batch) HasTier(tierID string) bool {
	for _, t := range b.Tiers {
		if t.TierID == tierID {
			return true
		}
	}
	return false
}

// AddTier adds a tier membership to the batch
func (b *Batch) AddTier(member BatchTier) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if b.HasTier(member.TierID) {
		return ErrTierAlreadyInBatch
	}

	member.AddedAt = time.Now()
	b.Tiers = append(b.Tiers, member)
	b.touch()

	b.AddDomainEvent(&MembersAddedEvent{
		BatchID: b.BatchID,
		TierIDs: []string{member.TierID},
		AddedAt: member.AddedAt,
	})

	return nil
}

// AddStockTask adds a stock task membership to the batch
func (b *Batch) AddStockTask(member BatchStockTask) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	for _, t := range b.StockTasks {
		if t.TaskID == member.TaskID {
			return ErrTaskAlreadyInBatch
		}
	}

	member.AddedAt = time.Now()
	b.StockTasks = append(b.StockTasks, member)
	b.touch()

	b.AddDomainEvent(&MembersAddedEvent{
		BatchID: b.BatchID,
		TaskIDs: []string{member.TaskID},
		AddedAt: member.AddedAt,
	})

	return nil
}

// RemoveTiers detaches the given tiers from the batch, returning the ids
// actually removed. Unknown ids are ignored: removing a tier that is not a
// member is a no-op, not an error.
func (b *Batch) RemoveTiers(tierIDs []string) []string {
	if len(tierIDs) == 0 {
		return nil
	}

	requested := make(map[string]bool, len(tierIDs))
	for _, id := range tierIDs {
		requested[id] = true
	}

	var removed []string
	kept := b.Tiers[:0]
	for _, t := range b.Tiers {
		if requested[t.TierID] {
			removed = append(removed, t.TierID)
			continue
		}
		kept = append(kept, t)
	}
	b.Tiers = kept

	if len(removed) > 0 {
		b.touch()
		b.AddDomainEvent(&MembersRemovedEvent{
			BatchID:   b.BatchID,
			TierIDs:   removed,
			RemovedAt: time.Now(),
		})
	}

	return removed
}

// MergeFrom moves every member of source into this batch. Members already
// present are skipped so the operation is idempotent. Source is left empty;
// deleting it is the caller's responsibility.
func (b *Batch) MergeFrom(source *Batch) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if source.Type != b.Type {
		return ErrMergeTypeMismatch
	}

	now := time.Now()
	var movedTiers, movedTasks []string

	for _, t := range source.Tiers {
		if b.HasTier(t.TierID) {
			continue
		}
		t.AddedAt = now
		b.Tiers = append(b.Tiers, t)
		movedTiers = append(movedTiers, t.TierID)
	}

	existing := make(map[string]bool, len(b.StockTasks))
	for _, t := range b.StockTasks {
		existing[t.TaskID] = true
	}
	for _, t := range source.StockTasks {
		if existing[t.TaskID] {
			continue
		}
		t.AddedAt = now
		b.StockTasks = append(b.StockTasks, t)
		movedTasks = append(movedTasks, t.TaskID)
	}

	source.Tiers = source.Tiers[:0]
	source.StockTasks = source.StockTasks[:0]
	source.recompute()

	b.touch()
	b.AddDomainEvent(&BatchesMergedEvent{
		SourceBatchID: source.BatchID,
		TargetBatchID: b.BatchID,
		TierIDs:       movedTiers,
		TaskIDs:       movedTasks,
		MergedAt:      now,
	})

	return nil
}

// Reschedule moves the batch to a new date, optionally spanning several days
func (b *Batch) Reschedule(date time.Time, durationDays int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if durationDays < 1 {
		durationDays = 1
	}

	previous := b.ScheduledDate
	d := DateOnly(date)
	b.ScheduledDate = &d
	b.DurationDays = durationDays
	if b.Status == BatchStatusDraft {
		b.Status = BatchStatusScheduled
	}
	b.touch()

	b.AddDomainEvent(&BatchRescheduledEvent{
		BatchID:       b.BatchID,
		PreviousDate:  previous,
		NewDate:       d,
		DurationDays:  durationDays,
		RescheduledAt: time.Now(),
	})

	return nil
}

// StartProgress marks the batch as in progress
func (b *Batch) StartProgress() error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if b.ScheduledDate == nil {
		return ErrBatchNotScheduled
	}
	b.Status = BatchStatusInProgress
	b.touch()
	return nil
}

// Complete marks the batch as completed
func (b *Batch) Complete() error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}

	now := time.Now()
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
	b.touch()

	b.AddDomainEvent(&BatchCompletedEvent{
		BatchID:     b.BatchID,
		CompletedAt: now,
		TierCount:   len(b.Tiers),
	})

	return nil
}

// SetNotes updates the free-text notes
func (b *Batch) SetNotes(notes string) {
	b.Notes = notes
	b.touch()
}

// AssignTo sets the staff member responsible for the batch
func (b *Batch) AssignTo(staffRef string) {
	b.AssignedTo = staffRef
	b.touch()
}

// SetDuration sets the duration in days for multi-day batches
func (b *Batch) SetDuration(days int) {
	if days < 1 {
		days = 1
	}
	b.DurationDays = days
	b.touch()
}

// EarliestDueDate returns the earliest due date among members, or zero when
// the batch is empty
func (b *Batch) EarliestDueDate() time.Time {
	var earliest time.Time
	for _, t := range b.Tiers {
		if earliest.IsZero() || t.DueDate.Before(earliest) {
			earliest = t.DueDate
		}
	}
	for _, t := range b.StockTasks {
		if earliest.IsZero() || t.DueDate.Before(earliest) {
			earliest = t.DueDate
		}
	}
	return earliest
}

// touch recomputes aggregates and bumps UpdatedAt after any mutation
func (b *Batch) touch() {
	b.recompute()
	b.UpdatedAt = time.Now()
}

func (b *Batch) recompute() {
	agg := BatchAggregates{
		MemberCount:    len(b.Tiers) + len(b.StockTasks),
		TierCount:      len(b.Tiers),
		StockTaskCount: len(b.StockTasks),
	}

	laborSum := 0.0
	for _, t := range b.Tiers {
		agg.TotalServings += t.Servings
		agg.TotalSurfaceAreaCm2 += t.SurfaceAreaCm2
		agg.TotalMassG += t.FrostingMassG
		laborSum += float64(t.Servings)/10 + finishBonus(t.FinishName)
	}
	for _, t := range b.StockTasks {
		agg.TotalMassG += t.MassG
	}

	if len(b.Tiers) > 0 {
		agg.EstimatedLaborHours = math.Max(minLaborHours, math.Round(laborSum*2)/2)
	}

	b.Aggregates = agg
}

// AddDomainEvent adds a domain event
func (b *Batch) AddDomainEvent(event DomainEvent) {
	b.DomainEvents = append(b.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (b *Batch) ClearDomainEvents() {
	b.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (b *Batch) GetDomainEvents() []DomainEvent {
	return b.DomainEvents
}
