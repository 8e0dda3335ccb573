package application

import (
	"context"
	"sync"
	"time"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/errors"
	"github.com/bakery-platform/batching-service/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("batching-service-test")
	cfg.Level = logging.LevelError
	return logging.New(cfg)
}

// fakeBatchRepo is an in-memory BatchRepository enforcing the same slot
// uniqueness rule as the Mongo implementation
type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[string]*domain.Batch
	failOn  func(batch *domain.Batch) error
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[string]*domain.Batch)}
}

func (r *fakeBatchRepo) Save(ctx context.Context, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failOn != nil {
		if err := r.failOn(batch); err != nil {
			return err
		}
	}

	if !batch.IsEmpty() && batch.ScheduledDate != nil {
		key := batch.Key().String()
		for _, other := range r.batches {
			if other.BatchID == batch.BatchID || other.IsEmpty() || other.ScheduledDate == nil {
				continue
			}
			if other.Key().String() == key {
				return errors.ErrConflictWithBatch("batch slot already occupied", other.BatchID)
			}
		}
	}

	r.batches[batch.BatchID] = batch
	return nil
}

func (r *fakeBatchRepo) SaveAndDelete(ctx context.Context, batch *domain.Batch, deleteBatchID string) error {
	r.mu.Lock()
	removed, had := r.batches[deleteBatchID]
	delete(r.batches, deleteBatchID)
	r.mu.Unlock()

	if err := r.Save(ctx, batch); err != nil {
		if had {
			r.mu.Lock()
			r.batches[deleteBatchID] = removed
			r.mu.Unlock()
		}
		return err
	}
	return nil
}

func (r *fakeBatchRepo) FindByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[batchID], nil
}

func (r *fakeBatchRepo) FindByKey(ctx context.Context, key domain.ScheduleKey) (*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if !b.IsEmpty() && b.ScheduledDate != nil && b.Key().String() == key.String() {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBatchRepo) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Batch
	for _, b := range r.batches {
		if b.ScheduledDate == nil {
			continue
		}
		if !b.ScheduledDate.Before(from) && !b.ScheduledDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) FindByStatus(ctx context.Context, status domain.BatchStatus, limit int) ([]*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Batch
	for _, b := range r.batches {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) FindAll(ctx context.Context, offset, limit int) ([]*domain.Batch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Batch
	for _, b := range r.batches {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBatchRepo) FindContainingTier(ctx context.Context, tierID string) ([]*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Batch
	for _, b := range r.batches {
		if b.HasTier(tierID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) Delete(ctx context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, batchID)
	return nil
}

func (r *fakeBatchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// fakeTierProvider serves a fixed tier set
type fakeTierProvider struct {
	tiers []domain.Tier
	err   error
}

func (p *fakeTierProvider) UnbatchedTiers(ctx context.Context, from, to time.Time) ([]domain.Tier, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.tiers, nil
}

func (p *fakeTierProvider) TiersByIDs(ctx context.Context, tierIDs []string) ([]domain.Tier, error) {
	if p.err != nil {
		return nil, p.err
	}
	want := make(map[string]bool, len(tierIDs))
	for _, id := range tierIDs {
		want[id] = true
	}
	var out []domain.Tier
	for _, t := range p.tiers {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeStockTaskProvider serves a fixed stock task set
type fakeStockTaskProvider struct {
	tasks []domain.StockTask
}

func (p *fakeStockTaskProvider) OpenTasks(ctx context.Context, from, to time.Time) ([]domain.StockTask, error) {
	return p.tasks, nil
}

func (p *fakeStockTaskProvider) TasksByIDs(ctx context.Context, taskIDs []string) ([]domain.StockTask, error) {
	want := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		want[id] = true
	}
	var out []domain.StockTask
	for _, t := range p.tasks {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// capturingPublisher records published domain events
type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events []domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func dueDate(day int) time.Time {
	return time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC)
}

func cakeTier(id, batter, frosting string, servings, dueDay int) domain.Tier {
	return domain.Tier{
		ID:       id,
		OrderID:  "order-" + id,
		Position: 1,
		Size: domain.SizeSpec{
			Shape:      domain.ShapeRound,
			Servings:   servings,
			DiameterCm: 20,
			HeightCm:   10,
		},
		Batter:     domain.RecipeRef{RecipeName: batter},
		Frosting:   domain.RecipeRef{RecipeName: frosting},
		Complexity: domain.ComplexityMedium,
		DueDate:    dueDate(dueDay),
	}
}

func newTestService(repo *fakeBatchRepo, tiers *fakeTierProvider, tasks *fakeStockTaskProvider, publisher domain.EventPublisher) *BatchService {
	return NewBatchService(
		repo,
		tiers,
		tasks,
		nil,
		publisher,
		domain.ResolvedNameResolver{},
		domain.NewStaticConfigProvider(domain.DefaultBatchTypeConfigs()),
		domain.DefaultFrostingFactors(),
		nil,
		testLogger(),
	)
}
