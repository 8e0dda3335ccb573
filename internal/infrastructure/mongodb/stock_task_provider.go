package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/logging"
	"github.com/bakery-platform/batching-service/pkg/resilience"
)

// StockTaskProvider implements domain.StockTaskProvider against the stock
// tasks read model
type StockTaskProvider struct {
	tasks   *mongo.Collection
	batches *mongo.Collection
	breaker *resilience.CircuitBreaker
}

// NewStockTaskProvider creates a new StockTaskProvider
func NewStockTaskProvider(db *mongo.Database, logger *logging.Logger) *StockTaskProvider {
	return &StockTaskProvider{
		tasks:   db.Collection("stock_tasks"),
		batches: db.Collection("batches"),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("stock-task-reads"), logger.Logger),
	}
}

// OpenTasks returns stock tasks dated within the window that no batch holds
func (p *StockTaskProvider) OpenTasks(ctx context.Context, from, to time.Time) ([]domain.StockTask, error) {
	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		batched, err := p.batches.Distinct(ctx, "stockTasks.taskId", bson.M{})
		if err != nil {
			return nil, err
		}
		batchedIDs := make([]string, 0, len(batched))
		for _, id := range batched {
			if s, ok := id.(string); ok {
				batchedIDs = append(batchedIDs, s)
			}
		}

		filter := bson.M{
			"date": bson.M{"$gte": from, "$lte": to},
		}
		if len(batchedIDs) > 0 {
			filter["taskId"] = bson.M{"$nin": batchedIDs}
		}

		opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "taskId", Value: 1}})
		cursor, err := p.tasks.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var tasks []domain.StockTask
		if err := cursor.All(ctx, &tasks); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query open stock tasks: %w", err)
	}
	return result.([]domain.StockTask), nil
}

// TasksByIDs resolves stock tasks by id, omitting unknown ids
func (p *StockTaskProvider) TasksByIDs(ctx context.Context, taskIDs []string) ([]domain.StockTask, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		cursor, err := p.tasks.Find(ctx, bson.M{"taskId": bson.M{"$in": taskIDs}})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var tasks []domain.StockTask
		if err := cursor.All(ctx, &tasks); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stock tasks: %w", err)
	}
	return result.([]domain.StockTask), nil
}
