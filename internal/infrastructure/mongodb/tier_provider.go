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

// TierProvider implements domain.TierProvider against the tiers read model,
// a collection replicated from the order service. Queries run behind a
// circuit breaker so a struggling replica degrades planning reads fast
// instead of queueing them.
type TierProvider struct {
	tiers   *mongo.Collection
	batches *mongo.Collection
	breaker *resilience.CircuitBreaker
}

// NewTierProvider creates a new TierProvider
func NewTierProvider(db *mongo.Database, logger *logging.Logger) *TierProvider {
	return &TierProvider{
		tiers:   db.Collection("tiers"),
		batches: db.Collection("batches"),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("tier-reads"), logger.Logger),
	}
}

// UnbatchedTiers returns tiers due within the window that no batch holds
func (p *TierProvider) UnbatchedTiers(ctx context.Context, from, to time.Time) ([]domain.Tier, error) {
	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		batchedIDs, err := p.batchedTierIDs(ctx)
		if err != nil {
			return nil, err
		}

		filter := bson.M{
			"dueDate": bson.M{"$gte": from, "$lte": to},
		}
		if len(batchedIDs) > 0 {
			filter["tierId"] = bson.M{"$nin": batchedIDs}
		}

		opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "tierId", Value: 1}})
		cursor, err := p.tiers.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var tiers []domain.Tier
		if err := cursor.All(ctx, &tiers); err != nil {
			return nil, err
		}
		return tiers, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query unbatched tiers: %w", err)
	}
	return result.([]domain.Tier), nil
}

// TiersByIDs resolves tiers by id, omitting unknown ids
func (p *TierProvider) TiersByIDs(ctx context.Context, tierIDs []string) ([]domain.Tier, error) {
	if len(tierIDs) == 0 {
		return nil, nil
	}

	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		cursor, err := p.tiers.Find(ctx, bson.M{"tierId": bson.M{"$in": tierIDs}})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var tiers []domain.Tier
		if err := cursor.All(ctx, &tiers); err != nil {
			return nil, err
		}
		return tiers, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tiers: %w", err)
	}
	return result.([]domain.Tier), nil
}

// batchedTierIDs collects the tier ids held by any batch. Tiers in a batch
// of one type may still be unbatched for another type; the grouping engine
// keys per type, so this coarse filter only excludes fully planned tiers.
func (p *TierProvider) batchedTierIDs(ctx context.Context) ([]string, error) {
	// One entry per production type means a tier is fully planned once
	// every batchable type holds it. Distinct tiers held by bake batches
	// is the pragmatic filter: bake is the entry point of the pipeline.
	ids, err := p.batches.Distinct(ctx, "tiers.tierId", bson.M{"batchType": domain.BatchTypeBake})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := id.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
