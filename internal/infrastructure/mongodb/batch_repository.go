package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/errors"
	"github.com/bakery-platform/batching-service/pkg/metrics"
)

// BatchRepository implements domain.BatchRepository using MongoDB.
//
// The slot uniqueness rule (one non-empty batch per type, recipe and date)
// is enforced with a partial unique index, so it holds across service
// instances without coordination. A duplicate key on save is translated to
// a conflict error carrying the occupying batch's id so the caller can
// merge into it.
type BatchRepository struct {
	collection *mongo.Collection
	db         *mongo.Database
	metrics    *metrics.Metrics
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *mongo.Database, m *metrics.Metrics) *BatchRepository {
	repo := &BatchRepository{
		collection: db.Collection("batches"),
		db:         db,
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// ensureIndexes creates the necessary indexes
func (r *BatchRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "batchId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Slot uniqueness: empty and unscheduled batches are excluded
			Keys: bson.D{
				{Key: "batchType", Value: 1},
				{Key: "recipeKey", Value: 1},
				{Key: "scheduledDate", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_slot_nonempty").
				SetPartialFilterExpression(bson.D{
					{Key: "aggregates.memberCount", Value: bson.D{{Key: "$gt", Value: 0}}},
					{Key: "scheduledDate", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledDate", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "tiers.tierId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a batch, translating a slot collision into a conflict
func (r *BatchRepository) Save(ctx context.Context, batch *domain.Batch) error {
	batch.UpdatedAt = time.Now()
	start := time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"batchId": batch.BatchID}
	update := bson.M{"$set": batch}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	r.recordOperation("save", start, err == nil)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.slotConflict(ctx, batch)
		}
		return fmt.Errorf("failed to save batch: %w", err)
	}

	return nil
}

// SaveAndDelete atomically persists a merge target and removes the absorbed
// source batch
func (r *BatchRepository) SaveAndDelete(ctx context.Context, batch *domain.Batch, deleteBatchID string) error {
	batch.UpdatedAt = time.Now()
	start := time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.DeleteOne(sessCtx, bson.M{"batchId": deleteBatchID}); err != nil {
			return nil, fmt.Errorf("failed to delete absorbed batch: %w", err)
		}

		opts := options.Update().SetUpsert(true)
		filter := bson.M{"batchId": batch.BatchID}
		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": batch}, opts); err != nil {
			return nil, fmt.Errorf("failed to save merge target: %w", err)
		}

		return nil, nil
	})
	r.recordOperation("saveAndDelete", start, err == nil)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.slotConflict(ctx, batch)
		}
		return fmt.Errorf("merge transaction failed: %w", err)
	}

	return nil
}

// FindByID retrieves a batch by its business identifier
func (r *BatchRepository) FindByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	var batch domain.Batch
	err := r.collection.FindOne(ctx, bson.M{"batchId": batchID}).Decode(&batch)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// FindByKey retrieves the non-empty batch occupying a schedule slot
func (r *BatchRepository) FindByKey(ctx context.Context, key domain.ScheduleKey) (*domain.Batch, error) {
	filter := bson.M{
		"batchType":              key.Type,
		"recipeKey":              key.RecipeKey,
		"scheduledDate":          key.Date,
		"aggregates.memberCount": bson.M{"$gt": 0},
	}

	var batch domain.Batch
	err := r.collection.FindOne(ctx, filter).Decode(&batch)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// FindByDateRange retrieves batches scheduled within [from, to]
func (r *BatchRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Batch, error) {
	filter := bson.M{
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}, {Key: "batchId", Value: 1}})
	return r.findMany(ctx, filter, opts)
}

// FindByStatus retrieves batches with the given status
func (r *BatchRepository) FindByStatus(ctx context.Context, status domain.BatchStatus, limit int) ([]*domain.Batch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.findMany(ctx, bson.M{"status": status}, opts)
}

// FindAll retrieves batches with pagination
func (r *BatchRepository) FindAll(ctx context.Context, offset, limit int) ([]*domain.Batch, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	batches, err := r.findMany(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// FindContainingTier retrieves every batch holding the given tier
func (r *BatchRepository) FindContainingTier(ctx context.Context, tierID string) ([]*domain.Batch, error) {
	return r.findMany(ctx, bson.M{"tiers.tierId": tierID}, nil)
}

// Delete removes a batch
func (r *BatchRepository) Delete(ctx context.Context, batchID string) error {
	start := time.Now()
	_, err := r.collection.DeleteOne(ctx, bson.M{"batchId": batchID})
	r.recordOperation("delete", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Batch, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []*domain.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// slotConflict builds the conflict error for a duplicate key, looking up
// the occupying batch so callers can merge into it
func (r *BatchRepository) slotConflict(ctx context.Context, batch *domain.Batch) error {
	winnerID := ""
	if batch.ScheduledDate != nil {
		if winner, err := r.FindByKey(ctx, batch.Key()); err == nil && winner != nil {
			winnerID = winner.BatchID
		}
	}
	return errors.ErrConflictWithBatch(
		fmt.Sprintf("a %s batch for %q already occupies this date", batch.Type, batch.Recipe.Resolved()),
		winnerID)
}

func (r *BatchRepository) recordOperation(operation string, start time.Time, success bool) {
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation("batches", operation, success, time.Since(start))
	}
}
