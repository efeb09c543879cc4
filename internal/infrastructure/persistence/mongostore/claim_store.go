package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type claimStore struct {
	claims   *mongo.Collection
	counters *mongo.Collection
	logger   *zap.Logger
}

// NewClaimRepository returns a claim repository backed by s
func NewClaimRepository(s *Store) port.ClaimRepository {
	return &claimStore{
		claims:   s.collection(claimsCollection),
		counters: s.collection(countersCollection),
		logger:   s.logger,
	}
}

func (r *claimStore) FindBySequentialID(ctx context.Context, id int64) (*entity.Claim, error) {
	var claim entity.Claim
	err := r.claims.FindOne(ctx, bson.M{"sequentialId": id}).Decode(&claim)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("claim_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	claim.Normalize()
	return &claim, nil
}

func (r *claimStore) List(ctx context.Context, q query.ClaimQuery) ([]*entity.Claim, error) {
	opts := options.Find().SetSort(claimSort(q.Sort))
	if q.PageSize > 0 {
		opts.SetSkip(int64(q.Offset())).SetLimit(int64(q.PageSize))
	}

	cur, err := r.claims.Find(ctx, claimFilter(q), opts)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer cur.Close(ctx)

	var claims []*entity.Claim
	for cur.Next(ctx) {
		var claim entity.Claim
		if err := cur.Decode(&claim); err != nil {
			return nil, fmt.Errorf("failed to decode claim: %w", err)
		}
		claim.Normalize()
		claims = append(claims, &claim)
	}
	return claims, cur.Err()
}

func (r *claimStore) Count(ctx context.Context, q query.ClaimQuery) (int64, error) {
	n, err := r.claims.CountDocuments(ctx, claimFilter(q))
	if err != nil {
		r.logger.Error("Failed to count claims", zap.Error(err))
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return n, nil
}

func (r *claimStore) Insert(ctx context.Context, claim *entity.Claim) error {
	if claim.OpaqueID == "" {
		return fmt.Errorf("claim opaque id is required")
	}
	if _, err := r.claims.InsertOne(ctx, claim); err != nil {
		r.logger.Error("Failed to insert claim", zap.Int64("claim_id", claim.SequentialID), zap.Error(err))
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (r *claimStore) Replace(ctx context.Context, claim *entity.Claim) error {
	res, err := r.claims.ReplaceOne(ctx, bson.M{"sequentialId": claim.SequentialID}, claim)
	if err != nil {
		r.logger.Error("Failed to replace claim", zap.Int64("claim_id", claim.SequentialID), zap.Error(err))
		return fmt.Errorf("failed to replace claim: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("claim %d: %w", claim.SequentialID, workflow.ErrNotFound)
	}
	return nil
}

func (r *claimStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.claims.DeleteOne(ctx, bson.M{"sequentialId": id})
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.Int64("claim_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete claim: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// NextSequentialID raises the counter to the largest stored id, then increments it
func (r *claimStore) NextSequentialID(ctx context.Context) (int64, error) {
	var top struct {
		SequentialID int64 `bson:"sequentialId"`
	}
	err := r.claims.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "sequentialId", Value: -1}}).SetProjection(bson.M{"sequentialId": 1}),
	).Decode(&top)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to read max claim id: %w", err)
	}

	key := bson.M{"_id": claimsCollection}
	if _, err := r.counters.UpdateOne(ctx, key,
		bson.M{"$max": bson.M{"value": top.SequentialID}},
		options.Update().SetUpsert(true),
	); err != nil {
		return 0, fmt.Errorf("failed to seed claim counter: %w", err)
	}

	var counter struct {
		Value int64 `bson:"value"`
	}
	err = r.counters.FindOneAndUpdate(ctx, key,
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		r.logger.Error("Failed to allocate claim id", zap.Error(err))
		return 0, fmt.Errorf("failed to allocate claim id: %w", err)
	}
	return counter.Value, nil
}

func claimFilter(q query.ClaimQuery) bson.M {
	var and []bson.M

	if q.OwnerUserID != nil {
		and = append(and, bson.M{"createdByUserId": *q.OwnerUserID})
	}

	if q.Search != "" {
		var or []bson.M
		for _, f := range query.SearchFields() {
			or = append(or, bson.M{f.Document: containsRegex(q.Search)})
		}
		and = append(and, bson.M{"$or": or})
	}

	for _, f := range q.Filters {
		switch f.Field.Kind {
		case query.KindInt:
			and = append(and, bson.M{f.Field.Document: f.Int})
		case query.KindDecimal:
			and = append(and, bson.M{f.Field.Document: f.Decimal})
		case query.KindStatus:
			and = append(and, bson.M{f.Field.Document: string(f.Status)})
		default:
			and = append(and, bson.M{f.Field.Document: containsRegex(f.Text)})
		}
	}

	switch len(and) {
	case 0:
		return bson.M{}
	case 1:
		return and[0]
	default:
		return bson.M{"$and": and}
	}
}

func containsRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func claimSort(s query.Sort) bson.D {
	key := s.Field.Document
	if key == "" {
		key = query.DefaultSortField.Document
	}
	dir := 1
	if s.Descending {
		dir = -1
	}
	if key == "sequentialId" {
		return bson.D{{Key: key, Value: dir}}
	}
	return bson.D{{Key: key, Value: dir}, {Key: "sequentialId", Value: dir}}
}
