package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/infra/storage/records"
)

// SessionRepository stores sessions next to rooms so a deployment without Redis still
// survives restarts. Idle sessions are removed by a TTL index on expires_at.
type SessionRepository struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewSessionRepository(db *mongo.Database, ttl time.Duration) *SessionRepository {
	col := db.Collection("agg_session")
	if ttl > 0 {
		_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		})
	}
	return &SessionRepository{col: col, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id domainselection.SessionID) (*domainselection.Session, error) {
	var doc records.Session
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainselection.ErrSessionNotFound, id)
		}
		return nil, err
	}
	if r.ttl > 0 && time.Since(doc.UpdatedAt) > r.ttl {
		return nil, fmt.Errorf("%w: %s", domainselection.ErrSessionNotFound, id)
	}
	return doc.ToDomain()
}

func (r *SessionRepository) Save(ctx context.Context, s *domainselection.Session) error {
	doc := records.FromSession(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	if r.ttl > 0 {
		doc.ExpiresAt = s.UpdatedAt.Add(r.ttl)
	}
	res, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domainselection.ErrConcurrentUpdate, s.ID)
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("%w: %s", domainselection.ErrConcurrentUpdate, s.ID)
	}
	s.Version = doc.Version
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id domainselection.SessionID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

var _ domainselection.Repository = (*SessionRepository)(nil)
