package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/infra/storage/records"
)

const sessionPrefix = "stayquote:session:"

// SessionRepository stores each session as one JSON document. Every save refreshes the
// TTL, so a session expires after ttl of inactivity.
type SessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *goredis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id domainselection.SessionID) string {
	return sessionPrefix + string(id)
}

func decodeSession(raw []byte) (records.Session, error) {
	var doc records.Session
	if err := json.Unmarshal(raw, &doc); err != nil {
		return records.Session{}, fmt.Errorf("redis: decode session: %w", err)
	}
	return doc, nil
}

func (r *SessionRepository) Get(ctx context.Context, id domainselection.SessionID) (*domainselection.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", domainselection.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	doc, err := decodeSession(raw)
	if err != nil {
		return nil, err
	}
	return doc.ToDomain()
}

// Save runs a WATCH/MULTI round: the write only lands if nobody touched the key between
// the version check and EXEC.
func (r *SessionRepository) Save(ctx context.Context, s *domainselection.Session) error {
	doc := records.FromSession(s)
	doc.Version = s.Version + 1
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := sessionKey(s.ID)
	conflict := fmt.Errorf("%w: %s", domainselection.ErrConcurrentUpdate, s.ID)

	err = r.client.Watch(ctx, func(tx *goredis.Tx) error {
		current := int64(0)
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return err
		default:
			stored, err := decodeSession(raw)
			if err != nil {
				return err
			}
			current = stored.Version
		}
		if current != s.Version {
			return conflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return conflict
	}
	if err != nil {
		return err
	}
	s.Version = doc.Version
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id domainselection.SessionID) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

var _ domainselection.Repository = (*SessionRepository)(nil)
