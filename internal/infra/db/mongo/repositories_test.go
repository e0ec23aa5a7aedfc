package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	domainavailability "stayquote/internal/domain/availability"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/infra/storage/records"
)

func newSession(t *testing.T, at time.Time) *domainselection.Session {
	t.Helper()
	s, err := domainselection.NewSession("sess-1", "hotel", domainselection.Search{PartySize: 2}, at)
	require.NoError(t, err)
	return s
}

func asDocument(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestSessionRepository_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert bumps version", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		s := newSession(mt.T, time.Now())
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "sess-1"}}}},
		))

		require.NoError(mt, repo.Save(context.Background(), s))
		assert.EqualValues(mt, 1, s.Version)
	})

	mt.Run("matched replace bumps version", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		s := newSession(mt.T, time.Now())
		s.Version = 3
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.Save(context.Background(), s))
		assert.EqualValues(mt, 4, s.Version)
	})

	mt.Run("stale version collides on _id", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		s := newSession(mt.T, time.Now())
		s.Version = 2
		mt.AddMockResponses(duplicateKey())

		err := repo.Save(context.Background(), s)
		assert.ErrorIs(mt, err, domainselection.ErrConcurrentUpdate)
		assert.EqualValues(mt, 2, s.Version)
	})

	mt.Run("nothing matched nor upserted", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		s := newSession(mt.T, time.Now())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		assert.ErrorIs(mt, repo.Save(context.Background(), s), domainselection.ErrConcurrentUpdate)
		assert.Zero(mt, s.Version)
	})
}

func TestSessionRepository_Get(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "stayquote.agg_session"

	mt.Run("round trip", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		stored := newSession(mt.T, time.Now())
		stored.Version = 5
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, asDocument(mt.T, records.FromSession(stored))))

		got, err := repo.Get(context.Background(), "sess-1")
		require.NoError(mt, err)
		assert.Equal(mt, stored.ID, got.ID)
		assert.Equal(mt, stored.PropertyID, got.PropertyID)
		assert.Equal(mt, 2, got.Search.PartySize)
		assert.EqualValues(mt, 5, got.Version)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, 0)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "ghost")
		assert.ErrorIs(mt, err, domainselection.ErrSessionNotFound)
	})

	mt.Run("expired before the ttl monitor ran", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse()) // createIndexes
		repo := NewSessionRepository(mt.DB, time.Hour)
		old := newSession(mt.T, time.Now().Add(-2*time.Hour))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, asDocument(mt.T, records.FromSession(old))))

		_, err := repo.Get(context.Background(), "sess-1")
		assert.ErrorIs(mt, err, domainselection.ErrSessionNotFound)
	})
}

func TestCalendarRepository_SaveChecksVersion(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("accepted", func(mt *mtest.T) {
		repo := &CalendarRepository{col: mt.Coll}
		cal := domainavailability.NewCalendar("d1")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.Save(context.Background(), cal))
		assert.EqualValues(mt, 1, cal.Version)
	})

	mt.Run("conflict", func(mt *mtest.T) {
		repo := &CalendarRepository{col: mt.Coll}
		cal := domainavailability.NewCalendar("d1")
		mt.AddMockResponses(duplicateKey())

		assert.ErrorIs(mt, repo.Save(context.Background(), cal), domainavailability.ErrConcurrentUpdate)
		assert.Zero(mt, cal.Version)
	})
}
