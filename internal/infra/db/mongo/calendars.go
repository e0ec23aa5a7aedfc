package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/infra/storage/records"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainrooms.RoomID) (*domainavailability.AvailabilityCalendar, error) {
	var doc records.Calendar
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.ToDomain()
}

func (r *CalendarRepository) Calendars(ctx context.Context, ids []domainrooms.RoomID) (map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar, error) {
	out := make(map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, string(id))
		out[id] = domainavailability.NewCalendar(id)
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, err
	}
	var docs []records.Calendar
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		cal, err := doc.ToDomain()
		if err != nil {
			return nil, err
		}
		out[cal.RoomID] = cal
	}
	return out, nil
}

// Save matches on the version the calendar was loaded with. A first save upserts; a stale
// one either misses the filter or collides on _id.
func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.AvailabilityCalendar) error {
	doc := records.FromCalendar(cal)
	filter := bson.M{"_id": doc.RoomID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainavailability.ErrConcurrentUpdate
	}
	cal.Version = doc.Version
	return nil
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)
