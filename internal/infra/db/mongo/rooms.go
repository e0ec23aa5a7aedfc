package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/infra/storage/records"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	col := db.Collection("rooms")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "price_value", Value: 1}}},
	})
	return &RoomRepository{col: col}
}

func (r *RoomRepository) find(ctx context.Context, filter bson.M) ([]domainrooms.PhysicalRoom, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []records.Room
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainrooms.PhysicalRoom, 0, len(docs))
	for _, doc := range docs {
		room, err := doc.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, nil
}

func (r *RoomRepository) ByProperty(ctx context.Context, id domainrooms.PropertyID) ([]domainrooms.PhysicalRoom, error) {
	return r.find(ctx, bson.M{"property_id": string(id)})
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (domainrooms.PhysicalRoom, error) {
	var doc records.Room
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainrooms.PhysicalRoom{}, fmt.Errorf("%w: %s", domainrooms.ErrRoomNotFound, id)
		}
		return domainrooms.PhysicalRoom{}, err
	}
	return doc.ToDomain()
}

// Search pushes every filter down to Mongo; price bounds use the mirrored price_value field.
func (r *RoomRepository) Search(ctx context.Context, filter domainrooms.SearchFilter) ([]domainrooms.PhysicalRoom, error) {
	q := bson.M{"active": true}
	if filter.PropertyID != "" {
		q["property_id"] = string(filter.PropertyID)
	}
	if filter.TypeID != "" {
		q["type_id"] = filter.TypeID
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		v, _ := filter.MinPrice.Amount.Float64()
		price["$gte"] = v
	}
	if filter.MaxPrice != nil {
		v, _ := filter.MaxPrice.Amount.Float64()
		price["$lte"] = v
	}
	if len(price) > 0 {
		q["price_value"] = price
	}
	return r.find(ctx, q)
}

func (r *RoomRepository) Save(ctx context.Context, room domainrooms.PhysicalRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	doc := records.FromRoom(room)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

var _ domainrooms.Repository = (*RoomRepository)(nil)
