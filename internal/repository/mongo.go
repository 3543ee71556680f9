package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlify/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const linkCollection = "urls"

func InitMongo(ctx context.Context, uri string, dbName string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client.Database(dbName), nil
}

// MongoStore keeps one document per link with its analytics embedded, so a
// click is a single-document update.
type MongoStore struct {
	links *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	links := db.Collection(linkCollection)
	_, err := links.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "custom_alias", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "owner_ref", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return &MongoStore{links: links}, nil
}

func (s *MongoStore) findOne(ctx context.Context, op string, filter bson.M, opts ...*options.FindOneOptions) (*models.Link, error) {
	var link models.Link
	err := s.links.FindOne(ctx, filter, opts...).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &link, nil
}

func (s *MongoStore) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	return s.findOne(ctx, "find_by_short_id", bson.M{"_id": shortID})
}

func (s *MongoStore) FindByAlias(ctx context.Context, alias string) (*models.Link, error) {
	return s.findOne(ctx, "find_by_alias", bson.M{"custom_alias": alias})
}

// FindRoute leaves the embedded analytics array on the server.
func (s *MongoStore) FindRoute(ctx context.Context, shortID string) (*models.Link, error) {
	return s.findOne(ctx, "find_route", bson.M{"_id": shortID},
		options.FindOne().SetProjection(bson.M{"analytics": 0}))
}

func (s *MongoStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.links.CountDocuments(ctx,
		bson.M{"$or": bson.A{bson.M{"_id": key}, bson.M{"custom_alias": key}}},
		options.Count().SetLimit(1))
	if err != nil {
		return false, storageErr("exists", err)
	}
	return n > 0, nil
}

func (s *MongoStore) Insert(ctx context.Context, link *models.Link) error {
	now := time.Now().UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	// $push needs an array, not null.
	if link.Events == nil {
		link.Events = []models.AnalyticsEvent{}
	}

	_, err := s.links.InsertOne(ctx, link)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return storageErr("insert", err)
	}
	return nil
}

func (s *MongoStore) RecordClick(ctx context.Context, shortID string, event models.AnalyticsEvent) error {
	res, err := s.links.UpdateOne(ctx, bson.M{"_id": shortID}, bson.M{
		"$inc":  bson.M{"click_count": 1},
		"$push": bson.M{"analytics": event},
		"$set":  bson.M{"updated_at": event.Timestamp},
	})
	if err != nil {
		return storageErr("record_click", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetActive(ctx context.Context, shortID string, active bool) error {
	res, err := s.links.UpdateOne(ctx, bson.M{"_id": shortID}, bson.M{
		"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return storageErr("set_active", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, shortID string) error {
	res, err := s.links.DeleteOne(ctx, bson.M{"_id": shortID})
	if err != nil {
		return storageErr("delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindAllByOwner(ctx context.Context, ownerRef string) ([]models.Link, error) {
	cur, err := s.links.Find(ctx, bson.M{"owner_ref": ownerRef},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, storageErr("find_all_by_owner", err)
	}
	defer cur.Close(ctx)

	links := make([]models.Link, 0)
	if err := cur.All(ctx, &links); err != nil {
		return nil, storageErr("find_all_by_owner", err)
	}
	return links, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.links.Database().Client().Disconnect(ctx)
}
