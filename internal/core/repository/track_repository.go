package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

var ErrDuplicateTrack = errors.New("track already exists")

// TrackRepository stores finished recordings. Find methods return nil, nil
// when nothing matches.
type TrackRepository interface {
	Create(ctx context.Context, recording *model.Recording) error
	FindByID(ctx context.Context, id string) (*model.Recording, error)
	FindByDeviceID(ctx context.Context, deviceID string) ([]*model.Recording, error)
}

type MongoTrackRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoTrackRepository(db *mongo.Database) *MongoTrackRepository {
	return &MongoTrackRepository{
		collection: db.Collection("tracks"),
		timeout:    5 * time.Second,
	}
}

// EnsureIndexes creates the device/start index used by FindByDeviceID.
func (r *MongoTrackRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "startedAt", Value: 1}},
	})
	return err
}

func (r *MongoTrackRepository) Create(ctx context.Context, recording *model.Recording) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, recording)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateTrack
	}
	return err
}

func (r *MongoTrackRepository) FindByID(ctx context.Context, id string) (*model.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var recording model.Recording
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&recording)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &recording, nil
}

func (r *MongoTrackRepository) FindByDeviceID(ctx context.Context, deviceID string) ([]*model.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"deviceId": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recordings []*model.Recording
	if err = cursor.All(ctx, &recordings); err != nil {
		return nil, err
	}
	return recordings, nil
}
