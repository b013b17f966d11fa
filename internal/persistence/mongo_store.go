package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/flowkit/pkg/api"
)

// MongoFlowStore is a FlowStore backed by a MongoDB collection. The graph
// is kept as an encoded blob so node configs round-trip through the same
// codec as every other backend.
type MongoFlowStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Ensure it implements FlowStore.
var _ FlowStore = (*MongoFlowStore)(nil)

// NewMongoFlowStore creates a Mongo-backed flow store.
// dbName defaults to "flowkit" if empty, collName defaults to "flows".
func NewMongoFlowStore(client *mongo.Client, dbName, collName string) *MongoFlowStore {
	if dbName == "" {
		dbName = "flowkit"
	}
	if collName == "" {
		collName = "flows"
	}

	return &MongoFlowStore{
		coll: client.Database(dbName).Collection(collName),
		now:  time.Now,
	}
}

type mongoFlowDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Status    string    `bson:"status"`
	Published bool      `bson:"published"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Data      []byte    `bson:"data"`
}

func (d mongoFlowDoc) flow() (*api.Flow, error) {
	g, err := DecodeGraph(d.Data)
	if err != nil {
		return nil, err
	}
	return &api.Flow{
		ID:        d.ID,
		Name:      d.Name,
		Status:    api.Status(d.Status),
		Published: d.Published,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Data:      g,
	}, nil
}

func (s *MongoFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable(err)
	}
	defer cur.Close(ctx)

	var flows []*api.Flow
	for cur.Next(ctx) {
		var doc mongoFlowDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		f, err := doc.flow()
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable(err)
	}
	return flows, nil
}

func (s *MongoFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	var doc mongoFlowDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id)
		}
		return nil, unavailable(err)
	}
	return doc.flow()
}

func (s *MongoFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
	f, err := newFlow(name, s.now())
	if err != nil {
		return nil, err
	}
	data, err := EncodeGraph(f.Data)
	if err != nil {
		return nil, err
	}

	doc := mongoFlowDoc{
		ID:        f.ID,
		Name:      f.Name,
		Status:    string(f.Status),
		Published: f.Published,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		Data:      data,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, unavailable(err)
	}
	return f, nil
}

func (s *MongoFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	status := attrs.Status
	if status == "" {
		status = api.StatusDraft
	}
	data, err := EncodeGraph(attrs.Data)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"name":       attrs.Name,
			"status":     string(status),
			"published":  attrs.Published,
			"updated_at": s.now().UTC().Truncate(time.Millisecond),
			"data":       data,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoFlowDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id)
		}
		return nil, unavailable(err)
	}
	return doc.flow()
}

func (s *MongoFlowStore) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return unavailable(err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}
