package history

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/nodeflow/pkg/api"
)

// MongoStore stores run events in a MongoDB collection, one document per
// event. Documents are ordered by their ObjectID.
type MongoStore struct {
	coll *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed history store.
// dbName defaults to "nodeflow" if empty, collName defaults to "run_events".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "nodeflow"
	}
	if collName == "" {
		collName = "run_events"
	}

	return &MongoStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoEventDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	RunID   string             `bson:"run_id"`
	At      time.Time          `bson:"at"`
	Type    string             `bson:"type"`
	Flow    string             `bson:"flow,omitempty"`
	Node    string             `bson:"node,omitempty"`
	Step    int                `bson:"step"`
	Attempt int                `bson:"attempt,omitempty"`
	Action  string             `bson:"action,omitempty"`
	Detail  string             `bson:"detail,omitempty"`
}

func (s *MongoStore) Append(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.coll.InsertOne(ctx, mongoEventDoc{
		RunID:   ev.RunID,
		At:      at,
		Type:    string(ev.Type),
		Flow:    ev.Flow,
		Node:    ev.Node,
		Step:    ev.Step,
		Attempt: ev.Attempt,
		Action:  string(ev.Action),
		Detail:  ev.Detail,
	})
	return err
}

func (s *MongoStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []api.RunEvent
	for cur.Next(ctx) {
		var doc mongoEventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, api.RunEvent{
			RunID:   doc.RunID,
			At:      doc.At,
			Type:    api.EventType(doc.Type),
			Flow:    doc.Flow,
			Node:    doc.Node,
			Step:    doc.Step,
			Attempt: doc.Attempt,
			Action:  api.Action(doc.Action),
			Detail:  doc.Detail,
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) Runs(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$run_id"},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$_id"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}
