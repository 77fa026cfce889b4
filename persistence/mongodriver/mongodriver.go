// Package mongodriver implements persistence.Driver on top of a mongo
// collection, adapted from the teacher's infra/mongo client construction.
package mongodriver

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/phuhao00/actorcore/config"
	"github.com/phuhao00/actorcore/persistence"
)

// Driver journals events as documents in a single collection, ordered by
// a per-actor monotonically increasing sequence number.
type Driver struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type eventDocument struct {
	ActorID  string    `bson:"actor_id"`
	Sequence int64     `bson:"sequence"`
	TypeURL  string    `bson:"type_url"`
	Payload  []byte    `bson:"payload"`
	StoredAt time.Time `bson:"stored_at"`
}

func New(cfg config.MongoConfig) (*Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeoutMS > 0 {
		clientOptions.SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond)
	}
	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodriver: connect: %w", err)
	}
	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Driver{client: client, collection: collection}, nil
}

func (d *Driver) Persist(ctx context.Context, actorID persistence.ActorID, event proto.Message) (persistence.Ack, error) {
	wrapped, err := anypb.New(event)
	if err != nil {
		return persistence.Ack{}, fmt.Errorf("mongodriver: wrapping event: %w", err)
	}
	count, err := d.collection.CountDocuments(ctx, bson.M{"actor_id": actorID.String()})
	if err != nil {
		return persistence.Ack{}, fmt.Errorf("mongodriver: counting prior events: %w", err)
	}
	now := time.Now()
	seq := count + 1
	doc := eventDocument{
		ActorID:  actorID.String(),
		Sequence: seq,
		TypeURL:  wrapped.TypeUrl,
		Payload:  wrapped.Value,
		StoredAt: now,
	}
	if _, err := d.collection.InsertOne(ctx, doc); err != nil {
		return persistence.Ack{}, fmt.Errorf("mongodriver: insert: %w", err)
	}
	return persistence.Ack{Sequence: seq, StoredAt: now}, nil
}

func (d *Driver) Recover(ctx context.Context, actorID persistence.ActorID) (persistence.EventStream, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := d.collection.Find(ctx, bson.M{"actor_id": actorID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodriver: find: %w", err)
	}
	out := make(chan persistence.Event)
	go func() {
		defer close(out)
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var doc eventDocument
			if err := cursor.Decode(&doc); err != nil {
				continue
			}
			out <- persistence.Event{
				ActorID:  actorID,
				Sequence: doc.Sequence,
				Payload:  &anypb.Any{TypeUrl: doc.TypeURL, Value: doc.Payload},
				StoredAt: doc.StoredAt,
			}
		}
	}()
	return persistence.EventStream(out), nil
}

func (d *Driver) Close() error {
	return d.client.Disconnect(context.Background())
}
