package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Cursor is the subset of *mongo.Cursor the source consumes.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(v any) error
	Err() error
	Close(ctx context.Context) error
}

// collection is the subset of *mongodrv.Collection the source consumes.
type collection interface {
	CountDocuments(ctx context.Context, filter any) (int64, error)
	Find(ctx context.Context, filter any) (Cursor, error)
	Aggregate(ctx context.Context, pipeline any) (Cursor, error)
}

// session is one connected client scoped to a database.
type session interface {
	Collection(name string) collection
	Disconnect(ctx context.Context) error
}

// connectFunc opens a session. It is swapped out in tests.
type connectFunc func(ctx context.Context, uri, database string) (session, error)

// connect dials MongoDB and verifies the server is reachable, since
// mongodrv.Connect alone does not perform any I/O.
func connect(ctx context.Context, uri, database string) (session, error) {
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &clientSession{db: client.Database(database)}, nil
}

type clientSession struct {
	db *mongodrv.Database
}

func (s *clientSession) Collection(name string) collection {
	return &clientCollection{coll: s.db.Collection(name)}
}

func (s *clientSession) Disconnect(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

type clientCollection struct {
	coll *mongodrv.Collection
}

func (c *clientCollection) CountDocuments(ctx context.Context, filter any) (int64, error) {
	return c.coll.CountDocuments(ctx, orEmpty(filter))
}

func (c *clientCollection) Find(ctx context.Context, filter any) (Cursor, error) {
	cur, err := c.coll.Find(ctx, orEmpty(filter))
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (c *clientCollection) Aggregate(ctx context.Context, pipeline any) (Cursor, error) {
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// orEmpty substitutes an empty document for a nil filter, which the driver
// rejects.
func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	if m, ok := filter.(bson.M); ok && m == nil {
		return bson.D{}
	}
	return filter
}
