package mongo

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/couchcryptid/envirocar-etl/internal/config"
	"github.com/couchcryptid/envirocar-etl/internal/domain"
	"github.com/couchcryptid/envirocar-etl/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
)

// phenomenaPipeline collects every phenomenon ID referenced by any
// observation into a single set.
var phenomenaPipeline = bson.A{
	bson.D{{Key: "$project", Value: bson.D{{Key: "phenomenons", Value: 1}}}},
	bson.D{{Key: "$unwind", Value: "$phenomenons"}},
	bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "1"},
		{Key: "phenomenons", Value: bson.D{{Key: "$addToSet", Value: "$phenomenons.phen._id"}}},
	}}},
}

// Source reads enviroCar measurements from a MongoDB collection.
// Every call opens its own connection and releases it before returning.
type Source struct {
	uri        string
	database   string
	collection string
	logger     *slog.Logger
	metrics    *observability.Metrics
	connect    connectFunc
}

// NewSource creates a Source for the configured database and collection.
func NewSource(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{
		uri:        cfg.MongoURL,
		database:   cfg.MongoDatabase,
		collection: cfg.MongoCollection,
		logger:     logger,
		metrics:    metrics,
		connect:    connect,
	}
}

// DiscoverPhenomena returns the normalized, sorted set of phenomena observed
// anywhere in the collection. An empty collection yields an empty set.
func (s *Source) DiscoverPhenomena(ctx context.Context) (domain.Phenomena, error) {
	var (
		sess session
		cur  Cursor
	)
	defer func() { s.release(ctx, sess, cur) }()

	sess, err := s.connect(ctx, s.uri, s.database)
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongodb: %w", domain.ErrConnection, err)
	}

	cur, err = sess.Collection(s.collection).Aggregate(ctx, phenomenaPipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate phenomena: %w", domain.ErrQuery, err)
	}

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("%w: aggregate phenomena: %w", domain.ErrQuery, err)
		}
		return domain.Phenomena{}, nil
	}

	var result struct {
		Phenomenons []any `bson:"phenomenons"`
	}
	if err := cur.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode phenomena: %w", domain.ErrQuery, err)
	}

	phenomena := domain.NewPhenomena(phenomenonIDs(result.Phenomenons))
	s.logger.Info("phenomena discovered", "count", len(phenomena), "phenomena", phenomena)
	return phenomena, nil
}

// phenomenonIDs keeps the string identifiers of the aggregated set. A null
// or non-string ID cannot name a column.
func phenomenonIDs(raw []any) []string {
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Measurements iterates the documents matching filter in cursor order, one at
// a time. The filter is passed to the driver unmodified; nil matches all.
//
// Connection, count and cursor failures are yielded once and end the
// iteration. A document that cannot be decoded is yielded as an error
// wrapping domain.ErrMalformedDocument and iteration continues if the caller
// keeps ranging. The cursor and connection are released exactly once, on
// every exit path including an early break.
func (s *Source) Measurements(ctx context.Context, filter any) iter.Seq2[domain.Measurement, error] {
	return func(yield func(domain.Measurement, error) bool) {
		var (
			sess session
			cur  Cursor
			err  error
		)
		defer func() { s.release(ctx, sess, cur) }()

		sess, err = s.connect(ctx, s.uri, s.database)
		if err != nil {
			yield(domain.Measurement{}, fmt.Errorf("%w: connect mongodb: %w", domain.ErrConnection, err))
			return
		}
		coll := sess.Collection(s.collection)

		count, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			yield(domain.Measurement{}, fmt.Errorf("%w: count measurements: %w", domain.ErrQuery, err))
			return
		}
		s.logger.Info("iterating measurements", "count", count, "collection", s.collection, "filter", filter)
		s.metrics.DocumentsTotal.Set(float64(count))

		cur, err = coll.Find(ctx, filter)
		if err != nil {
			yield(domain.Measurement{}, fmt.Errorf("%w: find measurements: %w", domain.ErrQuery, err))
			return
		}

		for cur.Next(ctx) {
			var m domain.Measurement
			if err := cur.Decode(&m); err != nil {
				if !yield(domain.Measurement{}, fmt.Errorf("%w: decode measurement: %w", domain.ErrMalformedDocument, err)) {
					return
				}
				continue
			}
			if !yield(m, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(domain.Measurement{}, fmt.Errorf("%w: read measurements: %w", domain.ErrQuery, err))
		}
	}
}

// release closes whichever of cursor and session were opened. Close errors
// are logged; they never replace the outcome of the operation.
func (s *Source) release(ctx context.Context, sess session, cur Cursor) {
	ctx = context.WithoutCancel(ctx)
	if cur != nil {
		if err := cur.Close(ctx); err != nil {
			s.logger.Warn("mongodb cursor close failed", "error", err)
		}
	}
	if sess != nil {
		if err := sess.Disconnect(ctx); err != nil {
			s.logger.Warn("mongodb disconnect failed", "error", err)
		}
	}
}
