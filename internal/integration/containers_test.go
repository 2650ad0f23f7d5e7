//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	mongoImage   = "mongo:7"
	postgisImage = "postgis/postgis:16-3.4-alpine"
	kafkaImage   = "confluentinc/confluent-local:7.5.0"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startMongo runs a MongoDB container and returns its connection string.
func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := mongodb.Run(ctx, mongoImage)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mongodb container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

// startPostGIS runs a PostgreSQL container with the PostGIS extension
// enabled and returns its connection string.
func startPostGIS(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := postgres.Run(ctx, postgisImage,
		postgres.WithDatabase("envirocar"),
		postgres.WithUsername("etl"),
		postgres.WithPassword("etl"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgis container")

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("envirocar-etl-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}
