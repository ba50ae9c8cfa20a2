//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func startPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "moldata",
				"POSTGRES_PASSWORD": "moldata",
				"POSTGRES_DB":       "moldata",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return config.PostgresConfig{
		Enabled:     true,
		Host:        host,
		Port:        port.Int(),
		Database:    "moldata",
		Username:    "moldata",
		Password:    "moldata",
		SSLMode:     "disable",
		MaxConns:    4,
		AutoMigrate: true,
	}
}

func TestRunRegistry_RoundTrip(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	conn, err := postgres.NewConnection(ctx, cfg, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.HealthCheck(ctx))

	version, dirty, err := postgres.MigrationStatus(postgres.BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	repo := postgres.NewRunRepository(conn.Pool(), nil)
	older := time.Now().Add(-time.Hour).Truncate(time.Microsecond).UTC()
	newer := older.Add(30 * time.Minute)
	require.NoError(t, repo.Save(ctx, &postgres.RunRecord{RunID: "a", Mode: "regression", Datapoints: 3, Chunks: 1, Manifest: []byte(`{"run_id":"a"}`), CreatedAt: older}))
	require.NoError(t, repo.Save(ctx, &postgres.RunRecord{RunID: "b", Mode: "pretraining", Datapoints: 7, Chunks: 3, Manifest: []byte(`{"run_id":"b"}`), CreatedAt: newer}))

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].RunID)
	assert.JSONEq(t, `{"run_id":"b"}`, string(runs[0].Manifest))

	verifiedAt := newer.Add(time.Minute)
	require.NoError(t, repo.MarkVerified(ctx, "b", verifiedAt))
	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got.VerifiedAt)
	assert.True(t, verifiedAt.Equal(*got.VerifiedAt))

	// Re-exporting a run clears its verification.
	require.NoError(t, repo.Save(ctx, &postgres.RunRecord{RunID: "b", Mode: "pretraining", Datapoints: 7, Chunks: 2, Manifest: []byte(`{}`), CreatedAt: newer}))
	got, err = repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got.VerifiedAt)
	assert.Equal(t, 2, got.Chunks)

	assert.True(t, errors.IsNotFound(repo.MarkVerified(ctx, "ghost", verifiedAt)))
	_, err = repo.Get(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, postgres.RollbackMigration(postgres.BuildDSN(cfg), 1))
	version, _, err = postgres.MigrationStatus(postgres.BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}

//Personal.AI order the ending
