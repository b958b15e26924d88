//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// startPostgres runs a throwaway PostgreSQL container and returns its connection string
func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "privacyguard",
			"POSTGRES_USER":     "privacyguard",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://privacyguard:test_password@%s:%s/privacyguard?sslmode=disable", host, port.Port())
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}

	url := startPostgres(t)

	runConformance(t, func(t *testing.T) Store {
		t.Helper()

		ctx := context.Background()

		s, err := OpenPostgres(ctx, PostgresConfig{URL: url})
		require.NoError(t, err)

		_, err = s.pool.Exec(ctx, `TRUNCATE assessments, pending_urls, audit_log`)
		require.NoError(t, err)

		s.now = newStepClock().Now

		t.Cleanup(func() { s.Close() })

		return s
	})
}
