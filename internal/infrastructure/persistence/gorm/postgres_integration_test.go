//go:build integration
// +build integration

package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func TestNutritionEstimateRepository_PostgresIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "larderly",
				"POSTGRES_USER":     "larderly",
				"POSTGRES_PASSWORD": "larderly",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	db, err := Open(config.DatabaseConfig{
		Driver:      "postgres",
		Host:        host,
		Port:        port.Int(),
		Database:    "larderly",
		Username:    "larderly",
		Password:    "larderly",
		SSLMode:     "disable",
		LogLevel:    "warn",
		AutoMigrate: true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer Close(db)

	repo := NewNutritionEstimateRepository(db)
	require.NoError(t, repo.Upsert(ctx, estimate("pg", 150)))
	require.NoError(t, repo.Upsert(ctx, estimate("pg", 175)))

	found, err := repo.FindByKey(ctx, "pg")
	require.NoError(t, err)
	cal, _ := found.Profile.Get(nutrition.Calories)
	assert.Equal(t, 175.0, cal)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
