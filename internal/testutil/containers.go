// Package testutil starts throwaway backend containers for integration
// tests. Tests are skipped when Docker is unavailable or when -short is set.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startupTimeout is generous for CI environments.
const startupTimeout = 3 * time.Minute

func run(t *testing.T, image string, opts ...testcontainers.ContainerCustomizer) testcontainers.Container {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s container test in -short mode", image)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	c, err := testcontainers.Run(ctx, image, opts...)
	t.Cleanup(func() {
		testcontainers.CleanupContainer(t, c)
	})
	if err != nil {
		t.Skipf("cannot start %s container (is Docker running?): %v", image, err)
	}
	return c
}

func endpoint(t *testing.T, c testcontainers.Container) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ep, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}
	return ep
}

// StartRedisContainer returns the host:port of a fresh Redis server.
func StartRedisContainer(t *testing.T) string {
	t.Helper()
	c := run(t, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	return endpoint(t, c)
}

// StartPostgresContainer returns a pgx DSN of a fresh PostgreSQL database.
func StartPostgresContainer(t *testing.T) string {
	t.Helper()
	c := run(t, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				// Verify SQL connectivity through the mapped host:port.
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://flowkit:flowkit@%s:%s/flowkit_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "flowkit",
			"POSTGRES_PASSWORD": "flowkit",
			"POSTGRES_DB":       "flowkit_test",
		}),
	)
	return fmt.Sprintf("postgres://flowkit:flowkit@%s/flowkit_test?sslmode=disable", endpoint(t, c))
}

// StartMongoContainer returns a connection URI of a fresh MongoDB server.
func StartMongoContainer(t *testing.T) string {
	t.Helper()
	c := run(t, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("mongod startup complete"),
		),
	)
	return fmt.Sprintf("mongodb://%s", endpoint(t, c))
}
