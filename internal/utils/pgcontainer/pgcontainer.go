// Package pgcontainer spins up a disposable postgres container for
// repository integration tests.
package pgcontainer

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	defaultImageTag  = "16-alpine"
	testDBName       = "test"
	testUserName     = "test"
	testUserPassword = "test"
)

type PGContainer struct {
	log       *slog.Logger
	pool      *dockertest.Pool
	container *dockertest.Resource
	dsn       string
}

func New(log *slog.Logger) *PGContainer {
	return &PGContainer{log: log}
}

func (c *PGContainer) GetDSN() string {
	return c.dsn
}

// RunContainer starts postgres and blocks until it accepts connections.
// The image tag can be pinned via POSTGRES_TAG in the environment or .env.
func (c *PGContainer) RunContainer() error {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return fmt.Errorf("failed to initialize a docker pool: %w", err)
	}
	c.pool = pool

	const pgPort = "5432/tcp"
	container, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: "postgres",
			Tag:        imageTagFromEnv(),
			Env: []string{
				"POSTGRES_DB=" + testDBName,
				"POSTGRES_USER=" + testUserName,
				"POSTGRES_PASSWORD=" + testUserPassword,
			},
			ExposedPorts: []string{pgPort},
		},
		func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to run postgres container: %w", err)
	}
	c.container = container

	c.dsn = fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		testUserName,
		testUserPassword,
		container.GetHostPort(pgPort),
		testDBName,
	)

	pool.MaxWait = 30 * time.Second
	if err = pool.Retry(c.ping); err != nil {
		return fmt.Errorf("failed to wait for postgres: %w", err)
	}

	return nil
}

func (c *PGContainer) ping() error {
	cfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return fmt.Errorf("failed to parse test DSN: %w", err)
	}

	ctx, cancel := contextWithTestTimeout()
	defer cancel()

	pgPool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open test pool: %w", err)
	}
	defer pgPool.Close()

	return pgPool.Ping(ctx) //nolint: wrapcheck // retried by dockertest
}

func (c *PGContainer) Close() {
	if c.container == nil {
		return
	}
	if err := c.container.Close(); err != nil {
		c.log.Error("failed to stop postgres container", slog.Any("error", err))
	}
}

func imageTagFromEnv() string {
	_ = godotenv.Load(".env")
	if tag := os.Getenv("POSTGRES_TAG"); tag != "" {
		return tag
	}
	return defaultImageTag
}
