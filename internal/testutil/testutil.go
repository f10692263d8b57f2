// Package testutil starts throwaway infrastructure for tests: a migrated
// postgres container and transaction-scoped isolation helpers.
package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/akorchagin/vidstream/internal/db"
)

// RandomPort returns a free localhost port.
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	return ln.Addr().(*net.TCPAddr).Port, nil
}

type PostgresContainer struct {
	Pool      *pgxpool.Pool
	DSN       string
	Terminate func()
}

// StartPostgresContainer runs postgres in docker on a random port, applies
// the migrations and hands back a ready pool. Fails the test early with a
// readable message when docker itself is unavailable.
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	if out, err := exec.Command("docker", "info", "--format", "{{.ServerVersion}}").CombinedOutput(); err != nil {
		t.Fatalf("docker is not available, integration tests need it. Output: %s", out)
	}

	port, err := RandomPort()
	require.NoError(t, err, "no free port for postgres")

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("vidstream-test"),
		postgres.WithUsername("vidstream"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ExposedPorts = []string{fmt.Sprintf("%d:5432", port)}
			return nil
		}),
	)
	require.NoError(t, err, "starting postgres container")

	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "getting postgres connection string")
	t.Logf("postgres container started, DSN=%v", dsn)

	dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "connecting and migrating")

	return PostgresContainer{
		Pool: dbpool,
		DSN:  dsn,
		Terminate: func() {
			dbpool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type dbtx interface {
	Begin(context.Context) (pgx.Tx, error)
}

// WithTx runs testFunc inside a transaction that is always rolled back, so
// tests never observe each other's rows. Nesting works: a pgx.Tx also
// satisfies dbtx via savepoints.
func WithTx(dbtx dbtx, t *testing.T, testFunc func(tx pgx.Tx)) {
	tx, err := dbtx.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		require.NoError(t, tx.Rollback(t.Context()))
	}()

	testFunc(tx)
}
