package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/trezcool/mahudhurio/storage/database"
)

var errNoRuntime = errors.New("no container runtime")

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgDB        *sqlx.DB
	pgErr       error
)

// PrepareDB returns a migrated, empty postgres database running in a container.
// The test is skipped with -short or when no container runtime is available.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	pgOnce.Do(startPostgres)
	if pgErr != nil {
		t.Skipf("postgres not available, skipping integration test: %v", pgErr)
	}
	ResetDB(t, pgDB)
	return pgDB
}

func startPostgres() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	defer func() {
		if r := recover(); r != nil { // no docker
			pgErr = errNoRuntime
		}
	}()

	pgContainer, pgErr = postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("mahudhurio"),
		postgres.WithUsername("mahudhurio"),
		postgres.WithPassword("mahudhurio"),
		postgres.BasicWaitStrategies(),
	)
	if pgErr != nil {
		return
	}
	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable", "timezone=utc")
	if err != nil {
		pgErr = err
		return
	}
	if pgDB, pgErr = database.OpenURL(dsn); pgErr != nil {
		return
	}
	if pgErr = database.Ping(pgDB.DB); pgErr != nil {
		return
	}
	pgErr = database.Migrate(pgDB.DB)
}

// TeardownDB stops the container started by PrepareDB, if any. Call it from TestMain.
func TeardownDB() {
	if pgDB != nil {
		_ = pgDB.Close()
	}
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE checkin_attempt, student, setting`); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
