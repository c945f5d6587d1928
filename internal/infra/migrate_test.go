package infra

import (
	"context"
	"os"
	"testing"
)

// Requires a disposable database; set BEBAX_TEST_DSN to run.
func TestMigrationsApply(t *testing.T) {
	dsn := os.Getenv("BEBAX_TEST_DSN")
	if dsn == "" {
		t.Skip("BEBAX_TEST_DSN not set")
	}

	if err := RunMigrations(dsn, "../../migrations"); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	// applying again is a no-op
	if err := RunMigrations(dsn, "../../migrations"); err != nil {
		t.Fatalf("re-applying migrations: %v", err)
	}

	pool, err := NewDB(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer pool.Close()

	for _, table := range []string{"trips", "rate_entries", "drivers", "driver_locations"} {
		var n int
		if err := pool.QueryRow(context.Background(),
			"SELECT count(*) FROM "+table).Scan(&n); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
