package dispatch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ephraimdevelops/bebax/internal/infra"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
)

// Requires a disposable database; set BEBAX_TEST_DSN to run.
func TestPgIndexExcludesStaleLocations(t *testing.T) {
	dsn := os.Getenv("BEBAX_TEST_DSN")
	if dsn == "" {
		t.Skip("BEBAX_TEST_DSN not set")
	}
	if err := infra.RunMigrations(dsn, "../../../migrations"); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	pool, err := infra.NewDB(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	cleanup := func() {
		pool.Exec(ctx, `DELETE FROM driver_locations WHERE driver_id LIKE 'stale-test-%'`)
		pool.Exec(ctx, `DELETE FROM drivers WHERE id LIKE 'stale-test-%'`)
	}
	cleanup()
	defer cleanup()

	const cell = "ksp000"
	insert := func(id string, pingedAt time.Time) {
		if _, err := pool.Exec(ctx, `
            INSERT INTO drivers (id, vehicle_type, is_online, is_verified)
            VALUES ($1, 'kirikuu', TRUE, TRUE)`, id); err != nil {
			t.Fatalf("inserting driver %s: %v", id, err)
		}
		if _, err := pool.Exec(ctx, `
            INSERT INTO driver_locations (driver_id, lat, lng, geohash_cell, updated_at)
            VALUES ($1, -6.8, 39.28, $2, $3)`, id, cell, pingedAt); err != nil {
			t.Fatalf("inserting location %s: %v", id, err)
		}
	}
	insert("stale-test-fresh", time.Now())
	// Online flag still set, but the last ping is well past the staleness
	// bound. This driver's app is gone and must not be dispatched.
	insert("stale-test-gone", time.Now().Add(-10*time.Minute))

	// Unreachable Redis: the live-position refresh fails and is skipped.
	idx := NewPgIndex(pool, redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))

	got, err := idx.EligibleInCells(ctx, []string{cell}, []rates.VehicleType{rates.VehicleKirikuu})
	if err != nil {
		t.Fatalf("EligibleInCells: %v", err)
	}
	for _, c := range got {
		if c.DriverID == "stale-test-gone" {
			t.Fatal("driver with a stale location was returned")
		}
	}
	found := false
	for _, c := range got {
		if c.DriverID == "stale-test-fresh" {
			found = true
		}
	}
	if !found {
		t.Fatal("fresh driver missing from candidates")
	}
}
