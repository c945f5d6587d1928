package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Ephraimdevelops/bebax/internal/types"
)

// geoKey is the Redis GEO set holding live driver positions. Dispatch reads
// it to refresh candidate positions at ranking time.
const geoKey = "location:drivers"

// Store persists driver location records.
type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Remove(ctx context.Context, driverID types.ID) error
}

// PgRedisStore writes the durable record to Postgres and mirrors the live
// position into Redis GEO.
type PgRedisStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPgRedisStore(db *pgxpool.Pool, rdb *redis.Client) *PgRedisStore {
	return &PgRedisStore{db: db, redis: rdb}
}

func (s *PgRedisStore) Upsert(ctx context.Context, rec Record) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO driver_locations (driver_id, lat, lng, geohash_cell, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (driver_id) DO UPDATE SET
            lat = EXCLUDED.lat,
            lng = EXCLUDED.lng,
            geohash_cell = EXCLUDED.geohash_cell,
            updated_at = EXCLUDED.updated_at`,
		string(rec.DriverID), rec.Position.Lat, rec.Position.Lng, rec.Cell, rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return s.redis.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(rec.DriverID),
		Longitude: rec.Position.Lng,
		Latitude:  rec.Position.Lat,
	}).Err()
}

func (s *PgRedisStore) Remove(ctx context.Context, driverID types.ID) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM driver_locations WHERE driver_id = $1`, string(driverID)); err != nil {
		return err
	}
	return s.redis.ZRem(ctx, geoKey, string(driverID)).Err()
}

// LivePositions returns fresh positions from Redis GEO for the given
// drivers; drivers without a live entry are omitted.
func LivePositions(ctx context.Context, rdb *redis.Client, ids []types.ID) (map[types.ID]types.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	pos, err := rdb.GeoPos(ctx, geoKey, members...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[types.ID]types.Point, len(ids))
	for i, p := range pos {
		if p == nil {
			continue
		}
		out[ids[i]] = types.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return out, nil
}
