package dispatch

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// locationMaxAge bounds how old a driver's last ping may be before the
// driver stops being dispatchable, regardless of the is_online flag. A
// crashed app leaves is_online set; the ping trail does not lie.
const locationMaxAge = 2 * time.Minute

// Index finds eligible drivers inside a set of geohash cells. All cells in
// one call share a precision; stored cells are matched by prefix.
type Index interface {
	EligibleInCells(ctx context.Context, cells []string, vehicleTypes []rates.VehicleType) ([]Candidate, error)
}

// PgIndex scans driver locations by cell prefix in Postgres and refreshes
// candidate positions from the Redis live index when a fresher fix exists.
type PgIndex struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPgIndex(db *pgxpool.Pool, rdb *redis.Client) *PgIndex {
	return &PgIndex{db: db, redis: rdb}
}

func (s *PgIndex) EligibleInCells(ctx context.Context, cells []string, vehicleTypes []rates.VehicleType) ([]Candidate, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	precision := len(cells[0])
	vts := make([]string, len(vehicleTypes))
	for i, vt := range vehicleTypes {
		vts[i] = string(vt)
	}

	rows, err := s.db.Query(ctx, `
        SELECT d.id, d.vehicle_type, l.lat, l.lng, d.rating, COALESCE(t.token, '')
        FROM drivers d
        JOIN driver_locations l ON l.driver_id = d.id
        LEFT JOIN device_tokens t ON t.user_id = d.id
        WHERE d.is_online
          AND d.is_verified
          AND NOT d.wallet_frozen
          AND d.vehicle_type = ANY($1)
          AND left(l.geohash_cell, $2) = ANY($3)
          AND l.updated_at > $4`,
		vts, precision, cells, time.Now().Add(-locationMaxAge),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	var ids []types.ID
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.DriverID, &c.VehicleType, &c.Position.Lat, &c.Position.Lng, &c.Rating, &c.DeviceToken); err != nil {
			return nil, err
		}
		out = append(out, c)
		ids = append(ids, c.DriverID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Postgres rows can lag a few pings behind; prefer the live fix.
	if live, err := location.LivePositions(ctx, s.redis, ids); err == nil {
		for i := range out {
			if p, ok := live[out[i].DriverID]; ok {
				out[i].Position = p
			}
		}
	}
	return out, nil
}
