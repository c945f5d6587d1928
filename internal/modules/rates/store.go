package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence surface the service needs; PgStore is the
// production implementation, tests substitute an in-memory one.
type Store interface {
	GetEntry(ctx context.Context, vt VehicleType) (Entry, error)
	UpsertEntry(ctx context.Context, e Entry) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

var errSettingNotFound = errors.New("setting not found")

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) GetEntry(ctx context.Context, vt VehicleType) (Entry, error) {
	row := s.db.QueryRow(ctx, `
        SELECT vehicle_type, pricing_model, base_fare_multiplier, per_km_multiplier,
               min_fare_multiplier, range_tiers, free_loading_minutes,
               demurrage_multiplier, is_active
        FROM rate_entries
        WHERE vehicle_type = $1`, string(vt),
	)

	var e Entry
	var tiersJSON []byte
	err := row.Scan(
		&e.VehicleType, &e.PricingModel, &e.BaseFareMultiplier, &e.PerKmMultiplier,
		&e.MinFareMultiplier, &tiersJSON, &e.FreeLoadingMinutes,
		&e.DemurrageMultiplier, &e.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &e.RangeTiers); err != nil {
			return Entry{}, fmt.Errorf("decoding range tiers for %s: %w", vt, err)
		}
	}
	return e, nil
}

func (s *PgStore) UpsertEntry(ctx context.Context, e Entry) error {
	tiersJSON, err := json.Marshal(e.RangeTiers)
	if err != nil {
		return fmt.Errorf("encoding range tiers: %w", err)
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO rate_entries (
            vehicle_type, pricing_model, base_fare_multiplier, per_km_multiplier,
            min_fare_multiplier, range_tiers, free_loading_minutes,
            demurrage_multiplier, is_active, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        ON CONFLICT (vehicle_type) DO UPDATE SET
            pricing_model = EXCLUDED.pricing_model,
            base_fare_multiplier = EXCLUDED.base_fare_multiplier,
            per_km_multiplier = EXCLUDED.per_km_multiplier,
            min_fare_multiplier = EXCLUDED.min_fare_multiplier,
            range_tiers = EXCLUDED.range_tiers,
            free_loading_minutes = EXCLUDED.free_loading_minutes,
            demurrage_multiplier = EXCLUDED.demurrage_multiplier,
            is_active = EXCLUDED.is_active,
            updated_at = NOW()`,
		string(e.VehicleType), string(e.PricingModel), e.BaseFareMultiplier,
		e.PerKmMultiplier, e.MinFareMultiplier, tiersJSON,
		e.FreeLoadingMinutes, e.DemurrageMultiplier, e.IsActive,
	)
	return err
}

func (s *PgStore) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRow(ctx,
		`SELECT value FROM platform_settings WHERE key = $1`, key)
	var v string
	err := row.Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errSettingNotFound
	}
	return v, err
}

func (s *PgStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO platform_settings (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
func formatBool(v bool) string { return strconv.FormatBool(v) }
