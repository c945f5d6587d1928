package rates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound    = errors.New("rate entry not found")
	ErrInvalidRate = errors.New("invalid rate entry")
)

const (
	settingReferencePrice = "reference_price"
	settingServiceActive  = "service_active"

	// Fallback TZS fuel price used until an admin sets one.
	defaultReferencePrice = 3200
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Lookup returns the active rate entry for a vehicle type. Inactive entries
// are treated as missing so estimation fails fast with a config error.
func (s *Service) Lookup(ctx context.Context, vt VehicleType) (Entry, error) {
	e, err := s.store.GetEntry(ctx, vt)
	if err != nil {
		return Entry{}, err
	}
	if !e.IsActive {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Upsert validates and writes a rate entry.
func (s *Service) Upsert(ctx context.Context, e Entry) error {
	if err := Validate(e); err != nil {
		return err
	}
	return s.store.UpsertEntry(ctx, e)
}

// Validate checks the structural invariants of a rate entry.
func Validate(e Entry) error {
	if !IsKnownVehicleType(e.VehicleType) {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidRate, e.VehicleType)
	}
	if e.PricingModel != ModelLinear && e.PricingModel != ModelRange {
		return fmt.Errorf("%w: unknown pricing model %q", ErrInvalidRate, e.PricingModel)
	}
	if e.MinFareMultiplier <= 0 {
		return fmt.Errorf("%w: min fare multiplier must be positive", ErrInvalidRate)
	}
	if e.DemurrageMultiplier < 0 || e.FreeLoadingMinutes < 0 {
		return fmt.Errorf("%w: negative demurrage parameters", ErrInvalidRate)
	}
	switch e.PricingModel {
	case ModelLinear:
		if e.BaseFareMultiplier <= 0 || e.PerKmMultiplier <= 0 {
			return fmt.Errorf("%w: linear model requires positive base and per-km multipliers", ErrInvalidRate)
		}
	case ModelRange:
		if len(e.RangeTiers) == 0 {
			return fmt.Errorf("%w: range model requires at least one tier", ErrInvalidRate)
		}
		prev := 0.0
		for i, t := range e.RangeTiers {
			if t.MaxKm <= prev {
				return fmt.Errorf("%w: range tiers must be strictly ascending by max_km (tier %d)", ErrInvalidRate, i)
			}
			if t.Multiplier <= 0 {
				return fmt.Errorf("%w: tier %d multiplier must be positive", ErrInvalidRate, i)
			}
			prev = t.MaxKm
		}
	}
	return nil
}

// ReferencePrice returns the current fuel reference price in TZS.
func (s *Service) ReferencePrice(ctx context.Context) (int64, error) {
	v, err := s.store.GetSetting(ctx, settingReferencePrice)
	if errors.Is(err, errSettingNotFound) {
		return defaultReferencePrice, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Service) SetReferencePrice(ctx context.Context, price int64) error {
	if price <= 0 {
		return fmt.Errorf("%w: reference price must be positive", ErrInvalidRate)
	}
	return s.store.SetSetting(ctx, settingReferencePrice, formatInt(price))
}

// ServiceActive reports the global kill switch. Missing setting means the
// platform is open for business.
func (s *Service) ServiceActive(ctx context.Context) (bool, error) {
	v, err := s.store.GetSetting(ctx, settingServiceActive)
	if errors.Is(err, errSettingNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(v)
}

func (s *Service) SetServiceActive(ctx context.Context, active bool) error {
	return s.store.SetSetting(ctx, settingServiceActive, formatBool(active))
}
