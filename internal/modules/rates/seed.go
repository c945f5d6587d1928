package rates

import "context"

// DefaultEntries is the launch rate table for the Tanzanian market.
// Multipliers are against the petrol pump price per litre.
var DefaultEntries = []Entry{
	{
		VehicleType:  VehicleBoda,
		PricingModel: ModelRange,
		RangeTiers: []Tier{
			{MaxKm: 3, Multiplier: 1.0},
			{MaxKm: 7, Multiplier: 1.6},
			{MaxKm: 15, Multiplier: 2.5},
		},
		MinFareMultiplier:   0.8,
		FreeLoadingMinutes:  10,
		DemurrageMultiplier: 0.05,
		IsActive:            true,
	},
	{
		VehicleType:  VehicleBajaji,
		PricingModel: ModelRange,
		RangeTiers: []Tier{
			{MaxKm: 3, Multiplier: 1.5},
			{MaxKm: 7, Multiplier: 2.4},
			{MaxKm: 15, Multiplier: 3.8},
		},
		MinFareMultiplier:   1.2,
		FreeLoadingMinutes:  15,
		DemurrageMultiplier: 0.08,
		IsActive:            true,
	},
	{
		VehicleType:         VehicleKirikuu,
		PricingModel:        ModelLinear,
		BaseFareMultiplier:  4.7,
		PerKmMultiplier:     0.5,
		MinFareMultiplier:   5.0,
		FreeLoadingMinutes:  30,
		DemurrageMultiplier: 0.15,
		IsActive:            true,
	},
	{
		VehicleType:         VehiclePickup,
		PricingModel:        ModelLinear,
		BaseFareMultiplier:  6.2,
		PerKmMultiplier:     0.7,
		MinFareMultiplier:   6.5,
		FreeLoadingMinutes:  30,
		DemurrageMultiplier: 0.2,
		IsActive:            true,
	},
	{
		VehicleType:         VehicleCanter,
		PricingModel:        ModelLinear,
		BaseFareMultiplier:  9.4,
		PerKmMultiplier:     1.1,
		MinFareMultiplier:   10.0,
		FreeLoadingMinutes:  45,
		DemurrageMultiplier: 0.3,
		IsActive:            true,
	},
	{
		VehicleType:         VehicleFuso,
		PricingModel:        ModelLinear,
		BaseFareMultiplier:  15.6,
		PerKmMultiplier:     1.9,
		MinFareMultiplier:   17.0,
		FreeLoadingMinutes:  60,
		DemurrageMultiplier: 0.5,
		IsActive:            true,
	},
}

// Seed installs the default rate table. Idempotent: existing entries are
// overwritten with the defaults.
func (s *Service) Seed(ctx context.Context) error {
	for _, e := range DefaultEntries {
		if err := s.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
