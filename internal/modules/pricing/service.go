package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Ephraimdevelops/bebax/internal/config"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
)

var (
	// ErrNoRate means no active rate entry exists for the vehicle type.
	// This is a configuration error: surfaced, never retried.
	ErrNoRate   = errors.New("no active rate for vehicle type")
	ErrBadInput = errors.New("bad pricing input")
)

// RateSource is the slice of the rates service the calculator needs.
type RateSource interface {
	Lookup(ctx context.Context, vt rates.VehicleType) (rates.Entry, error)
}

type Service struct {
	rates RateSource
	cfg   config.PricingConfig
}

func NewService(rateSource RateSource, cfg config.PricingConfig) *Service {
	return &Service{rates: rateSource, cfg: cfg}
}

// Estimate produces an itemised fare for the given route and vehicle type.
//
// Ordering matters: the peak surcharge multiplies the pre-floor subtotal,
// the discount is subtracted, then the minimum-fare floor is clamped (floor
// always wins over surge), and insurance is added last as a non-discountable
// line. Each component is ceiled to whole currency units before summing, so
// fractions never undercharge and the breakdown always sums to the total.
func (s *Service) Estimate(ctx context.Context, in Input) (Breakdown, error) {
	if in.DistanceKm < 0 || in.DurationMin < 0 {
		return Breakdown{}, fmt.Errorf("%w: negative distance or duration", ErrBadInput)
	}
	if in.ReferencePrice <= 0 {
		return Breakdown{}, fmt.Errorf("%w: reference price must be positive", ErrBadInput)
	}

	entry, err := s.rates.Lookup(ctx, rates.VehicleType(in.VehicleType))
	if err != nil {
		if errors.Is(err, rates.ErrNotFound) {
			return Breakdown{}, fmt.Errorf("%w: %s", ErrNoRate, in.VehicleType)
		}
		return Breakdown{}, err
	}

	ref := float64(in.ReferencePrice)

	var base, distance float64
	switch entry.PricingModel {
	case rates.ModelLinear:
		base = entry.BaseFareMultiplier * ref
		distance = entry.PerKmMultiplier * ref * in.DistanceKm
	case rates.ModelRange:
		distance = rangeFare(entry.RangeTiers, in.DistanceKm) * ref
	default:
		return Breakdown{}, fmt.Errorf("%w: pricing model %q", ErrNoRate, entry.PricingModel)
	}

	// Demurrage: only minutes beyond the free loading window are billed.
	// This charges loading/waiting, not moving time.
	timeFare := 0.0
	if extra := in.DurationMin - entry.FreeLoadingMinutes; extra > 0 {
		timeFare = extra * entry.DemurrageMultiplier * ref
	}

	subtotal := base + distance + timeFare

	peak := 0.0
	if s.isPeakHour(in.At) {
		peak = subtotal * (s.cfg.SurgeFactor - 1)
	}

	baseAmt := ceilAmount(base)
	distanceAmt := ceilAmount(distance)
	timeAmt := ceilAmount(timeFare)
	peakAmt := ceilAmount(peak)

	body := baseAmt + distanceAmt + timeAmt + peakAmt - in.Discount
	floor := ceilAmount(entry.MinFareMultiplier * ref)
	if body < floor {
		body = floor
	}

	insurance := insuranceFee(in.DeclaredValue)

	b := Breakdown{
		BaseFare:      baseAmt,
		DistanceFare:  distanceAmt,
		TimeFare:      timeAmt,
		PeakSurcharge: peakAmt,
		Insurance:     insurance,
		Discount:      in.Discount,
		Total:         body + insurance,
		Currency:      Currency,
	}
	return b, nil
}

func ceilAmount(v float64) int64 {
	return int64(math.Ceil(v))
}

// rangeFare returns the fare multiplier for a range-priced trip: the first
// tier whose MaxKm >= distance (boundary inclusive of the lower tier), or
// the last tier's per-km rate extended linearly past the table.
func rangeFare(tiers []rates.Tier, distanceKm float64) float64 {
	for _, t := range tiers {
		if distanceKm <= t.MaxKm {
			return t.Multiplier
		}
	}
	last := tiers[len(tiers)-1]
	return last.Multiplier / last.MaxKm * distanceKm
}

func insuranceFee(declaredValue int64) int64 {
	if declaredValue <= 0 {
		return 0
	}
	if declaredValue <= insuranceFlatMaxValue {
		return insuranceFlatFee
	}
	valueFee := int64(math.Ceil(float64(declaredValue) * insuranceValueRate))
	if valueFee < insuranceMinFee {
		return insuranceMinFee
	}
	return valueFee
}

func (s *Service) isPeakHour(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	h := t.Hour()
	if h >= s.cfg.PeakMorningStart && h < s.cfg.PeakMorningEnd {
		return true
	}
	return h >= s.cfg.PeakEveningStart && h < s.cfg.PeakEveningEnd
}
