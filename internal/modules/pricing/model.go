// Package pricing computes fare estimates from a route and the rate table.
package pricing

import "time"

const Currency = "TZS"

// Input is one fare estimation request. ReferencePrice is the current fuel
// price the rate multipliers are applied against; the caller resolves it so
// a single admin update moves every quote.
type Input struct {
	VehicleType    string
	DistanceKm     float64
	DurationMin    float64
	ReferencePrice int64
	DeclaredValue  int64 // cargo value for insurance tiering, 0 = uninsured
	Discount       int64
	At             time.Time // request time, used for peak-hour surge
}

// Breakdown itemises an estimate. Total = BaseFare + DistanceFare +
// TimeFare + PeakSurcharge + Insurance - Discount, except when the price
// floor wins, in which case Total = floor + Insurance.
type Breakdown struct {
	BaseFare      int64  `json:"base_fare"`
	DistanceFare  int64  `json:"distance_fare"`
	TimeFare      int64  `json:"time_fare,omitempty"`
	PeakSurcharge int64  `json:"peak_surcharge,omitempty"`
	Insurance     int64  `json:"insurance,omitempty"`
	Discount      int64  `json:"discount,omitempty"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
}

// Insurance tiers: small consignments pay a flat fee, valuable ones pay a
// rate on declared value with a floor.
const (
	insuranceFlatMaxValue = 1_000_000 // TZS
	insuranceFlatFee      = 2_000
	insuranceMinFee       = 5_000
	insuranceValueRate    = 0.004
)
