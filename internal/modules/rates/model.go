// Package rates owns the per-vehicle-type pricing parameters and the
// platform settings (fuel reference price, global service switch).
package rates

// VehicleType keys rate table lookups. Values mirror the cargo classes the
// marketplace serves, smallest to largest.
type VehicleType string

const (
	VehicleBoda    VehicleType = "boda"    // motorcycle
	VehicleBajaji  VehicleType = "bajaji"  // tricycle
	VehicleKirikuu VehicleType = "kirikuu" // mini truck
	VehiclePickup  VehicleType = "pickup"
	VehicleCanter  VehicleType = "canter" // box truck
	VehicleFuso    VehicleType = "fuso"   // heavy truck
)

// AllVehicleTypes lists every known type, used by validation and seeding.
var AllVehicleTypes = []VehicleType{
	VehicleBoda, VehicleBajaji, VehicleKirikuu, VehiclePickup, VehicleCanter, VehicleFuso,
}

func IsKnownVehicleType(vt VehicleType) bool {
	for _, v := range AllVehicleTypes {
		if v == vt {
			return true
		}
	}
	return false
}

type PricingModel string

const (
	ModelLinear PricingModel = "linear"
	ModelRange  PricingModel = "range"
)

// Tier is one distance band of a range-priced vehicle type. A trip whose
// distance is <= MaxKm (and above the previous tier's MaxKm) pays
// Multiplier x reference price.
type Tier struct {
	MaxKm      float64
	Multiplier float64
}

// Entry holds the pricing parameters for one vehicle type. All multipliers
// are applied against the volatile fuel reference price so fares track
// input-cost inflation without a redeploy.
type Entry struct {
	VehicleType         VehicleType
	PricingModel        PricingModel
	BaseFareMultiplier  float64
	PerKmMultiplier     float64
	MinFareMultiplier   float64
	RangeTiers          []Tier
	FreeLoadingMinutes  float64
	DemurrageMultiplier float64
	IsActive            bool
}
