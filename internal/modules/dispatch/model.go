// Package dispatch routes new trip requests to nearby eligible drivers.
package dispatch

import (
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// Candidate is one driver considered for a trip request.
type Candidate struct {
	DriverID    types.ID
	VehicleType rates.VehicleType
	Position    types.Point
	Rating      float64
	DeviceToken string
	DistanceKm  float64 // straight-line distance to pickup, filled by the matcher
}

// TripOffer is the payload pushed to candidate drivers.
type TripOffer struct {
	TripID        types.ID
	Pickup        types.Point
	Dropoff       types.Point
	VehicleType   rates.VehicleType
	EstimatedFare int64
}

// vehicleSupersets maps a requested type to the larger classes allowed to
// serve it when no exact match is online. Policy lives here, not in the
// rate table.
var vehicleSupersets = map[rates.VehicleType][]rates.VehicleType{
	rates.VehicleBoda:    {rates.VehicleBajaji},
	rates.VehicleBajaji:  {rates.VehicleKirikuu},
	rates.VehicleKirikuu: {rates.VehiclePickup},
	rates.VehiclePickup:  {rates.VehicleCanter},
	rates.VehicleCanter:  {rates.VehicleFuso},
}

// Supersets returns the vehicle classes that may serve a request for vt
// besides an exact match.
func Supersets(vt rates.VehicleType) []rates.VehicleType {
	return vehicleSupersets[vt]
}
