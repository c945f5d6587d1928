package location

import (
	"time"

	"github.com/Ephraimdevelops/bebax/internal/types"
)

// Record is a driver's last reported position. Overwritten on every ping;
// this is a live index, not a movement history.
type Record struct {
	DriverID  types.ID
	Position  types.Point
	Cell      string // geohash at CellPrecision
	UpdatedAt time.Time
}

// Ping is one location update from a driver device.
type Ping struct {
	DriverID types.ID
	Position types.Point
}
