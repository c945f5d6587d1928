package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

var ErrBadCoordinates = errors.New("coordinates out of range")

type Service struct {
	store Store
	log   logger.ILogger
}

func NewService(store Store, log logger.ILogger) *Service {
	return &Service{store: store, log: log}
}

// Update records a driver's position. Last write wins; there is no history.
func (s *Service) Update(ctx context.Context, p Ping) error {
	if p.DriverID == "" {
		return fmt.Errorf("%w: missing driver id", ErrBadCoordinates)
	}
	if p.Position.Lat < -90 || p.Position.Lat > 90 || p.Position.Lng < -180 || p.Position.Lng >= 180 {
		return fmt.Errorf("%w: lat=%f lng=%f", ErrBadCoordinates, p.Position.Lat, p.Position.Lng)
	}

	rec := Record{
		DriverID:  p.DriverID,
		Position:  p.Position,
		Cell:      Encode(p.Position.Lat, p.Position.Lng, CellPrecision),
		UpdatedAt: time.Now().UTC(),
	}
	return s.store.Upsert(ctx, rec)
}

// GoOffline drops the driver from the live index so dispatch stops seeing
// them immediately, regardless of the drivers table flag.
func (s *Service) GoOffline(ctx context.Context, driverID types.ID) error {
	if driverID == "" {
		return fmt.Errorf("%w: missing driver id", ErrBadCoordinates)
	}
	return s.store.Remove(ctx, driverID)
}
