package dispatch

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/Ephraimdevelops/bebax/internal/config"
	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/notify"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// ErrNoDriversAvailable means the search exhausted the radius cap. A
// legitimate terminal outcome, not a failure to retry.
var ErrNoDriversAvailable = errors.New("no drivers available")

type Service struct {
	index Index
	push  notify.Sender
	cfg   config.DispatchConfig
	log   logger.ILogger
}

func NewService(index Index, push notify.Sender, cfg config.DispatchConfig, log logger.ILogger) *Service {
	return &Service{index: index, push: push, cfg: cfg, log: log}
}

// FindCandidates returns eligible drivers near pickup, closest first with
// rating breaking ties. The scan covers the pickup's geohash cell and its
// neighbor ring; an empty result doubles the radius up to the configured
// cap before reporting ErrNoDriversAvailable.
func (s *Service) FindCandidates(ctx context.Context, pickup types.Point, vt rates.VehicleType) ([]Candidate, error) {
	allowed := append([]rates.VehicleType{vt}, Supersets(vt)...)

	radius := s.cfg.InitialRadiusKm
	for {
		cells := location.CoverCells(pickup.Lat, pickup.Lng, radius)
		found, err := s.index.EligibleInCells(ctx, cells, allowed)
		if err != nil {
			return nil, err
		}

		var exact, fallback []Candidate
		for _, c := range found {
			d := location.HaversineKm(pickup, c.Position)
			if d > radius {
				continue
			}
			c.DistanceKm = d
			if c.VehicleType == vt {
				exact = append(exact, c)
			} else {
				fallback = append(fallback, c)
			}
		}

		// Larger classes serve the request only when no exact match is in range.
		pool := exact
		if len(pool) == 0 {
			pool = fallback
		}
		if len(pool) > 0 {
			rank(pool)
			return pool, nil
		}

		if radius >= s.cfg.MaxRadiusKm {
			return nil, ErrNoDriversAvailable
		}
		radius *= 2
		if radius > s.cfg.MaxRadiusKm {
			radius = s.cfg.MaxRadiusKm
		}
	}
}

// rank orders candidates nearest first. The distance sort is stable, so
// sorting by rating beforehand leaves equal distances best-rated first.
func rank(pool []Candidate) {
	sort.Slice(pool, func(i, j int) bool { return pool[i].Rating > pool[j].Rating })
	location.SortByDistance(pool, func(c Candidate) float64 { return c.DistanceKm })
}

// NotifyCandidates pushes the trip offer to each candidate. Best-effort:
// failures are logged and swallowed, never surfaced to the trip flow.
func (s *Service) NotifyCandidates(ctx context.Context, offer TripOffer, candidates []Candidate) {
	for _, c := range candidates {
		p := notify.Push{
			Token: c.DeviceToken,
			Title: "New trip request",
			Body:  "Pickup nearby — open the app to view the offer",
			Data: map[string]string{
				"type":           "trip_offer",
				"trip_id":        string(offer.TripID),
				"vehicle_type":   string(offer.VehicleType),
				"pickup_lat":     strconv.FormatFloat(offer.Pickup.Lat, 'f', 6, 64),
				"pickup_lng":     strconv.FormatFloat(offer.Pickup.Lng, 'f', 6, 64),
				"dropoff_lat":    strconv.FormatFloat(offer.Dropoff.Lat, 'f', 6, 64),
				"dropoff_lng":    strconv.FormatFloat(offer.Dropoff.Lng, 'f', 6, 64),
				"estimated_fare": strconv.FormatInt(offer.EstimatedFare, 10),
			},
		}
		if err := s.push.Send(ctx, p); err != nil {
			s.log.Warn("trip offer push failed",
				logger.String("trip_id", string(offer.TripID)),
				logger.String("driver_id", string(c.DriverID)),
				logger.Error(err))
		}
	}
}
