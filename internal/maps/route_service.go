// Package maps wraps the Google Maps Directions API behind the narrow
// RouteProvider interface the trip flow depends on.
package maps

import (
	"context"
	"errors"
	"fmt"

	gmaps "googlemaps.github.io/maps"

	"github.com/Ephraimdevelops/bebax/internal/types"
)

// ErrRouteUnavailable is returned when no route can be obtained. Fare
// estimation aborts on it; there is no haversine fallback for billing.
var ErrRouteUnavailable = errors.New("route unavailable")

// Route is the distance/duration result used for fare estimation.
type Route struct {
	DistanceKm  float64
	DurationMin float64
	Polyline    string
}

// RouteProvider returns the driving route between two points.
type RouteProvider interface {
	GetRoute(ctx context.Context, origin, destination types.Point) (Route, error)
}

// RouteService handles interactions with the Google Maps API.
type RouteService struct {
	client *gmaps.Client
	region string
}

// NewRouteService creates a RouteService with the given API key. region
// biases geocoding results (e.g. "TZ").
func NewRouteService(apiKey, region string) (*RouteService, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client, region: region}, nil
}

// GetRoute returns the driving route between origin and destination.
// Any API failure or empty result maps to ErrRouteUnavailable.
func (s *RouteService) GetRoute(ctx context.Context, origin, destination types.Point) (Route, error) {
	req := &gmaps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        gmaps.TravelModeDriving,
		Region:      s.region,
	}

	routes, _, err := s.client.Directions(ctx, req)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, ErrRouteUnavailable
	}

	leg := routes[0].Legs[0]
	return Route{
		DistanceKm:  float64(leg.Distance.Meters) / 1000.0,
		DurationMin: leg.Duration.Minutes(),
		Polyline:    routes[0].OverviewPolyline.Points,
	}, nil
}
