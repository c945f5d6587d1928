package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/maps"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// PricingHandler serves fare quotes without creating a trip.
type PricingHandler struct {
	routes  maps.RouteProvider
	pricing *pricing.Service
	rates   *rates.Service
}

func NewPricingHandler(routes maps.RouteProvider, pricingSvc *pricing.Service, ratesSvc *rates.Service) *PricingHandler {
	return &PricingHandler{routes: routes, pricing: pricingSvc, rates: ratesSvc}
}

type quoteReq struct {
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	DropoffLat    float64 `json:"dropoff_lat"`
	DropoffLng    float64 `json:"dropoff_lng"`
	VehicleType   string  `json:"vehicle_type"`
	DeclaredValue int64   `json:"declared_value"`
}

func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VehicleType == "" {
		writeError(c, http.StatusBadRequest, "missing vehicle_type")
		return
	}

	ctx := c.Request.Context()
	route, err := h.routes.GetRoute(ctx,
		types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng})
	if err != nil {
		writeTripError(c, err)
		return
	}
	ref, err := h.rates.ReferencePrice(ctx)
	if err != nil {
		writeTripError(c, err)
		return
	}
	breakdown, err := h.pricing.Estimate(ctx, pricing.Input{
		VehicleType:    req.VehicleType,
		DistanceKm:     route.DistanceKm,
		DurationMin:    route.DurationMin,
		ReferencePrice: ref,
		DeclaredValue:  req.DeclaredValue,
		At:             time.Now(),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"distance_km":  route.DistanceKm,
		"duration_min": route.DurationMin,
		"estimate":     breakdown,
	})
}
