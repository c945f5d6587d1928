package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/http/middleware"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/modules/trip"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

type TripHandler struct {
	trips *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trips: svc}
}

type createTripReq struct {
	PickupLat        float64 `json:"pickup_lat"`
	PickupLng        float64 `json:"pickup_lng"`
	DropoffLat       float64 `json:"dropoff_lat"`
	DropoffLng       float64 `json:"dropoff_lng"`
	PickupAddress    string  `json:"pickup_address"`
	DropoffAddress   string  `json:"dropoff_address"`
	VehicleType      string  `json:"vehicle_type"`
	CargoDescription string  `json:"cargo_description"`
	DeclaredValue    int64   `json:"declared_value"`
	Discount         int64   `json:"discount"`
}

type offerReq struct {
	Amount int64 `json:"amount"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

type negotiationEntryResp struct {
	From   string    `json:"from"`
	Amount int64     `json:"amount"`
	At     time.Time `json:"at"`
}

type tripResp struct {
	TripID         string                 `json:"trip_id"`
	Status         string                 `json:"status"`
	VehicleType    string                 `json:"vehicle_type"`
	DriverID       *string                `json:"driver_id,omitempty"`
	DistanceKm     float64                `json:"distance_km"`
	DurationMin    float64                `json:"duration_min"`
	Estimate       pricing.Breakdown      `json:"estimate"`
	NegotiatedFare *int64                 `json:"negotiated_fare,omitempty"`
	FinalFare      *types.Money           `json:"final_fare,omitempty"`
	Negotiation    []negotiationEntryResp `json:"negotiation,omitempty"`
	CancelReason   *string                `json:"cancel_reason,omitempty"`
}

func toTripResp(t *trip.Trip) tripResp {
	r := tripResp{
		TripID:         string(t.ID),
		Status:         string(t.Status),
		VehicleType:    string(t.VehicleType),
		DistanceKm:     t.DistanceKm,
		DurationMin:    t.DurationMin,
		Estimate:       t.Estimate,
		NegotiatedFare: t.NegotiatedFare,
		FinalFare:      t.FinalAmount(),
		CancelReason:   t.CancelReason,
	}
	if t.DriverID != nil {
		d := string(*t.DriverID)
		r.DriverID = &d
	}
	for _, e := range t.Negotiation {
		r.Negotiation = append(r.Negotiation, negotiationEntryResp{
			From: string(e.From), Amount: e.Amount, At: e.At,
		})
	}
	return r
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VehicleType == "" {
		writeError(c, http.StatusBadRequest, "missing vehicle_type")
		return
	}
	res, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		CustomerID:       types.ID(middleware.CallerUID(c)),
		Pickup:           types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:          types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		PickupAddress:    req.PickupAddress,
		DropoffAddress:   req.DropoffAddress,
		VehicleType:      rates.VehicleType(req.VehicleType),
		CargoDescription: req.CargoDescription,
		DeclaredValue:    req.DeclaredValue,
		Discount:         req.Discount,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	body := toTripResp(res.Trip)
	writeJSON(c, http.StatusCreated, gin.H{
		"trip":             body,
		"drivers_notified": res.DriversNotified,
	})
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	caller := types.ID(middleware.CallerUID(c))
	if caller != t.CustomerID && (t.DriverID == nil || caller != *t.DriverID) &&
		middleware.CallerRole(c) != "admin" {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *TripHandler) Events(c *gin.Context) {
	events, err := h.trips.Events(c.Request.Context(), types.ID(c.Param("id")),
		types.ID(middleware.CallerUID(c)), middleware.CallerRole(c) == "admin")
	if err != nil {
		writeTripError(c, err)
		return
	}
	type eventResp struct {
		From      string    `json:"from"`
		To        string    `json:"to"`
		ActorType string    `json:"actor_type"`
		At        time.Time `json:"at"`
	}
	out := make([]eventResp, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResp{
			From: string(ev.FromStatus), To: string(ev.ToStatus),
			ActorType: ev.ActorType, At: ev.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"events": out})
}

func (h *TripHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	t, err := h.trips.Cancel(c.Request.Context(), trip.CancelCommand{
		TripID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Reason:  req.Reason,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *TripHandler) CustomerOffer(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trips.CustomerOffer(c.Request.Context(), trip.OfferCommand{
		TripID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Amount:  req.Amount,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *TripHandler) DriverCounterOffer(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trips.DriverCounterOffer(c.Request.Context(), trip.OfferCommand{
		TripID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Amount:  req.Amount,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *TripHandler) AcceptOffer(c *gin.Context) {
	t, err := h.trips.AcceptOffer(c.Request.Context(), trip.OfferDecisionCommand{
		TripID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *TripHandler) RejectOffer(c *gin.Context) {
	t, err := h.trips.RejectOffer(c.Request.Context(), trip.OfferDecisionCommand{
		TripID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}
