package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/http/middleware"
	"github.com/Ephraimdevelops/bebax/internal/modules/trip"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// DriverHandler covers the driver side of the trip lifecycle.
type DriverHandler struct {
	trips *trip.Service
}

func NewDriverHandler(svc *trip.Service) *DriverHandler {
	return &DriverHandler{trips: svc}
}

func (h *DriverHandler) Accept(c *gin.Context) {
	t, err := h.trips.Accept(c.Request.Context(), trip.AcceptCommand{
		TripID:   types.ID(c.Param("id")),
		DriverID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}

func (h *DriverHandler) Arrive(c *gin.Context) {
	h.lifecycle(c, h.trips.Arrive)
}

func (h *DriverHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.trips.Start)
}

func (h *DriverHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.trips.Complete)
}

func (h *DriverHandler) lifecycle(c *gin.Context, op func(ctx context.Context, cmd trip.DriverCommand) (*trip.Trip, error)) {
	t, err := op(c.Request.Context(), trip.DriverCommand{
		TripID:   types.ID(c.Param("id")),
		DriverID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toTripResp(t))
}
