// Package handlers maps HTTP requests onto module services. Authorization
// beyond token verification lives here: handlers match the authenticated
// caller against the resource before delegating.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/maps"
	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeTripError maps trip service errors onto HTTP statuses.
func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest), errors.Is(err, pricing.ErrBadInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrNotAuthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, trip.ErrConflict), errors.Is(err, trip.ErrInvalidState),
		errors.Is(err, trip.ErrActiveTrip), errors.Is(err, trip.ErrNoActiveOffer):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, trip.ErrServiceInactive):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, maps.ErrRouteUnavailable):
		writeError(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, pricing.ErrNoRate), errors.Is(err, rates.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLocationError(c *gin.Context, err error) {
	if errors.Is(err, location.ErrBadCoordinates) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeRatesError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rates.ErrInvalidRate):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rates.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
