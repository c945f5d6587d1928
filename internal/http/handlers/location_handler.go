package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/http/middleware"
	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationUpdateReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Update records the authenticated driver's position. The driver never
// supplies their own ID; it comes from the token.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.Update(c.Request.Context(), location.Ping{
		DriverID: types.ID(middleware.CallerUID(c)),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *LocationHandler) GoOffline(c *gin.Context) {
	err := h.location.GoOffline(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "offline"})
}
