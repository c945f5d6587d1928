package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
)

// AdminHandler exposes the platform knobs: the rate table, the fuel
// reference price and the service kill switch. All routes sit behind the
// admin role gate.
type AdminHandler struct {
	rates *rates.Service
}

func NewAdminHandler(svc *rates.Service) *AdminHandler {
	return &AdminHandler{rates: svc}
}

type rateEntryReq struct {
	VehicleType        string  `json:"vehicle_type"`
	PricingModel       string  `json:"pricing_model"`
	BaseFareMultiplier float64 `json:"base_fare_multiplier"`
	PerKmMultiplier    float64 `json:"per_km_multiplier"`
	MinFareMultiplier  float64 `json:"min_fare_multiplier"`
	RangeTiers         []struct {
		MaxKm      float64 `json:"max_km"`
		Multiplier float64 `json:"multiplier"`
	} `json:"range_tiers"`
	FreeLoadingMinutes  float64 `json:"free_loading_minutes"`
	DemurrageMultiplier float64 `json:"demurrage_multiplier"`
	IsActive            bool    `json:"is_active"`
}

func (h *AdminHandler) UpsertRate(c *gin.Context) {
	var req rateEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	entry := rates.Entry{
		VehicleType:         rates.VehicleType(req.VehicleType),
		PricingModel:        rates.PricingModel(req.PricingModel),
		BaseFareMultiplier:  req.BaseFareMultiplier,
		PerKmMultiplier:     req.PerKmMultiplier,
		MinFareMultiplier:   req.MinFareMultiplier,
		FreeLoadingMinutes:  req.FreeLoadingMinutes,
		DemurrageMultiplier: req.DemurrageMultiplier,
		IsActive:            req.IsActive,
	}
	for _, t := range req.RangeTiers {
		entry.RangeTiers = append(entry.RangeTiers, rates.Tier{MaxKm: t.MaxKm, Multiplier: t.Multiplier})
	}
	if err := h.rates.Upsert(c.Request.Context(), entry); err != nil {
		writeRatesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) SeedRates(c *gin.Context) {
	if err := h.rates.Seed(c.Request.Context()); err != nil {
		writeRatesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "seeded"})
}

type referencePriceReq struct {
	Price int64 `json:"price"`
}

func (h *AdminHandler) SetReferencePrice(c *gin.Context) {
	var req referencePriceReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Price <= 0 {
		writeError(c, http.StatusBadRequest, "price must be positive")
		return
	}
	if err := h.rates.SetReferencePrice(c.Request.Context(), req.Price); err != nil {
		writeRatesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"reference_price": req.Price})
}

type serviceStatusReq struct {
	Active bool `json:"active"`
}

func (h *AdminHandler) SetServiceStatus(c *gin.Context) {
	var req serviceStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.rates.SetServiceActive(c.Request.Context(), req.Active); err != nil {
		writeRatesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"active": req.Active})
}
