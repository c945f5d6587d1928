// Package http registers the API routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/http/handlers"
	"github.com/Ephraimdevelops/bebax/internal/http/middleware"
	"github.com/Ephraimdevelops/bebax/internal/infra"
	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/maps"
	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/modules/trip"
)

type ServerDeps struct {
	Trips    *trip.Service
	Location *location.Service
	Pricing  *pricing.Service
	Rates    *rates.Service
	Routes   maps.RouteProvider
	Verifier infra.TokenVerifier
	Log      logger.ILogger
}

func NewRouter(deps ServerDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	tripHandler := handlers.NewTripHandler(deps.Trips)
	api.POST("/trips", tripHandler.Create)
	api.GET("/trips/:id", tripHandler.Get)
	api.GET("/trips/:id/events", tripHandler.Events)
	api.POST("/trips/:id/cancel", tripHandler.Cancel)
	api.POST("/trips/:id/offer", tripHandler.CustomerOffer)
	api.POST("/trips/:id/counter", tripHandler.DriverCounterOffer)
	api.POST("/trips/:id/offer/accept", tripHandler.AcceptOffer)
	api.POST("/trips/:id/offer/reject", tripHandler.RejectOffer)

	driverHandler := handlers.NewDriverHandler(deps.Trips)
	api.POST("/trips/:id/accept", driverHandler.Accept)
	api.POST("/trips/:id/arrive", driverHandler.Arrive)
	api.POST("/trips/:id/start", driverHandler.Start)
	api.POST("/trips/:id/complete", driverHandler.Complete)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	api.PUT("/drivers/location", locationHandler.Update)
	api.POST("/drivers/offline", locationHandler.GoOffline)

	pricingHandler := handlers.NewPricingHandler(deps.Routes, deps.Pricing, deps.Rates)
	api.POST("/fare/quote", pricingHandler.Quote)

	adminHandler := handlers.NewAdminHandler(deps.Rates)
	admin := api.Group("/admin", middleware.RequireRole("admin"))
	admin.POST("/rates", adminHandler.UpsertRate)
	admin.POST("/rates/seed", adminHandler.SeedRates)
	admin.PUT("/reference-price", adminHandler.SetReferencePrice)
	admin.PUT("/service-status", adminHandler.SetServiceStatus)

	return r
}
