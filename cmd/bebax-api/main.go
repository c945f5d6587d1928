// Entry point: loads config, wires services and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ephraimdevelops/bebax/internal/config"
	httptransport "github.com/Ephraimdevelops/bebax/internal/http"
	"github.com/Ephraimdevelops/bebax/internal/infra"
	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/maps"
	"github.com/Ephraimdevelops/bebax/internal/modules/dispatch"
	"github.com/Ephraimdevelops/bebax/internal/modules/location"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/modules/trip"
	"github.com/Ephraimdevelops/bebax/internal/notify"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Error("BEBAX_FIREBASE_PROJECT_ID is required")
		os.Exit(1)
	}
	fbApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Error("firebase init", logger.Error(err))
		os.Exit(1)
	}
	verifier, err := infra.NewTokenVerifier(ctx, fbApp)
	if err != nil {
		log.Error("firebase auth init", logger.Error(err))
		os.Exit(1)
	}

	var push notify.Sender = notify.Nop{}
	if msgClient, err := infra.NewMessagingClient(ctx, fbApp); err != nil {
		log.Warn("fcm unavailable, push notifications disabled", logger.Error(err))
	} else {
		push = notify.NewFCMSender(msgClient)
	}

	if err := infra.RunMigrations(cfg.DB.DSN, "migrations"); err != nil {
		log.Error("migrations", logger.Error(err))
		os.Exit(1)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("database init", logger.Error(err))
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)

	routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Maps.Region)
	if err != nil {
		log.Error("maps init", logger.Error(err))
		os.Exit(1)
	}

	ratesSvc := rates.NewService(rates.NewPgStore(dbPool))
	if err := ratesSvc.Seed(ctx); err != nil {
		log.Error("seeding rate table", logger.Error(err))
		os.Exit(1)
	}

	pricingSvc := pricing.NewService(ratesSvc, cfg.Pricing)
	locationSvc := location.NewService(location.NewPgRedisStore(dbPool, redisClient), logger.New("location"))
	dispatchSvc := dispatch.NewService(dispatch.NewPgIndex(dbPool, redisClient), push, cfg.Dispatch, logger.New("dispatch"))
	tripSvc := trip.NewService(trip.NewPgStore(dbPool), routeSvc, pricingSvc, ratesSvc,
		dispatchSvc, push, logger.New("trip"))

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Trips:    tripSvc,
		Location: locationSvc,
		Pricing:  pricingSvc,
		Rates:    ratesSvc,
		Routes:   routeSvc,
		Verifier: verifier,
		Log:      logger.New("http"),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", logger.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server", logger.Error(err))
		os.Exit(1)
	}
}
