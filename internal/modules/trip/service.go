package trip

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/maps"
	"github.com/Ephraimdevelops/bebax/internal/modules/dispatch"
	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/notify"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

var (
	ErrNotFound        = errors.New("trip not found")
	ErrConflict        = errors.New("trip was modified concurrently")
	ErrInvalidState    = errors.New("operation not allowed in current trip status")
	ErrNotAuthorized   = errors.New("caller is not a party to this trip")
	ErrNoActiveOffer   = errors.New("no offer on the table")
	ErrServiceInactive = errors.New("service is temporarily unavailable")
	ErrActiveTrip      = errors.New("customer already has an active trip")
	ErrBadRequest      = errors.New("bad trip request")
)

// Dispatcher finds and notifies candidate drivers for a new trip.
type Dispatcher interface {
	FindCandidates(ctx context.Context, pickup types.Point, vt rates.VehicleType) ([]dispatch.Candidate, error)
	NotifyCandidates(ctx context.Context, offer dispatch.TripOffer, candidates []dispatch.Candidate)
}

// Estimator produces the fare estimate attached to a new trip.
type Estimator interface {
	Estimate(ctx context.Context, in pricing.Input) (pricing.Breakdown, error)
}

// Settings exposes the platform-level knobs trips depend on.
type Settings interface {
	ServiceActive(ctx context.Context) (bool, error)
	ReferencePrice(ctx context.Context) (int64, error)
}

type Service struct {
	store      Store
	routes     maps.RouteProvider
	estimator  Estimator
	settings   Settings
	dispatcher Dispatcher
	push       notify.Sender
	log        logger.ILogger
	now        func() time.Time
}

func NewService(store Store, routes maps.RouteProvider, estimator Estimator,
	settings Settings, dispatcher Dispatcher, push notify.Sender, log logger.ILogger) *Service {
	return &Service{
		store:      store,
		routes:     routes,
		estimator:  estimator,
		settings:   settings,
		dispatcher: dispatcher,
		push:       push,
		log:        log,
		now:        time.Now,
	}
}

type CreateCommand struct {
	CustomerID       types.ID
	Pickup           types.Point
	Dropoff          types.Point
	PickupAddress    string
	DropoffAddress   string
	VehicleType      rates.VehicleType
	CargoDescription string
	DeclaredValue    int64
	Discount         int64
}

type CreateResult struct {
	Trip            *Trip
	DriversNotified int
}

// Create runs the whole request-to-searching flow: kill-switch check,
// routing, fare estimate, persist, then dispatch. Driver notification is
// best-effort; the trip stays in searching even when nobody is found.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
	if !validPoint(cmd.Pickup) || !validPoint(cmd.Dropoff) {
		return nil, ErrBadRequest
	}
	if cmd.DeclaredValue < 0 || cmd.Discount < 0 {
		return nil, ErrBadRequest
	}

	active, err := s.settings.ServiceActive(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrServiceInactive
	}

	busy, err := s.store.HasActiveByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrActiveTrip
	}

	route, err := s.routes.GetRoute(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, err
	}

	ref, err := s.settings.ReferencePrice(ctx)
	if err != nil {
		return nil, err
	}

	est, err := s.estimator.Estimate(ctx, pricing.Input{
		VehicleType:    string(cmd.VehicleType),
		DistanceKm:     route.DistanceKm,
		DurationMin:    route.DurationMin,
		ReferencePrice: ref,
		DeclaredValue:  cmd.DeclaredValue,
		Discount:       cmd.Discount,
		At:             s.now(),
	})
	if err != nil {
		return nil, err
	}

	t := &Trip{
		ID:               types.ID(uuid.NewString()),
		CustomerID:       cmd.CustomerID,
		VehicleType:      cmd.VehicleType,
		Pickup:           cmd.Pickup,
		Dropoff:          cmd.Dropoff,
		PickupAddress:    cmd.PickupAddress,
		DropoffAddress:   cmd.DropoffAddress,
		CargoDescription: cmd.CargoDescription,
		DeclaredValue:    cmd.DeclaredValue,
		Status:           StatusPending,
		StatusVersion:    1,
		DistanceKm:       route.DistanceKm,
		DurationMin:      route.DurationMin,
		Estimate:         est,
		CreatedAt:        s.now(),
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, t.ID, StatusNone, StatusPending, "customer", &cmd.CustomerID)

	if err := s.transition(ctx, t, StatusSearching, "system", nil); err != nil {
		return nil, err
	}

	// The trip is already persisted and searching; a broken driver search
	// must not fail the request.
	candidates, err := s.dispatcher.FindCandidates(ctx, cmd.Pickup, cmd.VehicleType)
	if err != nil && !errors.Is(err, dispatch.ErrNoDriversAvailable) {
		s.log.Error("driver search failed",
			logger.String("trip_id", string(t.ID)),
			logger.Error(err))
		candidates = nil
	}
	if len(candidates) > 0 {
		s.dispatcher.NotifyCandidates(ctx, dispatch.TripOffer{
			TripID:        t.ID,
			Pickup:        cmd.Pickup,
			Dropoff:       cmd.Dropoff,
			VehicleType:   cmd.VehicleType,
			EstimatedFare: est.Total,
		}, candidates)
	} else {
		s.log.Warn("no drivers available for trip",
			logger.String("trip_id", string(t.ID)),
			logger.String("vehicle_type", string(cmd.VehicleType)))
	}

	return &CreateResult{Trip: t, DriversNotified: len(candidates)}, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

// Events returns the trip's state history to its participants; admin
// callers see any trip.
func (s *Service) Events(ctx context.Context, id, caller types.ID, admin bool) ([]Event, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin {
		if _, err := partyOf(t, caller); err != nil {
			return nil, err
		}
	}
	return s.store.Events(ctx, id)
}

type AcceptCommand struct {
	TripID   types.ID
	DriverID types.ID
}

// Accept assigns the calling driver at the current price. When several
// drivers race for the same trip the version guard lets exactly one in.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusSearching {
		return nil, ErrConflict
	}
	if t.DriverID != nil && *t.DriverID != cmd.DriverID {
		return nil, ErrConflict
	}
	if err := s.transition(ctx, t, StatusAccepted, "driver", &cmd.DriverID); err != nil {
		return nil, err
	}
	s.notifyUser(ctx, t.CustomerID, "Driver found",
		"A driver accepted your trip", map[string]string{"trip_id": string(t.ID)})
	return s.store.Get(ctx, cmd.TripID)
}

type DriverCommand struct {
	TripID   types.ID
	DriverID types.ID
}

func (s *Service) Arrive(ctx context.Context, cmd DriverCommand) (*Trip, error) {
	return s.driverTransition(ctx, cmd, StatusArrived, "Driver arrived",
		"Your driver is at the pickup point")
}

func (s *Service) Start(ctx context.Context, cmd DriverCommand) (*Trip, error) {
	return s.driverTransition(ctx, cmd, StatusInProgress, "Trip started",
		"Your cargo is on the way")
}

func (s *Service) Complete(ctx context.Context, cmd DriverCommand) (*Trip, error) {
	return s.driverTransition(ctx, cmd, StatusCompleted, "Trip completed",
		"Your cargo has been delivered")
}

func (s *Service) driverTransition(ctx context.Context, cmd DriverCommand, to Status, title, body string) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.DriverID == nil || *t.DriverID != cmd.DriverID {
		return nil, ErrNotAuthorized
	}
	if !CanTransition(t.Status, to) {
		return nil, ErrInvalidState
	}
	if err := s.transition(ctx, t, to, "driver", &cmd.DriverID); err != nil {
		return nil, err
	}
	s.notifyUser(ctx, t.CustomerID, title, body, map[string]string{"trip_id": string(t.ID)})
	return s.store.Get(ctx, cmd.TripID)
}

type CancelCommand struct {
	TripID  types.ID
	ActorID types.ID
	Reason  string
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	party, err := partyOf(t, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}

	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCancelled, t.StatusVersion, nil, &reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.recordEvent(ctx, t.ID, t.Status, StatusCancelled, string(party), &cmd.ActorID)

	if party == PartyCustomer && t.DriverID != nil {
		s.notifyUser(ctx, *t.DriverID, "Trip cancelled",
			"The customer cancelled the trip", map[string]string{"trip_id": string(t.ID)})
	}
	if party == PartyDriver {
		s.notifyUser(ctx, t.CustomerID, "Trip cancelled",
			"Your driver cancelled the trip", map[string]string{"trip_id": string(t.ID)})
	}
	return s.store.Get(ctx, cmd.TripID)
}

// transition performs one guarded status move and records the event.
func (s *Service) transition(ctx context.Context, t *Trip, to Status, actorType string, actorID *types.ID) error {
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, to, t.StatusVersion, actorID, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordEvent(ctx, t.ID, t.Status, to, actorType, actorID)
	t.Status = to
	t.StatusVersion++
	return nil
}

func (s *Service) recordEvent(ctx context.Context, tripID types.ID, from, to Status, actorType string, actorID *types.ID) {
	ev := &Event{
		TripID:     tripID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendEvent(ctx, ev); err != nil {
		s.log.Error("recording trip event",
			logger.String("trip_id", string(tripID)),
			logger.String("to_status", string(to)),
			logger.Error(err))
	}
}

func (s *Service) notifyUser(ctx context.Context, userID types.ID, title, body string, data map[string]string) {
	token, err := s.store.DeviceToken(ctx, userID)
	if err != nil || token == "" {
		return
	}
	if err := s.push.Send(ctx, notify.Push{Token: token, Title: title, Body: body, Data: data}); err != nil {
		s.log.Warn("push delivery failed",
			logger.String("user_id", string(userID)),
			logger.Error(err))
	}
}

// partyOf identifies which side of the trip the actor is on.
func partyOf(t *Trip, actorID types.ID) (Party, error) {
	if actorID == t.CustomerID {
		return PartyCustomer, nil
	}
	if t.DriverID != nil && actorID == *t.DriverID {
		return PartyDriver, nil
	}
	return "", ErrNotAuthorized
}

func validPoint(p types.Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!(p.Lat == 0 && p.Lng == 0)
}
