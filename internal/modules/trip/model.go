// Package trip owns the trip aggregate: its status state machine, the
// customer/driver fare negotiation, and the frozen final fare.
package trip

import (
	"time"

	"github.com/Ephraimdevelops/bebax/internal/modules/pricing"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusSearching  Status = "searching"
	StatusAccepted   Status = "accepted"
	StatusArrived    Status = "arrived"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions is the trip state flow as code. Cancel is reachable
// from every non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusSearching, StatusCancelled},
	StatusSearching:  {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusArrived, StatusCancelled},
	StatusArrived:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// preAcceptance reports whether fare negotiation is still open.
func preAcceptance(s Status) bool {
	return s == StatusPending || s == StatusSearching
}

type Party string

const (
	PartyCustomer Party = "customer"
	PartyDriver   Party = "driver"
)

// NegotiationEntry is one price offer in a trip's append-only negotiation
// history.
type NegotiationEntry struct {
	From   Party
	Amount int64
	At     time.Time
}

type Event struct {
	ID         int64
	TripID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// Trip is the aggregate. Request fields are immutable after a driver
// accepts; only status, negotiation and fares move after that.
type Trip struct {
	ID               types.ID
	CustomerID       types.ID
	DriverID         *types.ID
	VehicleType      rates.VehicleType
	Pickup           types.Point
	Dropoff          types.Point
	PickupAddress    string
	DropoffAddress   string
	CargoDescription string
	DeclaredValue    int64
	Status           Status
	StatusVersion    int
	DistanceKm       float64
	DurationMin      float64
	Estimate         pricing.Breakdown
	NegotiatedFare   *int64
	FinalFare        *int64
	Negotiation      []NegotiationEntry
	CreatedAt        time.Time
	AcceptedAt       *time.Time
	ArrivedAt        *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     *string
}

// FinalAmount returns the frozen fare as money; nil until a final fare is
// locked by offer acceptance or completion.
func (t *Trip) FinalAmount() *types.Money {
	if t.FinalFare == nil {
		return nil
	}
	return &types.Money{Amount: *t.FinalFare, Currency: t.Estimate.Currency}
}
