package trip

import (
	"context"
	"strconv"

	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// Fare negotiation. While a trip is pre-acceptance the customer and a
// driver can trade counter-offers; negotiated_fare always holds the latest
// one. Accepting an offer closes the window: it locks the amount into
// final_fare and moves the trip to accepted in a single guarded write.
// The first driver to counter-offer claims the trip, after that only the
// claiming driver may negotiate.

type OfferCommand struct {
	TripID  types.ID
	ActorID types.ID
	Amount  int64
}

func (s *Service) CustomerOffer(ctx context.Context, cmd OfferCommand) (*Trip, error) {
	if cmd.Amount <= 0 {
		return nil, ErrBadRequest
	}
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != t.CustomerID {
		return nil, ErrNotAuthorized
	}
	if !preAcceptance(t.Status) {
		return nil, ErrInvalidState
	}

	entry := NegotiationEntry{From: PartyCustomer, Amount: cmd.Amount, At: s.now()}
	ok, err := s.store.AppendOffer(ctx, t.ID, entry, t.StatusVersion, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if t.DriverID != nil {
		s.notifyUser(ctx, *t.DriverID, "New price offer",
			"The customer proposed a new price", offerData(t.ID, cmd.Amount))
	}
	return s.store.Get(ctx, cmd.TripID)
}

func (s *Service) DriverCounterOffer(ctx context.Context, cmd OfferCommand) (*Trip, error) {
	if cmd.Amount <= 0 {
		return nil, ErrBadRequest
	}
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.DriverID != nil && *t.DriverID != cmd.ActorID {
		return nil, ErrNotAuthorized
	}
	if t.Status != StatusSearching {
		return nil, ErrInvalidState
	}

	entry := NegotiationEntry{From: PartyDriver, Amount: cmd.Amount, At: s.now()}
	ok, err := s.store.AppendOffer(ctx, t.ID, entry, t.StatusVersion, &cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	s.notifyUser(ctx, t.CustomerID, "Driver counter-offer",
		"A driver proposed a price for your trip", offerData(t.ID, cmd.Amount))
	return s.store.Get(ctx, cmd.TripID)
}

type OfferDecisionCommand struct {
	TripID  types.ID
	ActorID types.ID
}

// AcceptOffer locks the negotiated fare as the final fare and assigns the
// trip. A driver accepting a customer's open offer claims the trip at the
// same time.
func (s *Service) AcceptOffer(ctx context.Context, cmd OfferDecisionCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	party, claim, err := negotiationParty(t, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if !preAcceptance(t.Status) {
		return nil, ErrInvalidState
	}
	if t.NegotiatedFare == nil {
		return nil, ErrNoActiveOffer
	}
	if party == PartyCustomer && t.DriverID == nil {
		// nobody to accept on behalf of yet
		return nil, ErrNoActiveOffer
	}

	fare, ok, err := s.store.AcceptOffer(ctx, t.ID, t.StatusVersion, claim)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.recordEvent(ctx, t.ID, t.Status, StatusAccepted, string(party), &cmd.ActorID)
	s.log.Info("negotiated fare locked",
		logger.String("trip_id", string(t.ID)),
		logger.Int64("final_fare", fare))

	updated, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if party == PartyDriver {
		s.notifyUser(ctx, t.CustomerID, "Offer accepted",
			"The driver accepted your price", offerData(t.ID, fare))
	} else if updated.DriverID != nil {
		s.notifyUser(ctx, *updated.DriverID, "Offer accepted",
			"The customer accepted your price", offerData(t.ID, fare))
	}
	return updated, nil
}

// RejectOffer clears the offer on the table. The negotiation history is
// kept; either side can open a fresh round.
func (s *Service) RejectOffer(ctx context.Context, cmd OfferDecisionCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	party, _, err := negotiationParty(t, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if !preAcceptance(t.Status) {
		return nil, ErrInvalidState
	}
	if t.NegotiatedFare == nil {
		return nil, ErrNoActiveOffer
	}

	ok, err := s.store.ClearOffer(ctx, t.ID, t.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if party == PartyDriver {
		s.notifyUser(ctx, t.CustomerID, "Offer declined",
			"The driver declined your price", map[string]string{"trip_id": string(t.ID)})
	} else if t.DriverID != nil {
		s.notifyUser(ctx, *t.DriverID, "Offer declined",
			"The customer declined your price", map[string]string{"trip_id": string(t.ID)})
	}
	return s.store.Get(ctx, cmd.TripID)
}

// negotiationParty resolves the actor's side for offer decisions. An
// unassigned trip treats any non-customer actor as a claiming driver.
func negotiationParty(t *Trip, actorID types.ID) (Party, *types.ID, error) {
	if actorID == t.CustomerID {
		return PartyCustomer, nil, nil
	}
	if t.DriverID == nil {
		claim := actorID
		return PartyDriver, &claim, nil
	}
	if *t.DriverID == actorID {
		return PartyDriver, nil, nil
	}
	return "", nil, ErrNotAuthorized
}

func offerData(tripID types.ID, amount int64) map[string]string {
	return map[string]string{
		"trip_id": string(tripID),
		"amount":  strconv.FormatInt(amount, 10),
	}
}
