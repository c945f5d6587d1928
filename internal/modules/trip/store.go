package trip

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ephraimdevelops/bebax/internal/types"
)

// Store is the persistence surface the service needs. Every mutation is
// version-guarded: the bool result reports whether the guarded row was
// actually updated, false means another writer got there first.
type Store interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error)

	// UpdateStatus moves the trip from one status to another, bumping
	// status_version and stamping the per-status timestamp. driverID is
	// assigned on the accepted transition, reason recorded on cancel.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error)

	// AppendOffer records one negotiation entry and sets negotiated_fare.
	// claimDriver, when non-nil, assigns the driver if the seat is still
	// empty. Only valid while the trip is pre-acceptance.
	AppendOffer(ctx context.Context, id types.ID, e NegotiationEntry, version int, claimDriver *types.ID) (bool, error)

	// ClearOffer wipes negotiated_fare, leaving the entry history intact.
	ClearOffer(ctx context.Context, id types.ID, version int) (bool, error)

	// AcceptOffer locks negotiated_fare into final_fare and moves the trip
	// to accepted in one guarded write. Fails if no offer is on the table.
	AcceptOffer(ctx context.Context, id types.ID, version int, claimDriver *types.ID) (finalFare int64, ok bool, err error)

	AppendEvent(ctx context.Context, ev *Event) error
	Events(ctx context.Context, id types.ID) ([]Event, error)
	DeviceToken(ctx context.Context, userID types.ID) (string, error)
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const tripColumns = `
    id, customer_id, driver_id, vehicle_type,
    pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
    pickup_address, dropoff_address, cargo_description, declared_value,
    status, status_version, distance_km, duration_min,
    base_fare, distance_fare, time_fare, peak_surcharge, insurance_fee,
    discount, estimated_total, currency,
    negotiated_fare, final_fare, created_at,
    accepted_at, arrived_at, started_at, completed_at, cancelled_at, cancel_reason`

func (s *PgStore) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO trips (`+tripColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
                $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
                $27, $28, $29, $30, $31, $32, $33)`,
		string(t.ID), string(t.CustomerID), idPtr(t.DriverID), string(t.VehicleType),
		t.Pickup.Lat, t.Pickup.Lng, t.Dropoff.Lat, t.Dropoff.Lng,
		t.PickupAddress, t.DropoffAddress, t.CargoDescription, t.DeclaredValue,
		string(t.Status), t.StatusVersion, t.DistanceKm, t.DurationMin,
		t.Estimate.BaseFare, t.Estimate.DistanceFare, t.Estimate.TimeFare,
		t.Estimate.PeakSurcharge, t.Estimate.Insurance,
		t.Estimate.Discount, t.Estimate.Total, t.Estimate.Currency,
		t.NegotiatedFare, t.FinalFare, t.CreatedAt,
		t.AcceptedAt, t.ArrivedAt, t.StartedAt, t.CompletedAt, t.CancelledAt, t.CancelReason,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))

	var t Trip
	var driverID, cancelReason *string
	err := row.Scan(
		&t.ID, &t.CustomerID, &driverID, &t.VehicleType,
		&t.Pickup.Lat, &t.Pickup.Lng, &t.Dropoff.Lat, &t.Dropoff.Lng,
		&t.PickupAddress, &t.DropoffAddress, &t.CargoDescription, &t.DeclaredValue,
		&t.Status, &t.StatusVersion, &t.DistanceKm, &t.DurationMin,
		&t.Estimate.BaseFare, &t.Estimate.DistanceFare, &t.Estimate.TimeFare,
		&t.Estimate.PeakSurcharge, &t.Estimate.Insurance,
		&t.Estimate.Discount, &t.Estimate.Total, &t.Estimate.Currency,
		&t.NegotiatedFare, &t.FinalFare, &t.CreatedAt,
		&t.AcceptedAt, &t.ArrivedAt, &t.StartedAt, &t.CompletedAt, &t.CancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID != nil {
		d := types.ID(*driverID)
		t.DriverID = &d
	}
	t.CancelReason = cancelReason

	if err := s.loadNegotiation(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PgStore) loadNegotiation(ctx context.Context, t *Trip) error {
	rows, err := s.db.Query(ctx, `
        SELECT party, amount, created_at
        FROM trip_negotiation_entries
        WHERE trip_id = $1
        ORDER BY id`, string(t.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e NegotiationEntry
		if err := rows.Scan(&e.From, &e.Amount, &e.At); err != nil {
			return err
		}
		t.Negotiation = append(t.Negotiation, e)
	}
	return rows.Err()
}

func (s *PgStore) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM trips
            WHERE customer_id = $1
              AND status NOT IN ('completed', 'cancelled')
        )`, string(customerID))
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// timestampColumn maps a target status to the column stamped on entry.
func timestampColumn(to Status) string {
	switch to {
	case StatusAccepted:
		return "accepted_at"
	case StatusArrived:
		return "arrived_at"
	case StatusInProgress:
		return "started_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	}
	return ""
}

func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error) {
	set := `status = $1, status_version = status_version + 1`
	if col := timestampColumn(to); col != "" {
		set += `, ` + col + ` = NOW()`
	}
	if to == StatusCompleted {
		// freeze the fare: negotiated price wins over the estimate, an
		// already-locked final fare is never overwritten
		set += `, final_fare = COALESCE(final_fare, negotiated_fare, estimated_total)`
	}

	args := []any{string(to), string(id), string(from), version}
	if driverID != nil {
		set += fmt.Sprintf(`, driver_id = $%d`, len(args)+1)
		args = append(args, string(*driverID))
	}
	if reason != nil {
		set += fmt.Sprintf(`, cancel_reason = $%d`, len(args)+1)
		args = append(args, *reason)
	}

	tag, err := s.db.Exec(ctx, `
        UPDATE trips SET `+set+`
        WHERE id = $2 AND status = $3 AND status_version = $4`, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) AppendOffer(ctx context.Context, id types.ID, e NegotiationEntry, version int, claimDriver *types.ID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE trips SET
            negotiated_fare = $1,
            driver_id = COALESCE(driver_id, $2),
            status_version = status_version + 1
        WHERE id = $3 AND status_version = $4
          AND status IN ('pending', 'searching')`,
		e.Amount, idPtr(claimDriver), string(id), version)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO trip_negotiation_entries (trip_id, party, amount, created_at)
        VALUES ($1, $2, $3, $4)`,
		string(id), string(e.From), e.Amount, e.At)
	if err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *PgStore) ClearOffer(ctx context.Context, id types.ID, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE trips SET
            negotiated_fare = NULL,
            status_version = status_version + 1
        WHERE id = $1 AND status_version = $2
          AND status IN ('pending', 'searching')`,
		string(id), version)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) AcceptOffer(ctx context.Context, id types.ID, version int, claimDriver *types.ID) (int64, bool, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE trips SET
            status = 'accepted',
            status_version = status_version + 1,
            final_fare = negotiated_fare,
            driver_id = COALESCE(driver_id, $1),
            accepted_at = NOW()
        WHERE id = $2 AND status_version = $3
          AND status IN ('pending', 'searching')
          AND negotiated_fare IS NOT NULL
        RETURNING final_fare`,
		idPtr(claimDriver), string(id), version)

	var fare int64
	err := row.Scan(&fare)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return fare, true, nil
}

func (s *PgStore) AppendEvent(ctx context.Context, ev *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO trip_state_events (trip_id, from_status, to_status, actor_type, actor_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.TripID), string(ev.FromStatus), string(ev.ToStatus),
		ev.ActorType, idPtr(ev.ActorID), ev.CreatedAt)
	return err
}

func (s *PgStore) Events(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, trip_id, from_status, to_status, actor_type, actor_id, created_at
        FROM trip_state_events
        WHERE trip_id = $1
        ORDER BY id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var actorID *string
		if err := rows.Scan(&ev.ID, &ev.TripID, &ev.FromStatus, &ev.ToStatus,
			&ev.ActorType, &actorID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			a := types.ID(*actorID)
			ev.ActorID = &a
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PgStore) DeviceToken(ctx context.Context, userID types.ID) (string, error) {
	row := s.db.QueryRow(ctx,
		`SELECT token FROM device_tokens WHERE user_id = $1`, string(userID))
	var token string
	err := row.Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return token, err
}

func idPtr(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
