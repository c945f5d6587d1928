package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ephraimdevelops/bebax/internal/config"
	"github.com/Ephraimdevelops/bebax/internal/logger"
	"github.com/Ephraimdevelops/bebax/internal/modules/rates"
	"github.com/Ephraimdevelops/bebax/internal/notify"
	"github.com/Ephraimdevelops/bebax/internal/types"
)

// mockIndex returns a fixed candidate set; the service does the radius
// filtering, so the mock only records how it was queried.
type mockIndex struct {
	mu         sync.Mutex
	candidates []Candidate
	calls      int
	precisions []int
}

func (m *mockIndex) EligibleInCells(_ context.Context, cells []string, vehicleTypes []rates.VehicleType) ([]Candidate, error) {
	m.mu.Lock()
	m.calls++
	if len(cells) > 0 {
		m.precisions = append(m.precisions, len(cells[0]))
	}
	m.mu.Unlock()

	allowed := make(map[rates.VehicleType]bool, len(vehicleTypes))
	for _, vt := range vehicleTypes {
		allowed[vt] = true
	}
	var out []Candidate
	for _, c := range m.candidates {
		if allowed[c.VehicleType] {
			out = append(out, c)
		}
	}
	return out, nil
}

// capturingSender records pushes and can fail specific tokens.
type capturingSender struct {
	mu     sync.Mutex
	sent   []notify.Push
	failOn map[string]bool
}

func (s *capturingSender) Send(_ context.Context, p notify.Push) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[p.Token] {
		return errors.New("device unreachable")
	}
	s.sent = append(s.sent, p)
	return nil
}

var pickup = types.Point{Lat: -6.8000, Lng: 39.2800}

// driverAt places a driver roughly km kilometres north of pickup.
func driverAt(id string, vt rates.VehicleType, km, rating float64) Candidate {
	return Candidate{
		DriverID:    types.ID(id),
		VehicleType: vt,
		Position:    types.Point{Lat: pickup.Lat + km/111.0, Lng: pickup.Lng},
		Rating:      rating,
		DeviceToken: "tok_" + id,
	}
}

func testCfg() config.DispatchConfig {
	return config.DispatchConfig{InitialRadiusKm: 2.0, MaxRadiusKm: 16.0}
}

func newTestService(idx Index, push notify.Sender) *Service {
	if push == nil {
		push = notify.Nop{}
	}
	return NewService(idx, push, testCfg(), logger.Nop())
}

func TestFindCandidates_SortedByDistanceThenRating(t *testing.T) {
	idx := &mockIndex{candidates: []Candidate{
		driverAt("far", rates.VehicleKirikuu, 1.8, 5.0),
		driverAt("near", rates.VehicleKirikuu, 0.3, 3.0),
		driverAt("mid", rates.VehicleKirikuu, 1.0, 4.0),
	}}
	svc := newTestService(idx, nil)

	got, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleKirikuu)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Errorf("distances not non-decreasing at %d: %f < %f", i, got[i].DistanceKm, got[i-1].DistanceKm)
		}
	}
	if got[0].DriverID != "near" || got[2].DriverID != "far" {
		t.Errorf("unexpected order: %v %v %v", got[0].DriverID, got[1].DriverID, got[2].DriverID)
	}
}

func TestFindCandidates_RatingBreaksTies(t *testing.T) {
	a := driverAt("low_rated", rates.VehicleBoda, 1.0, 3.9)
	b := driverAt("high_rated", rates.VehicleBoda, 1.0, 4.8)
	idx := &mockIndex{candidates: []Candidate{a, b}}
	svc := newTestService(idx, nil)

	got, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleBoda)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got[0].DriverID != "high_rated" {
		t.Errorf("expected high_rated first on equal distance, got %s", got[0].DriverID)
	}
}

func TestFindCandidates_RadiusExpansion(t *testing.T) {
	// Only driver is ~6 km out: found on the third ring (2 -> 4 -> 8 km).
	idx := &mockIndex{candidates: []Candidate{
		driverAt("d1", rates.VehicleKirikuu, 6.0, 4.5),
	}}
	svc := newTestService(idx, nil)

	got, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleKirikuu)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d1" {
		t.Fatalf("expected d1, got %v", got)
	}
	if idx.calls != 3 {
		t.Errorf("expected 3 ring scans, got %d", idx.calls)
	}
	// Wider rings scan coarser cells.
	for i := 1; i < len(idx.precisions); i++ {
		if idx.precisions[i] > idx.precisions[i-1] {
			t.Errorf("precision grew with radius: %v", idx.precisions)
		}
	}
}

func TestFindCandidates_ExhaustsCap(t *testing.T) {
	idx := &mockIndex{} // nobody online
	svc := newTestService(idx, nil)

	_, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleFuso)
	if !errors.Is(err, ErrNoDriversAvailable) {
		t.Fatalf("expected ErrNoDriversAvailable, got %v", err)
	}
	// 2, 4, 8, 16 km rings then give up.
	if idx.calls != 4 {
		t.Errorf("expected 4 ring scans before giving up, got %d", idx.calls)
	}
}

func TestFindCandidates_SupersetOnlyWithoutExactMatch(t *testing.T) {
	// A pickup truck is closer, but a kirikuu is in range: exact match wins.
	idx := &mockIndex{candidates: []Candidate{
		driverAt("bigger", rates.VehiclePickup, 0.4, 5.0),
		driverAt("exact", rates.VehicleKirikuu, 1.5, 4.0),
	}}
	svc := newTestService(idx, nil)

	got, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleKirikuu)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "exact" {
		t.Fatalf("expected only the exact match, got %v", got)
	}

	// With no kirikuu online, the larger class serves the request.
	idx = &mockIndex{candidates: []Candidate{
		driverAt("bigger", rates.VehiclePickup, 0.4, 5.0),
	}}
	svc = newTestService(idx, nil)
	got, err = svc.FindCandidates(context.Background(), pickup, rates.VehicleKirikuu)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "bigger" {
		t.Fatalf("expected superset fallback, got %v", got)
	}
}

func TestFindCandidates_IncompatibleClassNeverServes(t *testing.T) {
	// A boda cannot serve a kirikuu request no matter how close.
	idx := &mockIndex{candidates: []Candidate{
		driverAt("tiny", rates.VehicleBoda, 0.2, 5.0),
	}}
	svc := newTestService(idx, nil)

	_, err := svc.FindCandidates(context.Background(), pickup, rates.VehicleKirikuu)
	if !errors.Is(err, ErrNoDriversAvailable) {
		t.Fatalf("expected ErrNoDriversAvailable, got %v", err)
	}
}

func TestNotifyCandidates_BestEffort(t *testing.T) {
	sender := &capturingSender{failOn: map[string]bool{"tok_d2": true}}
	svc := newTestService(&mockIndex{}, sender)

	offer := TripOffer{
		TripID:        "t1",
		Pickup:        pickup,
		Dropoff:       types.Point{Lat: -6.75, Lng: 39.25},
		VehicleType:   rates.VehicleKirikuu,
		EstimatedFare: 31040,
	}
	cands := []Candidate{
		driverAt("d1", rates.VehicleKirikuu, 1, 4.0),
		driverAt("d2", rates.VehicleKirikuu, 2, 4.0),
		driverAt("d3", rates.VehicleKirikuu, 3, 4.0),
	}
	svc.NotifyCandidates(context.Background(), offer, cands)

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 delivered pushes, got %d", len(sender.sent))
	}
	for _, p := range sender.sent {
		if p.Data["trip_id"] != "t1" {
			t.Errorf("push missing trip id: %v", p.Data)
		}
		if p.Data["estimated_fare"] != "31040" {
			t.Errorf("push missing fare: %v", p.Data)
		}
	}
}
