package rates

import (
	"context"
	"sync"
	"testing"
)

// memStore is an in-memory Store for unit tests.
type memStore struct {
	mu       sync.Mutex
	entries  map[VehicleType]Entry
	settings map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		entries:  make(map[VehicleType]Entry),
		settings: make(map[string]string),
	}
}

func (m *memStore) GetEntry(_ context.Context, vt VehicleType) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[vt]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memStore) UpsertEntry(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.VehicleType] = e
	return nil
}

func (m *memStore) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	if !ok {
		return "", errSettingNotFound
	}
	return v, nil
}

func (m *memStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func TestValidate(t *testing.T) {
	linear := Entry{
		VehicleType:        VehicleKirikuu,
		PricingModel:       ModelLinear,
		BaseFareMultiplier: 4.7,
		PerKmMultiplier:    0.5,
		MinFareMultiplier:  5.0,
		IsActive:           true,
	}

	cases := []struct {
		name    string
		mutate  func(e Entry) Entry
		wantErr bool
	}{
		{"valid linear", func(e Entry) Entry { return e }, false},
		{"unknown vehicle type", func(e Entry) Entry { e.VehicleType = "matatu"; return e }, true},
		{"unknown model", func(e Entry) Entry { e.PricingModel = "quadratic"; return e }, true},
		{"zero min fare", func(e Entry) Entry { e.MinFareMultiplier = 0; return e }, true},
		{"zero per km", func(e Entry) Entry { e.PerKmMultiplier = 0; return e }, true},
		{"negative demurrage", func(e Entry) Entry { e.DemurrageMultiplier = -1; return e }, true},
		{"range without tiers", func(e Entry) Entry {
			e.PricingModel = ModelRange
			e.RangeTiers = nil
			return e
		}, true},
		{"range tiers out of order", func(e Entry) Entry {
			e.PricingModel = ModelRange
			e.RangeTiers = []Tier{{MaxKm: 7, Multiplier: 2}, {MaxKm: 3, Multiplier: 1}}
			return e
		}, true},
		{"range tiers duplicate boundary", func(e Entry) Entry {
			e.PricingModel = ModelRange
			e.RangeTiers = []Tier{{MaxKm: 3, Multiplier: 1}, {MaxKm: 3, Multiplier: 2}}
			return e
		}, true},
		{"range tier non-positive multiplier", func(e Entry) Entry {
			e.PricingModel = ModelRange
			e.RangeTiers = []Tier{{MaxKm: 3, Multiplier: 0}}
			return e
		}, true},
		{"valid range", func(e Entry) Entry {
			e.PricingModel = ModelRange
			e.RangeTiers = []Tier{{MaxKm: 3, Multiplier: 1}, {MaxKm: 7, Multiplier: 1.6}}
			return e
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.mutate(linear))
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLookup_InactiveEntryHidden(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	e := Entry{
		VehicleType:        VehiclePickup,
		PricingModel:       ModelLinear,
		BaseFareMultiplier: 6.2,
		PerKmMultiplier:    0.7,
		MinFareMultiplier:  6.5,
		IsActive:           false,
	}
	if err := svc.Upsert(ctx, e); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.Lookup(ctx, VehiclePickup); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for inactive entry, got %v", err)
	}
}

func TestSeed_AllTypesActive(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, vt := range AllVehicleTypes {
		e, err := svc.Lookup(ctx, vt)
		if err != nil {
			t.Errorf("lookup %s after seed: %v", vt, err)
			continue
		}
		if err := Validate(e); err != nil {
			t.Errorf("seeded entry %s invalid: %v", vt, err)
		}
	}

	// Seeding twice must not fail.
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
}

func TestReferencePriceDefaultAndOverride(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.ReferencePrice(ctx)
	if err != nil {
		t.Fatalf("reference price: %v", err)
	}
	if p != defaultReferencePrice {
		t.Fatalf("expected default %d, got %d", defaultReferencePrice, p)
	}

	if err := svc.SetReferencePrice(ctx, 3550); err != nil {
		t.Fatalf("set reference price: %v", err)
	}
	p, err = svc.ReferencePrice(ctx)
	if err != nil {
		t.Fatalf("reference price: %v", err)
	}
	if p != 3550 {
		t.Fatalf("expected 3550, got %d", p)
	}

	if err := svc.SetReferencePrice(ctx, 0); err == nil {
		t.Fatal("expected error for zero reference price")
	}
}

func TestServiceActiveToggle(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	active, err := svc.ServiceActive(ctx)
	if err != nil {
		t.Fatalf("service active: %v", err)
	}
	if !active {
		t.Fatal("expected service active by default")
	}

	if err := svc.SetServiceActive(ctx, false); err != nil {
		t.Fatalf("set inactive: %v", err)
	}
	active, err = svc.ServiceActive(ctx)
	if err != nil {
		t.Fatalf("service active: %v", err)
	}
	if active {
		t.Fatal("expected service inactive after toggle")
	}
}
