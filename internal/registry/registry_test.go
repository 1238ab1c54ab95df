package registry

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/ride-sharing/internal/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

type recorder struct{ events []models.Event }

func (r *recorder) Observe(e models.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []models.EventKind {
	out := make([]models.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestEndToEndPremiumRide(t *testing.T) {
	reg := New()
	a := reg.AddDriver("A", models.DefaultRating)
	b := reg.AddRider("B", models.DefaultPaymentMethod)

	ride, err := reg.CreateRide("premium", "X", "Y", 10.0, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(ride.Fare(), 45) {
		t.Fatalf("fare = %v, want 45", ride.Fare())
	}
	if !almostEqual(a.TotalEarnings(), 45) {
		t.Fatalf("earnings = %v, want 45", a.TotalEarnings())
	}
	if !almostEqual(b.TotalSpending(), 45) {
		t.Fatalf("spending = %v, want 45", b.TotalSpending())
	}
	if !almostEqual(reg.AggregateRevenue(), 45) {
		t.Fatalf("revenue = %v, want 45", reg.AggregateRevenue())
	}
	dist := reg.RideTypeDistribution()
	want := map[models.RideType]int{models.RideTypeStandard: 0, models.RideTypePremium: 1, models.RideTypeEconomy: 0}
	if len(dist) != len(want) {
		t.Fatalf("distribution = %v, want %v", dist, want)
	}
	for k, v := range want {
		if dist[k] != v {
			t.Fatalf("distribution[%s] = %d, want %d", k, dist[k], v)
		}
	}
}

func TestIdentifiersAreIndependentSequences(t *testing.T) {
	reg := New()
	d1 := reg.AddDriver("D1", 4.8)
	d2 := reg.AddDriver("D2", 4.9)
	r1 := reg.AddRider("R1", "")
	if d1.ID() != 1 || d2.ID() != 2 || r1.ID() != 1 {
		t.Fatalf("unexpected ids: %d %d %d", d1.ID(), d2.ID(), r1.ID())
	}
	ride1, _ := reg.CreateRide("standard", "A", "B", 1, d1, r1)
	ride2, _ := reg.CreateRide("economy", "B", "C", 1, d2, r1)
	if ride1.ID() != 1 || ride2.ID() != 2 {
		t.Fatalf("unexpected ride ids: %d %d", ride1.ID(), ride2.ID())
	}
	if r1.PaymentMethod() != models.DefaultPaymentMethod {
		t.Fatalf("empty payment method should default, got %q", r1.PaymentMethod())
	}
}

func TestUnknownRideTypeSpendsNoID(t *testing.T) {
	rec := &recorder{}
	reg := New(WithObserver(rec))
	d := reg.AddDriver("A", models.DefaultRating)
	r := reg.AddRider("B", models.DefaultPaymentMethod)

	if _, err := reg.CreateRide("scooter", "X", "Y", 3, d, r); !errors.Is(err, models.ErrUnknownRideType) {
		t.Fatalf("expected ErrUnknownRideType, got %v", err)
	}
	if len(reg.Rides()) != 0 || d.RideCount() != 0 || r.RideCount() != 0 {
		t.Fatalf("rejected ride left state behind")
	}
	if len(rec.events) != 2 {
		t.Fatalf("rejected ride emitted events: %v", rec.kinds())
	}

	ride, err := reg.CreateRide("standard", "X", "Y", 3, d, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.ID() != 1 {
		t.Fatalf("ride id = %d, want 1", ride.ID())
	}
}

func TestIncompleteAssignmentSpendsIDAndLinksNothing(t *testing.T) {
	rec := &recorder{}
	reg := New(WithObserver(rec))
	d := reg.AddDriver("A", models.DefaultRating)
	r := reg.AddRider("B", models.DefaultPaymentMethod)

	tests := []struct {
		name   string
		driver *models.Driver
		rider  *models.Rider
	}{
		{"no driver", nil, r},
		{"no rider", d, nil},
		{"neither", nil, nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ride, err := reg.CreateRide("economy", "X", "Y", 4, tt.driver, tt.rider)
			if !errors.Is(err, models.ErrIncompleteRideAssignment) {
				t.Fatalf("expected ErrIncompleteRideAssignment, got %v", err)
			}
			if ride.ID() != i+1 {
				t.Fatalf("ride id = %d, want %d", ride.ID(), i+1)
			}
		})
	}

	if len(reg.Rides()) != 0 || d.RideCount() != 0 || r.RideCount() != 0 {
		t.Fatalf("discarded rides were linked")
	}
	if reg.AggregateRevenue() != 0 {
		t.Fatalf("discarded rides counted in revenue")
	}
	if _, ok := reg.FindRide(1); ok {
		t.Fatalf("discarded ride should not be found")
	}

	ride, err := reg.CreateRide("economy", "X", "Y", 4, d, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.ID() != 4 {
		t.Fatalf("ride id = %d, want 4", ride.ID())
	}

	discarded := 0
	for _, e := range rec.events {
		if e.Kind == models.EventRideDiscarded {
			discarded++
		}
	}
	if discarded != 3 {
		t.Fatalf("discarded events = %d, want 3", discarded)
	}
}

func TestFindMissing(t *testing.T) {
	reg := New()
	reg.AddDriver("A", models.DefaultRating)
	reg.AddRider("B", models.DefaultPaymentMethod)
	if d, ok := reg.FindDriver(9999); ok || d != nil {
		t.Fatalf("expected driver not found")
	}
	if r, ok := reg.FindRider(9999); ok || r != nil {
		t.Fatalf("expected rider not found")
	}
	if d, ok := reg.FindDriver(1); !ok || d.Name() != "A" {
		t.Fatalf("expected driver 1")
	}
}

func TestRateDriver(t *testing.T) {
	reg := New()
	d := reg.AddDriver("A", 4.0)

	if _, err := reg.RateDriver(42, 3); !errors.Is(err, models.ErrDriverNotFound) || !errors.Is(err, models.ErrEntityNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
	if _, err := reg.RateDriver(d.ID(), 5.5); !errors.Is(err, models.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if d.Rating() != 4.0 {
		t.Fatalf("rating changed on rejection")
	}
	if _, err := reg.RateDriver(d.ID(), 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Rating() != 4.5 {
		t.Fatalf("rating = %v, want 4.5", d.Rating())
	}
}

func TestSetRiderPaymentMethod(t *testing.T) {
	reg := New()
	r := reg.AddRider("B", "Cash")
	if _, err := reg.SetRiderPaymentMethod(7, "PayPal"); !errors.Is(err, models.ErrRiderNotFound) {
		t.Fatalf("expected ErrRiderNotFound, got %v", err)
	}
	if _, err := reg.SetRiderPaymentMethod(r.ID(), "PayPal"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PaymentMethod() != "PayPal" {
		t.Fatalf("payment method = %q", r.PaymentMethod())
	}
}

func TestStatsAndReport(t *testing.T) {
	reg := New()
	d1 := reg.AddDriver("John Smith", 4.8)
	d2 := reg.AddDriver("Maria Garcia", 4.9)
	r1 := reg.AddRider("Alice Johnson", "Credit Card")
	r2 := reg.AddRider("Bob Wilson", "PayPal")

	mustRide(t, reg, "standard", 5.2, d1, r1)
	mustRide(t, reg, "premium", 8.7, d2, r2)
	mustRide(t, reg, "economy", 3.1, d1, r2)
	mustRide(t, reg, "standard", 2.0, d2, r1)

	s := reg.Stats()
	if s.Drivers != 2 || s.Riders != 2 || s.Rides != 4 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	wantRevenue := 2.5*5.2 + 2.5*8.7*1.8 + 2.5*3.1*0.7 + 2.5*2.0
	if !almostEqual(s.TotalRevenue, wantRevenue) {
		t.Fatalf("revenue = %v, want %v", s.TotalRevenue, wantRevenue)
	}
	if s.Distribution[models.RideTypeStandard] != 2 || s.Distribution[models.RideTypePremium] != 1 || s.Distribution[models.RideTypeEconomy] != 1 {
		t.Fatalf("unexpected distribution: %v", s.Distribution)
	}
	if !almostEqual(d1.TotalEarnings()+d2.TotalEarnings(), wantRevenue) {
		t.Fatalf("driver earnings do not add up to revenue")
	}
	if !almostEqual(r1.TotalSpending()+r2.TotalSpending(), wantRevenue) {
		t.Fatalf("rider spending does not add up to revenue")
	}

	rep := reg.RideReport()
	if len(rep.Rides) != 4 || !almostEqual(rep.TotalRevenue, wantRevenue) {
		t.Fatalf("unexpected report: %+v", rep)
	}
	for i, d := range rep.Rides {
		if d.ID != i+1 {
			t.Fatalf("report out of creation order at %d: %d", i, d.ID)
		}
	}
	if ride, ok := reg.FindRide(2); !ok || ride.Type() != models.RideTypePremium {
		t.Fatalf("expected premium ride 2")
	}
	if len(reg.Drivers()) != 2 || len(reg.Riders()) != 2 {
		t.Fatalf("unexpected entity lists")
	}
}

func TestEmptyRegistry(t *testing.T) {
	reg := New()
	if reg.AggregateRevenue() != 0 {
		t.Fatalf("empty revenue should be 0")
	}
	dist := reg.RideTypeDistribution()
	for _, rt := range models.RideTypes() {
		if v, ok := dist[rt]; !ok || v != 0 {
			t.Fatalf("distribution[%s] = %d, %v", rt, v, ok)
		}
	}
	if rep := reg.RideReport(); len(rep.Rides) != 0 {
		t.Fatalf("empty report should list no rides")
	}
}

func TestObserversSeeEvents(t *testing.T) {
	at := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	rec := &recorder{}
	var fn []models.EventKind
	reg := New(
		WithObserver(rec),
		WithObserver(ObserverFunc(func(e models.Event) { fn = append(fn, e.Kind) })),
		WithObserver(nil),
		WithClock(func() time.Time { return at }),
	)
	d := reg.AddDriver("A", 5)
	r := reg.AddRider("B", "Cash")
	mustRide(t, reg, "standard", 2, d, r)
	_, _ = reg.RateDriver(d.ID(), 3)
	_, _ = reg.SetRiderPaymentMethod(r.ID(), "Card")

	want := []models.EventKind{
		models.EventDriverAdded,
		models.EventRiderAdded,
		models.EventRideCreated,
		models.EventDriverRated,
		models.EventPaymentMethodUpdated,
	}
	got := rec.kinds()
	if len(got) != len(want) || len(fn) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] || fn[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	created := rec.events[2]
	if created.Ride == nil || created.Ride.ID != 1 || created.DriverID != d.ID() || created.RiderID != r.ID() {
		t.Fatalf("unexpected ride.created event: %+v", created)
	}
	if !created.At.Equal(at) || created.ID == "" {
		t.Fatalf("event not stamped: %+v", created)
	}
	if rec.events[3].Rating != 4 {
		t.Fatalf("rated event rating = %v, want 4", rec.events[3].Rating)
	}
}

func mustRide(t *testing.T, reg *Registry, rideType string, distance float64, d *models.Driver, r *models.Rider) models.Ride {
	t.Helper()
	ride, err := reg.CreateRide(rideType, "P", "D", distance, d, r)
	if err != nil {
		t.Fatalf("create %s ride: %v", rideType, err)
	}
	return ride
}
