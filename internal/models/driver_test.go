package models

import (
	"errors"
	"testing"
)

func TestDriverEarningsFollowAssignments(t *testing.T) {
	d := NewDriver(1, "John", DefaultRating)
	if d.TotalEarnings() != 0 {
		t.Fatalf("new driver should have no earnings")
	}
	rides := []Ride{
		NewRide(1, RideTypeStandard, "A", "B", 4),
		NewRide(2, RideTypePremium, "B", "C", 10),
		NewRide(3, RideTypeEconomy, "C", "D", 6),
	}
	var want float64
	for i := range rides {
		d.AssignRide(&rides[i])
		want += rides[i].Fare()
		if !almostEqual(d.TotalEarnings(), want) {
			t.Fatalf("after %d rides earnings = %v, want %v", i+1, d.TotalEarnings(), want)
		}
	}
	if d.RideCount() != 3 {
		t.Fatalf("ride count = %d, want 3", d.RideCount())
	}
	for i, r := range d.Rides() {
		if r.ID() != i+1 {
			t.Fatalf("rides out of assignment order: %d at %d", r.ID(), i)
		}
	}
}

func TestDriverAssignNilIsNoop(t *testing.T) {
	d := NewDriver(1, "John", DefaultRating)
	d.AssignRide(nil)
	if d.RideCount() != 0 {
		t.Fatalf("nil ride should be ignored")
	}
}

func TestUpdateRatingAveragesTwice(t *testing.T) {
	d := NewDriver(1, "John", 5.0)
	if err := d.UpdateRating(3.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateRating(3.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ((5.0+3.0)/2 + 3.0) / 2
	if d.Rating() != want {
		t.Fatalf("rating = %v, want %v", d.Rating(), want)
	}
}

func TestUpdateRatingBounds(t *testing.T) {
	tests := []struct {
		name    string
		rating  float64
		wantErr bool
	}{
		{"below", 0.5, true},
		{"above", 5.5, true},
		{"min", 1.0, false},
		{"max", 5.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(1, "John", 4.0)
			err := d.UpdateRating(tt.rating)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRating) {
					t.Fatalf("expected ErrInvalidRating, got %v", err)
				}
				if d.Rating() != 4.0 {
					t.Fatalf("rating changed on rejection: %v", d.Rating())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Rating() != (4.0+tt.rating)/2 {
				t.Fatalf("rating = %v", d.Rating())
			}
		})
	}
}

func TestDriverSummary(t *testing.T) {
	d := NewDriver(2, "Maria", 4.9)
	r := NewRide(5, RideTypePremium, "Hotel", "Station", 10)
	d.AssignRide(&r)

	s := d.Summary()
	if s.ID != 2 || s.Name != "Maria" || s.Rating != 4.9 || s.RideCount != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !almostEqual(s.TotalEarnings, 45) {
		t.Fatalf("earnings = %v, want 45", s.TotalEarnings)
	}
	if len(s.Rides) != 1 || s.Rides[0].ID != 5 || s.Rides[0].Pickup != "Hotel" || !almostEqual(s.Rides[0].Fare, 45) {
		t.Fatalf("unexpected ride lines: %+v", s.Rides)
	}
}

func TestDriverRidesReturnsCopy(t *testing.T) {
	d := NewDriver(1, "John", DefaultRating)
	r := NewRide(1, RideTypeStandard, "A", "B", 1)
	d.AssignRide(&r)
	rides := d.Rides()
	rides[0] = NewRide(99, RideTypePremium, "X", "Y", 100)
	if d.Rides()[0].ID() != 1 {
		t.Fatalf("caller mutation leaked into driver")
	}
}
