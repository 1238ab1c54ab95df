package models

import "fmt"

const (
	MinRating     = 1.0
	MaxRating     = 5.0
	DefaultRating = 5.0
)

// Driver accumulates the rides assigned to it in assignment order.
type Driver struct {
	id     int
	name   string
	rating float64
	rides  []Ride
}

func NewDriver(id int, name string, rating float64) *Driver {
	return &Driver{id: id, name: name, rating: rating}
}

func (d *Driver) ID() int         { return d.id }
func (d *Driver) Name() string    { return d.name }
func (d *Driver) Rating() float64 { return d.rating }
func (d *Driver) RideCount() int  { return len(d.rides) }

// Rides returns a copy of the assigned rides.
func (d *Driver) Rides() []Ride {
	out := make([]Ride, len(d.rides))
	copy(out, d.rides)
	return out
}

// AssignRide appends the ride. A nil ride is ignored.
func (d *Driver) AssignRide(r *Ride) {
	if r == nil {
		return
	}
	d.rides = append(d.rides, *r)
}

func (d *Driver) TotalEarnings() float64 {
	return TotalFare(d.rides)
}

// UpdateRating averages the current rating with newRating. Values outside
// [MinRating, MaxRating] are rejected and leave the rating unchanged.
func (d *Driver) UpdateRating(newRating float64) error {
	if newRating < MinRating || newRating > MaxRating {
		return fmt.Errorf("%w: %.2f not in [%.1f, %.1f]", ErrInvalidRating, newRating, MinRating, MaxRating)
	}
	d.rating = (d.rating + newRating) / 2.0
	return nil
}

// RideLine is the short form of a ride shown in a driver summary.
type RideLine struct {
	ID      int      `json:"id"`
	Type    RideType `json:"type"`
	Pickup  string   `json:"pickup"`
	Dropoff string   `json:"dropoff"`
	Fare    float64  `json:"fare"`
}

type DriverSummary struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Rating        float64    `json:"rating"`
	RideCount     int        `json:"ride_count"`
	TotalEarnings float64    `json:"total_earnings"`
	Rides         []RideLine `json:"rides"`
}

func (d *Driver) Summary() DriverSummary {
	lines := make([]RideLine, 0, len(d.rides))
	for _, r := range d.rides {
		lines = append(lines, RideLine{
			ID:      r.ID(),
			Type:    r.Type(),
			Pickup:  r.Pickup(),
			Dropoff: r.Dropoff(),
			Fare:    r.Fare(),
		})
	}
	return DriverSummary{
		ID:            d.id,
		Name:          d.name,
		Rating:        d.rating,
		RideCount:     len(d.rides),
		TotalEarnings: d.TotalEarnings(),
		Rides:         lines,
	}
}
