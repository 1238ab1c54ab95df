package models

const DefaultPaymentMethod = "Credit Card"

// Rider accumulates the rides it requested in request order.
type Rider struct {
	id            int
	name          string
	paymentMethod string
	rides         []Ride
}

func NewRider(id int, name, paymentMethod string) *Rider {
	return &Rider{id: id, name: name, paymentMethod: paymentMethod}
}

func (r *Rider) ID() int               { return r.id }
func (r *Rider) Name() string          { return r.name }
func (r *Rider) PaymentMethod() string { return r.paymentMethod }
func (r *Rider) RideCount() int        { return len(r.rides) }

// Rides returns a copy of the requested rides.
func (r *Rider) Rides() []Ride {
	out := make([]Ride, len(r.rides))
	copy(out, r.rides)
	return out
}

// RequestRide appends the ride. A nil ride is ignored.
func (r *Rider) RequestRide(ride *Ride) {
	if ride == nil {
		return
	}
	r.rides = append(r.rides, *ride)
}

func (r *Rider) TotalSpending() float64 {
	return TotalFare(r.rides)
}

func (r *Rider) SetPaymentMethod(method string) {
	r.paymentMethod = method
}

type RiderSummary struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	PaymentMethod string        `json:"payment_method"`
	RideCount     int           `json:"ride_count"`
	TotalSpending float64       `json:"total_spending"`
	Rides         []RideDetails `json:"rides"`
}

func (r *Rider) Summary() RiderSummary {
	details := make([]RideDetails, 0, len(r.rides))
	for _, ride := range r.rides {
		details = append(details, ride.Details())
	}
	return RiderSummary{
		ID:            r.id,
		Name:          r.name,
		PaymentMethod: r.paymentMethod,
		RideCount:     len(r.rides),
		TotalSpending: r.TotalSpending(),
		Rides:         details,
	}
}
