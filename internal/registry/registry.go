package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-sharing/internal/models"
)

// Registry owns every driver, rider and linked ride and hands out ids.
//
// It is not safe for concurrent use. Callers serving concurrent requests
// must guard the registry and the drivers and riders it returns with a
// single lock.
type Registry struct {
	rides   []models.Ride
	drivers []*models.Driver
	riders  []*models.Rider

	nextRideID   int
	nextDriverID int
	nextRiderID  int

	observers []Observer
	now       func() time.Time
}

type Option func(*Registry)

// WithObserver registers an observer for lifecycle events.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithClock overrides the clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		nextRideID:   1,
		nextDriverID: 1,
		nextRiderID:  1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddDriver registers a driver under the next driver id. The initial rating
// is stored as given.
func (r *Registry) AddDriver(name string, rating float64) *models.Driver {
	d := models.NewDriver(r.nextDriverID, name, rating)
	r.nextDriverID++
	r.drivers = append(r.drivers, d)
	r.emit(models.Event{Kind: models.EventDriverAdded, DriverID: d.ID(), Name: d.Name(), Rating: d.Rating()})
	return d
}

// AddRider registers a rider under the next rider id. An empty payment
// method falls back to models.DefaultPaymentMethod.
func (r *Registry) AddRider(name, paymentMethod string) *models.Rider {
	if paymentMethod == "" {
		paymentMethod = models.DefaultPaymentMethod
	}
	rd := models.NewRider(r.nextRiderID, name, paymentMethod)
	r.nextRiderID++
	r.riders = append(r.riders, rd)
	r.emit(models.Event{Kind: models.EventRiderAdded, RiderID: rd.ID(), Name: rd.Name(), PaymentMethod: rd.PaymentMethod()})
	return rd
}

// CreateRide builds a ride of the tagged type and links it to the driver, the
// rider and the global ride list.
//
// An unknown tag fails with models.ErrUnknownRideType before an id is spent.
// When driver or rider is nil the id is still spent and the ride is returned
// unlinked together with models.ErrIncompleteRideAssignment.
func (r *Registry) CreateRide(rideType, pickup, dropoff string, distance float64, driver *models.Driver, rider *models.Rider) (models.Ride, error) {
	t, err := models.ParseRideType(rideType)
	if err != nil {
		return models.Ride{}, err
	}

	ride := models.NewRide(r.nextRideID, t, pickup, dropoff, distance)
	r.nextRideID++
	details := ride.Details()

	if driver == nil || rider == nil {
		e := models.Event{Kind: models.EventRideDiscarded, Ride: &details}
		if driver != nil {
			e.DriverID = driver.ID()
		}
		if rider != nil {
			e.RiderID = rider.ID()
		}
		r.emit(e)
		return ride, fmt.Errorf("ride %d: %w", ride.ID(), models.ErrIncompleteRideAssignment)
	}

	r.rides = append(r.rides, ride)
	driver.AssignRide(&ride)
	rider.RequestRide(&ride)

	r.emit(models.Event{Kind: models.EventRideCreated, DriverID: driver.ID(), RiderID: rider.ID(), Ride: &details})
	return ride, nil
}

// FindDriver returns the driver with the given id, or false.
func (r *Registry) FindDriver(id int) (*models.Driver, bool) {
	for _, d := range r.drivers {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// FindRider returns the rider with the given id, or false.
func (r *Registry) FindRider(id int) (*models.Rider, bool) {
	for _, rd := range r.riders {
		if rd.ID() == id {
			return rd, true
		}
	}
	return nil, false
}

// FindRide returns the linked ride with the given id, or false. Discarded
// rides are never found.
func (r *Registry) FindRide(id int) (models.Ride, bool) {
	for _, ride := range r.rides {
		if ride.ID() == id {
			return ride, true
		}
	}
	return models.Ride{}, false
}

// RateDriver applies a rating to the driver with the given id.
func (r *Registry) RateDriver(id int, rating float64) (*models.Driver, error) {
	d, ok := r.FindDriver(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrDriverNotFound, id)
	}
	if err := d.UpdateRating(rating); err != nil {
		return d, err
	}
	r.emit(models.Event{Kind: models.EventDriverRated, DriverID: d.ID(), Name: d.Name(), Rating: d.Rating()})
	return d, nil
}

// SetRiderPaymentMethod replaces the payment method of the rider with the
// given id.
func (r *Registry) SetRiderPaymentMethod(id int, method string) (*models.Rider, error) {
	rd, ok := r.FindRider(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrRiderNotFound, id)
	}
	rd.SetPaymentMethod(method)
	r.emit(models.Event{Kind: models.EventPaymentMethodUpdated, RiderID: rd.ID(), Name: rd.Name(), PaymentMethod: method})
	return rd, nil
}

// Rides returns the linked rides in creation order.
func (r *Registry) Rides() []models.Ride {
	out := make([]models.Ride, len(r.rides))
	copy(out, r.rides)
	return out
}

func (r *Registry) Drivers() []*models.Driver {
	out := make([]*models.Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

func (r *Registry) Riders() []*models.Rider {
	out := make([]*models.Rider, len(r.riders))
	copy(out, r.riders)
	return out
}

// AggregateRevenue sums the fare of every linked ride.
func (r *Registry) AggregateRevenue() float64 {
	return models.TotalFare(r.rides)
}

// RideTypeDistribution counts linked rides per type. Every known type is
// present, with zero when no ride of that type exists.
func (r *Registry) RideTypeDistribution() map[models.RideType]int {
	dist := make(map[models.RideType]int, len(models.RideTypes()))
	for _, t := range models.RideTypes() {
		dist[t] = 0
	}
	for _, ride := range r.rides {
		dist[ride.Type()]++
	}
	return dist
}

func (r *Registry) RideReport() models.RideReport {
	details := make([]models.RideDetails, 0, len(r.rides))
	for _, ride := range r.rides {
		details = append(details, ride.Details())
	}
	return models.RideReport{Rides: details, TotalRevenue: r.AggregateRevenue()}
}

func (r *Registry) Stats() models.SystemStats {
	return models.SystemStats{
		Drivers:      len(r.drivers),
		Riders:       len(r.riders),
		Rides:        len(r.rides),
		TotalRevenue: r.AggregateRevenue(),
		Distribution: r.RideTypeDistribution(),
	}
}

func (r *Registry) emit(e models.Event) {
	if len(r.observers) == 0 {
		return
	}
	e.ID = uuid.NewString()
	e.At = r.now().UTC()
	for _, o := range r.observers {
		o.Observe(e)
	}
}
