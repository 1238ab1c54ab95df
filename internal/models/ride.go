package models

import "fmt"

// BaseRate is the per-unit-distance fare every ride type starts from.
const BaseRate = 2.5

// RideType is the closed set of ride tiers. The tier fixes the fare multiplier
// and the display label for the lifetime of a ride.
type RideType string

const (
	RideTypeStandard RideType = "standard"
	RideTypePremium  RideType = "premium"
	RideTypeEconomy  RideType = "economy"
)

var rideTypes = []RideType{RideTypeStandard, RideTypePremium, RideTypeEconomy}

// RideTypes returns every known ride type in display order.
func RideTypes() []RideType {
	out := make([]RideType, len(rideTypes))
	copy(out, rideTypes)
	return out
}

// ParseRideType maps a tag onto a RideType. Tags are matched exactly.
func ParseRideType(tag string) (RideType, error) {
	t := RideType(tag)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRideType, tag)
	}
	return t, nil
}

func (t RideType) Valid() bool {
	switch t {
	case RideTypeStandard, RideTypePremium, RideTypeEconomy:
		return true
	}
	return false
}

// Multiplier is applied on top of BaseRate * distance.
func (t RideType) Multiplier() float64 {
	switch t {
	case RideTypePremium:
		return 1.8
	case RideTypeEconomy:
		return 0.7
	default:
		return 1.0
	}
}

func (t RideType) Label() string {
	switch t {
	case RideTypeStandard:
		return "Standard"
	case RideTypePremium:
		return "Premium"
	case RideTypeEconomy:
		return "Economy"
	default:
		return string(t)
	}
}

func (t RideType) Description() string {
	switch t {
	case RideTypeStandard:
		return "Standard Ride"
	case RideTypePremium:
		return "Luxury vehicle, complimentary refreshments"
	case RideTypeEconomy:
		return "Budget-friendly option"
	default:
		return ""
	}
}

// Ride is immutable once built. Drivers, riders and the registry each keep
// their own copy.
type Ride struct {
	id       int
	rideType RideType
	pickup   string
	dropoff  string
	distance float64
}

// NewRide builds a ride of the given type. Locations and distance are taken
// as-is.
func NewRide(id int, t RideType, pickup, dropoff string, distance float64) Ride {
	return Ride{id: id, rideType: t, pickup: pickup, dropoff: dropoff, distance: distance}
}

func (r Ride) ID() int           { return r.id }
func (r Ride) Type() RideType    { return r.rideType }
func (r Ride) Pickup() string    { return r.pickup }
func (r Ride) Dropoff() string   { return r.dropoff }
func (r Ride) Distance() float64 { return r.distance }

// Fare is BaseRate * distance * type multiplier.
func (r Ride) Fare() float64 {
	return BaseRate * r.distance * r.rideType.Multiplier()
}

// RideDetails is the structured summary of a single ride.
type RideDetails struct {
	ID          int      `json:"id"`
	Type        RideType `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Pickup      string   `json:"pickup"`
	Dropoff     string   `json:"dropoff"`
	Distance    float64  `json:"distance"`
	Fare        float64  `json:"fare"`
}

func (r Ride) Details() RideDetails {
	return RideDetails{
		ID:          r.id,
		Type:        r.rideType,
		Label:       r.rideType.Label(),
		Description: r.rideType.Description(),
		Pickup:      r.pickup,
		Dropoff:     r.dropoff,
		Distance:    r.distance,
		Fare:        r.Fare(),
	}
}

// TotalFare sums the fare of every ride, whatever its type.
func TotalFare(rides []Ride) float64 {
	var total float64
	for _, r := range rides {
		total += r.Fare()
	}
	return total
}
