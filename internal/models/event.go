package models

import (
	"strconv"
	"time"
)

// EventKind names a registry lifecycle event.
type EventKind string

const (
	EventDriverAdded          EventKind = "driver.added"
	EventRiderAdded           EventKind = "rider.added"
	EventRideCreated          EventKind = "ride.created"
	EventRideDiscarded        EventKind = "ride.discarded"
	EventDriverRated          EventKind = "driver.rated"
	EventPaymentMethodUpdated EventKind = "rider.payment_method_updated"
)

// Event is emitted by the registry after a state change. Fields not relevant
// to the kind are left zero.
type Event struct {
	ID            string       `json:"id"`
	Kind          EventKind    `json:"kind"`
	At            time.Time    `json:"at"`
	DriverID      int          `json:"driver_id,omitempty"`
	RiderID       int          `json:"rider_id,omitempty"`
	Name          string       `json:"name,omitempty"`
	Rating        float64      `json:"rating,omitempty"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	Ride          *RideDetails `json:"ride,omitempty"`
}

// Key is used to partition events, rides first.
func (e Event) Key() string {
	switch {
	case e.Ride != nil:
		return "ride:" + strconv.Itoa(e.Ride.ID)
	case e.DriverID != 0:
		return "driver:" + strconv.Itoa(e.DriverID)
	case e.RiderID != 0:
		return "rider:" + strconv.Itoa(e.RiderID)
	}
	return e.ID
}

// RideReport lists every ride in creation order with the combined revenue.
type RideReport struct {
	Rides        []RideDetails `json:"rides"`
	TotalRevenue float64       `json:"total_revenue"`
}

// SystemStats is the registry-wide overview.
type SystemStats struct {
	Drivers      int              `json:"drivers"`
	Riders       int              `json:"riders"`
	Rides        int              `json:"rides"`
	TotalRevenue float64          `json:"total_revenue"`
	Distribution map[RideType]int `json:"distribution"`
}
