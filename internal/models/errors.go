package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRideType is returned when a ride type tag is not standard, premium or economy.
	ErrUnknownRideType = errors.New("unknown ride type")

	// ErrInvalidRating is returned when a rating falls outside [MinRating, MaxRating].
	ErrInvalidRating = errors.New("invalid rating")

	// ErrEntityNotFound is returned when a lookup by id has no match.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDriverNotFound is returned when no driver has the requested id.
	ErrDriverNotFound = fmt.Errorf("driver: %w", ErrEntityNotFound)

	// ErrRiderNotFound is returned when no rider has the requested id.
	ErrRiderNotFound = fmt.Errorf("rider: %w", ErrEntityNotFound)

	// ErrRideNotFound is returned when no linked ride has the requested id.
	ErrRideNotFound = fmt.Errorf("ride: %w", ErrEntityNotFound)

	// ErrIncompleteRideAssignment is returned when a ride is created without
	// both a driver and a rider. The ride id is spent but the ride is not linked.
	ErrIncompleteRideAssignment = errors.New("ride requires both a driver and a rider")
)
