// Package model holds the domain records shared by the propagation
// engine, the object catalog and the API layer.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ObjectClass identifies what kind of body an OrbitalObject is.
type ObjectClass int

const (
	ClassAsset ObjectClass = iota
	ClassDebris
)

func (c ObjectClass) String() string {
	switch c {
	case ClassAsset:
		return "ASSET"
	case ClassDebris:
		return "DEBRIS"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidElements marks an element set that cannot be propagated.
var ErrInvalidElements = errors.New("invalid orbital elements")

// OrbitalElements is a classical Keplerian element set. Distances are
// kilometres, angles radians, rates radians per second. Angular values
// are free running; consumers never wrap them into [0, 2π).
type OrbitalElements struct {
	A  float64 // semi-major axis (km)
	E  float64 // eccentricity
	I  float64 // inclination (rad)
	W  float64 // argument of periapsis (rad)
	O  float64 // right ascension of the ascending node (rad)
	M0 float64 // mean anomaly at epoch (rad)
	N  float64 // mean motion (rad/s)
}

// Period returns the orbital period 2π/n in seconds.
func (el OrbitalElements) Period() float64 {
	return 2 * math.Pi / el.N
}

// Validate checks the element set against the ranges the propagator
// assumes. Propagating an invalid set would emit NaN positions, so
// callers constructing elements from external input validate first.
func (el OrbitalElements) Validate() error {
	for _, v := range []float64{el.A, el.E, el.I, el.W, el.O, el.M0, el.N} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component", ErrInvalidElements)
		}
	}
	if el.A <= 0 {
		return fmt.Errorf("%w: semi-major axis %v km", ErrInvalidElements, el.A)
	}
	if el.E < 0 || el.E >= 1 {
		return fmt.Errorf("%w: eccentricity %v outside [0,1)", ErrInvalidElements, el.E)
	}
	if el.N <= 0 {
		return fmt.Errorf("%w: mean motion %v rad/s", ErrInvalidElements, el.N)
	}
	return nil
}

// OrbitalObject is one tracked body. Objects are created once, at
// population generation or catalog load, and never mutated afterwards;
// a post-maneuver projection is a new object with a derived ID.
type OrbitalObject struct {
	ID    string
	Name  string
	Class ObjectClass

	// Color is the display hex used by downstream visualisation.
	Color string

	Elements OrbitalElements
}
