package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidManeuver marks a structurally unusable maneuver plan.
var ErrInvalidManeuver = errors.New("invalid maneuver plan")

// ManeuverPlan is a synthetic collision-avoidance maneuver for a
// tracked asset. The parameters stand in for a real avoidance solver;
// only structural validity is guaranteed, not physical optimality.
type ManeuverPlan struct {
	ID       string
	TargetID string

	ThrustN   float64    // thrust magnitude (N)
	Vector    [3]float64 // unitless direction, each component in [-1,1]
	DurationS int        // burn duration (s)

	Timestamp time.Time // plan creation time (UTC)
}

// Validate checks the structural contract of a plan.
func (p ManeuverPlan) Validate() error {
	if p.ThrustN <= 0 {
		return fmt.Errorf("%w: thrust %v N", ErrInvalidManeuver, p.ThrustN)
	}
	if p.DurationS <= 0 {
		return fmt.Errorf("%w: duration %d s", ErrInvalidManeuver, p.DurationS)
	}
	for _, v := range p.Vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite vector component", ErrInvalidManeuver)
		}
	}
	return nil
}
