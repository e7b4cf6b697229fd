package core

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// Maneuver projection coefficients: how strongly each component of the
// burn vector shifts the target's elements.
const (
	maneuverInclinationGain = 0.15 // rad per unit of vector Z
	maneuverAxisGainKm      = 300  // km per unit of vector X
	maneuverNodeGain        = 0.1  // rad per unit of vector Y
)

// ManeuverPlanner produces synthetic avoidance maneuvers. Parameters
// are drawn from fixed ranges rather than solved from dynamics; the
// structural contract (positive thrust, three-component vector,
// positive integer duration) is all downstream consumers rely on.
type ManeuverPlanner struct {
	// Rand supplies the thrust, vector and duration draws.
	Rand Source

	// Now stamps the plan creation time.
	Now func() time.Time
}

// NewManeuverPlanner returns a planner drawing from src and stamping
// plans with wall-clock time.
func NewManeuverPlanner(src Source) *ManeuverPlanner {
	return &ManeuverPlanner{Rand: src, Now: time.Now}
}

// Plan builds an avoidance plan for the given target. Thrust falls in
// [1.2, 2.2] N, each vector component in [-1, 1] (both rounded to two
// decimals), duration in integer seconds [5, 14].
func (mp *ManeuverPlanner) Plan(targetID string) model.ManeuverPlan {
	return model.ManeuverPlan{
		ID:       uuid.NewString(),
		TargetID: targetID,
		ThrustN:  round2(1.2 + mp.Rand.Float64()),
		Vector: [3]float64{
			round2(-1 + 2*mp.Rand.Float64()),
			round2(-1 + 2*mp.Rand.Float64()),
			round2(-1 + 2*mp.Rand.Float64()),
		},
		DurationS: 5 + mp.Rand.Intn(10),
		Timestamp: mp.Now().UTC(),
	}
}

// PlanForConjunction builds a plan targeting the threatened asset of a
// detected conjunction, referenced by display name.
func (mp *ManeuverPlanner) PlanForConjunction(conj model.Conjunction) model.ManeuverPlan {
	return mp.Plan(conj.ObjectA)
}

// ProjectWithManeuver returns a new object carrying the predicted
// post-maneuver trajectory: inclination shifts with the burn vector's
// Z component, semi-major axis with X, ascending node with Y. The
// input object is taken by value and never modified; the projection
// gets a derived identity so both can coexist in a display.
func ProjectWithManeuver(obj model.OrbitalObject, plan model.ManeuverPlan) model.OrbitalObject {
	projected := obj
	projected.ID = obj.ID + "-MNVR"
	projected.Elements.I += plan.Vector[2] * maneuverInclinationGain
	projected.Elements.A += plan.Vector[0] * maneuverAxisGainKm
	projected.Elements.O += plan.Vector[1] * maneuverNodeGain
	return projected
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
