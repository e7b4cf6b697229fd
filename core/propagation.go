package core

import (
	"math"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// KeplerIterations is the fixed-point iteration count used to solve
// Kepler's equation. Five passes are enough for the low-eccentricity
// orbits this engine tracks and keep every call deterministic; raise
// the constant when feeding high-eccentricity elements that need
// tighter convergence.
const KeplerIterations = 5

// ObjectPosition pairs an object with its propagated position.
type ObjectPosition struct {
	Object   model.OrbitalObject
	Position Vec3
}

// PositionAt propagates obj to simulation time t (seconds past epoch)
// and returns its ECI position in kilometres. The function is pure and
// reads only the elements it is handed, so callers may fan out across
// objects without synchronisation.
func PositionAt(obj model.OrbitalObject, t float64) Vec3 {
	el := obj.Elements

	// Mean anomaly, left unbounded.
	m := el.M0 + el.N*t

	// Fixed-point solve of E = M + e*sin(E), seeded with M.
	ea := m
	for range KeplerIterations {
		ea = m + el.E*math.Sin(ea)
	}

	// True anomaly via the half-angle form, well defined at e = 0.
	nu := 2 * math.Atan2(
		math.Sqrt(1+el.E)*math.Sin(ea/2),
		math.Sqrt(1-el.E)*math.Cos(ea/2),
	)

	r := el.A * (1 - el.E*math.Cos(ea))

	cosO := math.Cos(el.O)
	sinO := math.Sin(el.O)
	cosWV := math.Cos(el.W + nu)
	sinWV := math.Sin(el.W + nu)
	cosI := math.Cos(el.I)
	sinI := math.Sin(el.I)

	return Vec3{
		X: r * (cosO*cosWV - sinO*sinWV*cosI),
		Y: r * (sinO*cosWV + cosO*sinWV*cosI),
		Z: r * (sinI * sinWV),
	}
}

// OrbitPath samples one full orbital period into n evenly spaced
// positions starting at t = 0. Display layers use it to precompute
// orbit polylines once per object instead of per frame.
func OrbitPath(obj model.OrbitalObject, n int) []Vec3 {
	if n <= 0 {
		return nil
	}
	step := obj.Elements.Period() / float64(n)
	path := make([]Vec3, n)
	for i := range n {
		path[i] = PositionAt(obj, float64(i)*step)
	}
	return path
}
