package model

// RiskLevel classifies a conjunction by collision probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Conjunction is a detected close approach between exactly one asset
// and one debris object at a specific evaluation time. Conjunctions
// are ephemeral: each detection pass produces a fresh set and the
// engine keeps no history.
type Conjunction struct {
	// ID is derived from the two object IDs and the evaluation time,
	// so repeated detections of the same pair at different times are
	// distinct records.
	ID string

	ObjectA string // asset display name
	ObjectB string // debris display name

	// TimeToImpact is a forecast horizon value in seconds, not a
	// computed time of closest approach.
	TimeToImpact float64

	Probability  float64
	Risk         RiskLevel
	MissDistance float64 // km
}
