package core

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// ConjunctionDetector screens every asset/debris pair at an evaluation
// time, estimates a collision probability for pairs inside the
// proximity threshold and classifies them by risk. The probability
// model is a distance heuristic with bounded jitter standing in for a
// real estimator; the constants below are the reference configuration
// and are kept exactly as tuned.
type ConjunctionDetector struct {
	// ProximityKm is the screening distance. Pairs further apart are
	// never assessed.
	ProximityKm float64

	// CloseRangeKm is the distance at which the base probability
	// saturates toward 1.
	CloseRangeKm float64

	// HorizonS bounds the time-to-impact draw, in seconds.
	HorizonS float64

	// MaxResults caps the assessment size regardless of how many
	// pairs qualify.
	MaxResults int

	// Rand supplies the probability jitter and the time-to-impact
	// draw. Inject a fixed-sequence source for deterministic output.
	Rand Source
}

// NewConjunctionDetector returns a detector with the reference
// configuration: 800 km screening, 500 km saturation range, a 72 hour
// horizon and a five entry cap.
func NewConjunctionDetector(src Source) *ConjunctionDetector {
	return &ConjunctionDetector{
		ProximityKm:  800,
		CloseRangeKm: 500,
		HorizonS:     72 * 3600,
		MaxResults:   5,
		Rand:         src,
	}
}

// Detect propagates all objects to time t and returns the ranked
// conjunction assessment: MEDIUM and HIGH pairs only, sorted by
// probability descending, at most MaxResults entries. A population
// with no assets or no debris yields an empty result.
func (cd *ConjunctionDetector) Detect(objects []model.OrbitalObject, t float64) []model.Conjunction {
	var assets, debris []ObjectPosition
	for _, obj := range objects {
		op := ObjectPosition{Object: obj, Position: PositionAt(obj, t)}
		switch obj.Class {
		case model.ClassAsset:
			assets = append(assets, op)
		case model.ClassDebris:
			debris = append(debris, op)
		}
	}
	if len(assets) == 0 || len(debris) == 0 {
		return nil
	}

	var found []model.Conjunction
	for _, asset := range assets {
		for _, deb := range debris {
			dist := asset.Position.DistanceTo(deb.Position)
			if dist >= cd.ProximityKm {
				continue
			}

			// Base probability saturates toward 1 inside the close
			// range, then a bounded jitter models estimation noise.
			baseProb := min(1, cd.CloseRangeKm/dist)
			prob := baseProb * (0.8 + 0.4*cd.Rand.Float64())
			prob = clampProbability(prob)

			risk := classifyRisk(prob)
			if risk == model.RiskLow {
				continue
			}

			found = append(found, model.Conjunction{
				ID:           conjunctionID(asset.Object.ID, deb.Object.ID, t),
				ObjectA:      asset.Object.Name,
				ObjectB:      deb.Object.Name,
				TimeToImpact: cd.Rand.Float64() * cd.HorizonS,
				Probability:  prob,
				Risk:         risk,
				MissDistance: dist,
			})
		}
	}

	// Rank by probability, keeping detection order among equals.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Probability > found[j].Probability
	})
	if len(found) > cd.MaxResults {
		found = found[:cd.MaxResults]
	}
	return found
}

// classifyRisk maps a probability to its risk bucket.
func classifyRisk(p float64) model.RiskLevel {
	switch {
	case p > 0.7:
		return model.RiskHigh
	case p > 0.3:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}

// conjunctionID derives a stable identifier from the pair and the
// evaluation time, so the same pair seen at two times yields two
// distinct records.
func conjunctionID(assetID, debrisID string, t float64) string {
	return fmt.Sprintf("%s-%s-%s", assetID, debrisID, strconv.FormatFloat(t, 'g', -1, 64))
}
