package core

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// debrisAt builds a circular equatorial debris orbit of radius a km
// with the same mean motion as its asset counterpart, so the pair keeps
// a constant separation at every evaluation time.
func debrisAt(id string, a float64) model.OrbitalObject {
	obj := circularObject(id, a, 0.001)
	obj.Class = model.ClassDebris
	return obj
}

func TestDetectFlagsCloseApproach(t *testing.T) {
	// 100 km separation: base probability saturates at 1, so the pair
	// must be reported at HIGH risk for any jitter draw.
	objects := []model.OrbitalObject{
		circularObject("SAT-1", 7000, 0.001),
		debrisAt("DEB-1000", 7100),
	}

	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0, 0.5}})
	found := detector.Detect(objects, 0)

	if len(found) != 1 {
		t.Fatalf("Detect returned %d conjunctions, want 1", len(found))
	}
	conj := found[0]
	if conj.Risk != model.RiskHigh {
		t.Fatalf("risk = %v, want HIGH", conj.Risk)
	}
	if math.Abs(conj.MissDistance-100) > 1e-6 {
		t.Fatalf("miss distance = %v km, want 100", conj.MissDistance)
	}
	if conj.ObjectA != "SAT-1" || conj.ObjectB != "DEB-1000" {
		t.Fatalf("pair = (%s, %s), want (SAT-1, DEB-1000)", conj.ObjectA, conj.ObjectB)
	}
	// Jitter draw 0 gives the floor factor 0.8 on a saturated base.
	if math.Abs(conj.Probability-0.8) > 1e-12 {
		t.Fatalf("probability = %v, want 0.8", conj.Probability)
	}
}

func TestDetectIgnoresPairsOutsideProximity(t *testing.T) {
	objects := []model.OrbitalObject{
		circularObject("SAT-1", 7000, 0.001),
		debrisAt("DEB-1000", 7900), // 900 km out, past the 800 km screen
	}

	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.99}})
	if found := detector.Detect(objects, 0); len(found) != 0 {
		t.Fatalf("Detect returned %d conjunctions, want 0", len(found))
	}
}

func TestDetectEmptyOrOneSidedPopulation(t *testing.T) {
	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.5}})

	if found := detector.Detect(nil, 0); len(found) != 0 {
		t.Fatalf("empty population returned %d conjunctions, want 0", len(found))
	}

	onlyAssets := []model.OrbitalObject{circularObject("SAT-1", 7000, 0.001)}
	if found := detector.Detect(onlyAssets, 0); len(found) != 0 {
		t.Fatalf("asset-only population returned %d conjunctions, want 0", len(found))
	}

	onlyDebris := []model.OrbitalObject{debrisAt("DEB-1000", 7000)}
	if found := detector.Detect(onlyDebris, 0); len(found) != 0 {
		t.Fatalf("debris-only population returned %d conjunctions, want 0", len(found))
	}
}

func TestDetectRanksAndTruncates(t *testing.T) {
	// Seven debris objects at growing separations. With the jitter
	// factor pinned to 1.0 the probability is 500/distance, so ranking
	// by probability means ranking by closeness.
	objects := []model.OrbitalObject{circularObject("SAT-1", 7000, 0.001)}
	for i, offset := range []float64{520, 540, 560, 580, 600, 620, 640} {
		objects = append(objects, debrisAt(fmt.Sprintf("DEB-%d", 1000+i), 7000+offset))
	}

	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.5}})
	found := detector.Detect(objects, 0)

	if len(found) != 5 {
		t.Fatalf("Detect returned %d conjunctions, want capped 5", len(found))
	}
	for i := 1; i < len(found); i++ {
		if found[i].Probability > found[i-1].Probability {
			t.Fatalf("results not sorted by probability: %v before %v",
				found[i-1].Probability, found[i].Probability)
		}
	}
	// The two farthest pairs (620, 640 km) fall off the cap.
	for _, conj := range found {
		if conj.MissDistance > 610 {
			t.Fatalf("conjunction at %v km survived truncation", conj.MissDistance)
		}
	}
}

func TestDetectClampsProbability(t *testing.T) {
	objects := []model.OrbitalObject{
		circularObject("SAT-1", 7000, 0.001),
		debrisAt("DEB-1000", 7100),
	}

	// Max jitter on a saturated base would give 1.2; the clamp holds
	// the reported probability below certainty.
	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.9999}})
	found := detector.Detect(objects, 0)

	if len(found) != 1 {
		t.Fatalf("Detect returned %d conjunctions, want 1", len(found))
	}
	if found[0].Probability != 0.99 {
		t.Fatalf("probability = %v, want clamped 0.99", found[0].Probability)
	}
}

func TestDetectNeverReturnsLowRisk(t *testing.T) {
	objects := GeneratePopulation(5, 40, 7)
	detector := NewConjunctionDetector(NewRandSource(7))

	for _, simTime := range []float64{0, 1800, 3600, 7200, 14400} {
		for _, conj := range detector.Detect(objects, simTime) {
			if conj.Risk == model.RiskLow {
				t.Fatalf("Detect returned LOW risk conjunction %q at t=%v", conj.ID, simTime)
			}
			if conj.Probability <= 0.3 {
				t.Fatalf("conjunction %q probability %v, want > 0.3", conj.ID, conj.Probability)
			}
			if conj.TimeToImpact < 0 || conj.TimeToImpact > 72*3600 {
				t.Fatalf("conjunction %q time to impact %v s outside [0, 72h]", conj.ID, conj.TimeToImpact)
			}
		}
	}
}

func TestDetectDerivesIDFromPairAndTime(t *testing.T) {
	objects := []model.OrbitalObject{
		circularObject("SAT-1", 7000, 0.001),
		debrisAt("DEB-1000", 7100),
	}
	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.5}})

	at0 := detector.Detect(objects, 0)
	at120 := detector.Detect(objects, 120)
	if len(at0) != 1 || len(at120) != 1 {
		t.Fatalf("expected one conjunction per pass, got %d and %d", len(at0), len(at120))
	}

	if at0[0].ID == at120[0].ID {
		t.Fatalf("same pair at different times produced identical id %q", at0[0].ID)
	}
	if want := "SAT-1-DEB-1000-120"; at120[0].ID != want {
		t.Fatalf("conjunction id = %q, want %q", at120[0].ID, want)
	}
	if !strings.HasPrefix(at0[0].ID, "SAT-1-DEB-1000-") {
		t.Fatalf("conjunction id %q missing pair prefix", at0[0].ID)
	}
}

func TestDetectTunablesAreRespected(t *testing.T) {
	objects := []model.OrbitalObject{
		circularObject("SAT-1", 7000, 0.001),
		debrisAt("DEB-1000", 7100),
	}

	detector := NewConjunctionDetector(&fixedSource{floats: []float64{0.5}})
	detector.ProximityKm = 50 // pull the screen inside the pair's range
	if found := detector.Detect(objects, 0); len(found) != 0 {
		t.Fatalf("tightened screen still returned %d conjunctions", len(found))
	}

	detector.ProximityKm = 800
	detector.MaxResults = 0
	if found := detector.Detect(objects, 0); len(found) != 0 {
		t.Fatalf("MaxResults=0 returned %d conjunctions", len(found))
	}
}
