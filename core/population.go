package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// Display colors attached to generated objects and carried through to
// API payloads.
const (
	AssetColor  = "#06b6d4"
	DebrisColor = "#ef4444"
)

// assetNames are the call signs cycled over generated assets. Counts
// beyond the list reuse names with an ordinal suffix.
var assetNames = []string{"SENTINEL-1", "NONAME-X", "EAGLE-EYE", "COMMS-A", "COMMS-B"}

// GeneratePopulation builds a synthetic object catalog: assetCount
// operational assets on near-circular orbits between 500 and 700 km
// altitude, and debrisCount fragments between 400 and 1400 km with
// eccentricity up to 0.1 and inclination spanning [0, π]. The same
// seed reproduces the same population.
func GeneratePopulation(assetCount, debrisCount int, seed int64) []model.OrbitalObject {
	src := NewRandSource(seed)
	objects := make([]model.OrbitalObject, 0, assetCount+debrisCount)

	for i := range assetCount {
		objects = append(objects, model.OrbitalObject{
			ID:    fmt.Sprintf("SAT-%d", i),
			Name:  assetName(i),
			Class: model.ClassAsset,
			Color: AssetColor,
			Elements: model.OrbitalElements{
				A:  EarthRadiusKm + 500 + src.Float64()*200,
				E:  0.001 + src.Float64()*0.01,
				I:  src.Float64() * math.Pi / 2,
				W:  src.Float64() * 2 * math.Pi,
				O:  src.Float64() * 2 * math.Pi,
				M0: src.Float64() * 2 * math.Pi,
				N:  0.0010 + src.Float64()*0.0001,
			},
		})
	}

	for i := range debrisCount {
		objects = append(objects, model.OrbitalObject{
			ID:    fmt.Sprintf("DEB-%d", 1000+i),
			Name:  fmt.Sprintf("DEBRIS FRAGMENT #%d", i+1),
			Class: model.ClassDebris,
			Color: DebrisColor,
			Elements: model.OrbitalElements{
				A:  EarthRadiusKm + 400 + src.Float64()*1000,
				E:  src.Float64() * 0.1,
				I:  src.Float64() * math.Pi,
				W:  src.Float64() * 2 * math.Pi,
				O:  src.Float64() * 2 * math.Pi,
				M0: src.Float64() * 2 * math.Pi,
				N:  0.0009 + src.Float64()*0.0003,
			},
		})
	}

	return objects
}

func assetName(i int) string {
	name := assetNames[i%len(assetNames)]
	if i >= len(assetNames) {
		name = fmt.Sprintf("%s %d", name, i/len(assetNames)+1)
	}
	return name
}
