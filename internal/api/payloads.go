package api

import (
	"time"

	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/model"
)

// Wire payload types. Field names follow the established client
// contract, so element keys stay single-letter and conjunction fields
// stay camelCase.

type elementsPayload struct {
	A  float64 `json:"a"`
	E  float64 `json:"e"`
	I  float64 `json:"i"`
	W  float64 `json:"w"`
	O  float64 `json:"O"`
	M0 float64 `json:"M0"`
	N  float64 `json:"n"`
}

type objectPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Elements elementsPayload `json:"elements"`
	Color    string          `json:"color"`
}

type positionPayload struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

type conjunctionPayload struct {
	ID           string  `json:"id"`
	ObjectA      string  `json:"objectA"`
	ObjectB      string  `json:"objectB"`
	TimeToImpact float64 `json:"timeToImpact"`
	Probability  float64 `json:"probability"`
	RiskLevel    string  `json:"riskLevel"`
	MissDistance float64 `json:"missDistance"`
}

type vecPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type clusterPayload struct {
	Centroid vecPayload `json:"centroid"`
	Count    int        `json:"count"`
}

type clustersPayload struct {
	SimTime  float64           `json:"simTime"`
	Clusters []clusterPayload  `json:"clusters"`
	Singles  []positionPayload `json:"singles"`
}

type maneuverPayload struct {
	ID        string     `json:"id"`
	TargetID  string     `json:"targetId"`
	ThrustN   float64    `json:"thrustN"`
	Vector    [3]float64 `json:"vector"`
	Duration  int        `json:"duration"`
	Timestamp time.Time  `json:"timestamp"`
}

type maneuverResponse struct {
	Status    string          `json:"status"`
	Plan      maneuverPayload `json:"plan"`
	Projected objectPayload   `json:"projected"`
}

type orbitPathPayload struct {
	ID     string       `json:"id"`
	Points []vecPayload `json:"points"`
}

type rootPayload struct {
	System string `json:"system"`
	Status string `json:"status"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// classLabel maps the internal object class onto its wire name. Assets
// ship as SATELLITE for compatibility with existing consumers.
func classLabel(class model.ObjectClass) string {
	if class == model.ClassAsset {
		return "SATELLITE"
	}
	return class.String()
}

func toElementsPayload(el model.OrbitalElements) elementsPayload {
	return elementsPayload{A: el.A, E: el.E, I: el.I, W: el.W, O: el.O, M0: el.M0, N: el.N}
}

func toObjectPayload(obj model.OrbitalObject) objectPayload {
	return objectPayload{
		ID:       obj.ID,
		Name:     obj.Name,
		Type:     classLabel(obj.Class),
		Elements: toElementsPayload(obj.Elements),
		Color:    obj.Color,
	}
}

func toPositionPayload(p core.ObjectPosition) positionPayload {
	return positionPayload{
		ID:   p.Object.ID,
		Name: p.Object.Name,
		Type: classLabel(p.Object.Class),
		X:    p.Position.X,
		Y:    p.Position.Y,
		Z:    p.Position.Z,
	}
}

func toConjunctionPayload(c model.Conjunction) conjunctionPayload {
	return conjunctionPayload{
		ID:           c.ID,
		ObjectA:      c.ObjectA,
		ObjectB:      c.ObjectB,
		TimeToImpact: c.TimeToImpact,
		Probability:  c.Probability,
		RiskLevel:    string(c.Risk),
		MissDistance: c.MissDistance,
	}
}

func toVecPayload(v core.Vec3) vecPayload {
	return vecPayload{X: v.X, Y: v.Y, Z: v.Z}
}

func toClustersPayload(simTime float64, result core.ClusterResult) clustersPayload {
	out := clustersPayload{
		SimTime:  simTime,
		Clusters: make([]clusterPayload, 0, len(result.Clusters)),
		Singles:  make([]positionPayload, 0, len(result.Singles)),
	}
	for _, c := range result.Clusters {
		out.Clusters = append(out.Clusters, clusterPayload{Centroid: toVecPayload(c.Centroid), Count: c.Count})
	}
	for _, s := range result.Singles {
		out.Singles = append(out.Singles, toPositionPayload(s))
	}
	return out
}

func toManeuverPayload(plan model.ManeuverPlan) maneuverPayload {
	return maneuverPayload{
		ID:        plan.ID,
		TargetID:  plan.TargetID,
		ThrustN:   plan.ThrustN,
		Vector:    plan.Vector,
		Duration:  plan.DurationS,
		Timestamp: plan.Timestamp,
	}
}
