package core

// Cluster is a transient grouping of two or more debris objects,
// recomputed from scratch every time positions move.
type Cluster struct {
	Centroid Vec3
	Count    int
}

// ClusterResult splits a debris frame into clusters and the leftover
// ungrouped objects.
type ClusterResult struct {
	Clusters []Cluster
	Singles  []ObjectPosition
}

// DebrisClusterer groups spatially close debris to cut display
// clutter. Grouping is a single greedy pass: each unassigned object
// seeds a group and claims every still-unassigned later object within
// the threshold. Membership therefore depends on input order, and two
// objects further apart than the threshold are not merged through a
// shared neighbour; downstream consumers rely on exactly this
// behaviour, so it is preserved as is.
type DebrisClusterer struct {
	// ThresholdKm is the grouping distance. The reference value is
	// 2.5 scene units.
	ThresholdKm float64
}

// NewDebrisClusterer returns a clusterer with the reference threshold.
func NewDebrisClusterer() *DebrisClusterer {
	return &DebrisClusterer{ThresholdKm: 2.5 * SceneUnitKm}
}

// ClusterDebris groups the given frame. Every input object lands in
// exactly one place: either counted by one cluster or returned as one
// single. The scan is O(n²), acceptable for the tens of debris objects
// this engine tracks.
func (dc *DebrisClusterer) ClusterDebris(points []ObjectPosition) ClusterResult {
	var res ClusterResult
	assigned := make([]bool, len(points))

	for i := range points {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true

		for j := i + 1; j < len(points); j++ {
			if assigned[j] {
				continue
			}
			if points[i].Position.DistanceTo(points[j].Position) < dc.ThresholdKm {
				group = append(group, j)
				assigned[j] = true
			}
		}

		if len(group) > 1 {
			members := make([]Vec3, len(group))
			for k, idx := range group {
				members[k] = points[idx].Position
			}
			res.Clusters = append(res.Clusters, Cluster{
				Centroid: Centroid(members),
				Count:    len(group),
			})
		} else {
			res.Singles = append(res.Singles, points[i])
		}
	}

	return res
}
