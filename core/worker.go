package core

import (
	"sync"

	"github.com/signalsfoundry/sentinel-orbital/model"
)

// propagateJob is a unit of work for the batch pool.
type propagateJob struct {
	idx int
	obj model.OrbitalObject
}

// PropagateBatch propagates every object to simulation time t using up
// to workers goroutines and returns positions in input order. Input
// order matters downstream: the clusterer's grouping decisions depend
// on it. workers <= 1 propagates serially.
func PropagateBatch(objects []model.OrbitalObject, t float64, workers int) []ObjectPosition {
	out := make([]ObjectPosition, len(objects))
	if len(objects) == 0 {
		return out
	}
	if workers > len(objects) {
		workers = len(objects)
	}
	if workers <= 1 {
		for i, obj := range objects {
			out[i] = ObjectPosition{Object: obj, Position: PositionAt(obj, t)}
		}
		return out
	}

	jobs := make(chan propagateJob, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Each slot is written by exactly one worker.
				out[job.idx] = ObjectPosition{Object: job.obj, Position: PositionAt(job.obj, t)}
			}
		}()
	}

	for i, obj := range objects {
		jobs <- propagateJob{idx: i, obj: obj}
	}
	close(jobs)
	wg.Wait()

	return out
}
