package core

import (
	"testing"
)

func TestPropagateBatchMatchesSerialPropagation(t *testing.T) {
	objects := GeneratePopulation(12, 28, 5)
	const at = 3600.0

	parallel := PropagateBatch(objects, at, 8)
	serial := PropagateBatch(objects, at, 1)

	if len(parallel) != len(objects) {
		t.Fatalf("got %d positions, want %d", len(parallel), len(objects))
	}
	for i := range objects {
		if parallel[i].Object.ID != objects[i].ID {
			t.Fatalf("slot %d holds %s, want %s (input order)", i, parallel[i].Object.ID, objects[i].ID)
		}
		if parallel[i].Position != serial[i].Position {
			t.Fatalf("slot %d position %+v differs from serial %+v", i, parallel[i].Position, serial[i].Position)
		}
		if want := PositionAt(objects[i], at); parallel[i].Position != want {
			t.Fatalf("slot %d position %+v, want %+v", i, parallel[i].Position, want)
		}
	}
}

func TestPropagateBatchEmptyInput(t *testing.T) {
	out := PropagateBatch(nil, 60, 4)
	if len(out) != 0 {
		t.Fatalf("got %d positions for empty input, want 0", len(out))
	}
}

func TestPropagateBatchMoreWorkersThanObjects(t *testing.T) {
	objects := GeneratePopulation(2, 1, 77)

	out := PropagateBatch(objects, 120, 32)
	if len(out) != 3 {
		t.Fatalf("got %d positions, want 3", len(out))
	}
	for i := range objects {
		if out[i].Object.ID != objects[i].ID {
			t.Fatalf("slot %d holds %s, want %s", i, out[i].Object.ID, objects[i].ID)
		}
		if want := PositionAt(objects[i], 120); out[i].Position != want {
			t.Fatalf("slot %d position %+v, want %+v", i, out[i].Position, want)
		}
	}
}
