// Package catalog is the in-memory, thread-safe store for tracked
// objects and the latest evaluation results. It is the only shared
// state in the system; the engine packages stay pure and write their
// outputs here.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/model"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventFrameUpdated
	EventAssessmentUpdated
)

// Event is emitted to subscribers when the catalog changes. Payload
// fields are copies; subscribers must treat slice contents as
// read-only.
type Event struct {
	Type       EventType
	Object     model.OrbitalObject // set for EventObjectAdded
	Frame      Frame               // set for EventFrameUpdated
	Assessment Assessment          // set for EventAssessmentUpdated
}

// Frame is one propagated snapshot of every object's position at a
// simulation time.
type Frame struct {
	SimTime   float64 // seconds past epoch
	Positions []core.ObjectPosition
}

// Assessment is the output of one detection pass: the ranked
// conjunctions plus the debris grouping at the same instant.
type Assessment struct {
	SimTime      float64
	Conjunctions []model.Conjunction
	Clusters     core.ClusterResult
}

// Catalog stores the object population in insertion order together
// with the most recent frame and assessment. Iteration order is part
// of the contract: grouping and ranking results downstream depend on
// it, so List always returns objects in the order they were added.
type Catalog struct {
	mu sync.RWMutex

	objects map[string]model.OrbitalObject
	order   []string

	frame         Frame
	hasFrame      bool
	assessment    Assessment
	hasAssessment bool

	subs    map[int]func(Event)
	nextSub int
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		objects: make(map[string]model.OrbitalObject),
		subs:    make(map[int]func(Event)),
	}
}

// Add stores a new object. The elements are validated here so that
// nothing unpropagatable ever reaches the engine.
func (c *Catalog) Add(obj model.OrbitalObject) error {
	if obj.ID == "" {
		return fmt.Errorf("add object: empty id")
	}
	if err := obj.Elements.Validate(); err != nil {
		return fmt.Errorf("object %q: %w", obj.ID, err)
	}

	c.mu.Lock()
	if _, exists := c.objects[obj.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrObjectExists, obj.ID)
	}
	c.objects[obj.ID] = obj
	c.order = append(c.order, obj.ID)
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventObjectAdded, Object: obj})
	return nil
}

// AddAll stores every object, stopping at the first failure.
func (c *Catalog) AddAll(objects []model.OrbitalObject) error {
	for _, obj := range objects {
		if err := c.Add(obj); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the object with the given ID.
func (c *Catalog) Get(id string) (model.OrbitalObject, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	obj, ok := c.objects[id]
	if !ok {
		return model.OrbitalObject{}, fmt.Errorf("%w: %q", ErrObjectNotFound, id)
	}
	return obj, nil
}

// List returns a snapshot of all objects in insertion order.
func (c *Catalog) List() []model.OrbitalObject {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.OrbitalObject, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, c.objects[id])
	}
	return res
}

// ListClass returns all objects of one class, in insertion order.
func (c *Catalog) ListClass(class model.ObjectClass) []model.OrbitalObject {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var res []model.OrbitalObject
	for _, id := range c.order {
		if obj := c.objects[id]; obj.Class == class {
			res = append(res, obj)
		}
	}
	return res
}

// Counts returns how many assets and debris objects are stored.
func (c *Catalog) Counts() (assets, debris int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, obj := range c.objects {
		switch obj.Class {
		case model.ClassAsset:
			assets++
		case model.ClassDebris:
			debris++
		}
	}
	return assets, debris
}

// SetFrame stores the latest position frame and notifies subscribers.
func (c *Catalog) SetFrame(f Frame) {
	c.mu.Lock()
	c.frame = f
	c.hasFrame = true
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventFrameUpdated, Frame: f})
}

// LatestFrame returns the most recent frame, if any has been stored.
func (c *Catalog) LatestFrame() (Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame, c.hasFrame
}

// SetAssessment stores the latest detection output and notifies
// subscribers.
func (c *Catalog) SetAssessment(a Assessment) {
	c.mu.Lock()
	c.assessment = a
	c.hasAssessment = true
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventAssessmentUpdated, Assessment: a})
}

// LatestAssessment returns the most recent assessment, if any.
func (c *Catalog) LatestAssessment() (Assessment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assessment, c.hasAssessment
}

// Subscribe registers a callback for catalog events and returns an
// unsubscribe function. Callbacks run outside the catalog lock.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Catalog) snapshotSubsLocked() []func(Event) {
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

// notify runs outside the lock to avoid deadlocks with subscribers
// that call back into the catalog.
func notify(subs []func(Event), e Event) {
	for _, fn := range subs {
		fn(e)
	}
}
