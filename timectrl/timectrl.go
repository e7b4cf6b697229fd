// Package timectrl drives simulation time: a wall-clock tick mapped
// through a configurable scale factor onto simulated seconds.
package timectrl

import (
	"sync"
	"time"
)

// SimClock is the read side of simulation time. Components that only
// consume time depend on this interface rather than on the concrete
// controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// SimSeconds returns simulated seconds elapsed since the epoch.
	SimSeconds() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances once per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances as fast as the loop can run, still
	// stepping simulated time by the scaled tick.
	Accelerated
)

// TimeController owns the simulation clock and notifies listeners on
// every advance. The scale factor is the simulated-to-wall time ratio:
// at scale 60 every wall second moves the simulation one minute. It
// can be changed while running.
type TimeController struct {
	Epoch time.Time
	Tick  time.Duration
	Mode  Mode

	mu          sync.RWMutex
	scale       float64
	currentTime time.Time
	listeners   []func(time.Time)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTimeController constructs a controller at scale 1.
func NewTimeController(epoch time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		Epoch:       epoch,
		Tick:        tick,
		Mode:        mode,
		scale:       1,
		currentTime: epoch,
		stop:        make(chan struct{}),
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SimSeconds returns simulated seconds since the epoch. This is the
// `t` every propagation call takes. Implements SimClock.
func (tc *TimeController) SimSeconds() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime.Sub(tc.Epoch).Seconds()
}

// SetTime jumps the simulation clock to the given instant.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// ScaleFactor returns the current simulated-to-wall time ratio.
func (tc *TimeController) ScaleFactor() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.scale
}

// SetScale changes the time scale. Non-positive values are ignored;
// a zero step would stall the run loop.
func (tc *TimeController) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.scale = scale
}

// AddListener registers a callback invoked with the simulation time
// after every advance.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Stop ends a running Start loop. Safe to call more than once.
func (tc *TimeController) Stop() {
	tc.stopOnce.Do(func() { close(tc.stop) })
}

// Start runs the clock in a separate goroutine and returns a channel
// closed when the run finishes. duration bounds the simulated elapsed
// time; zero runs until Stop is called.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		tc.currentTime = tc.Epoch
		tc.mu.Unlock()

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(tc.Tick)
			defer ticker.Stop()
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if ticker != nil {
				select {
				case <-ticker.C:
				case <-tc.stop:
					return
				}
			} else {
				select {
				case <-tc.stop:
					return
				default:
				}
			}

			tc.mu.Lock()
			step := time.Duration(float64(tc.Tick) * tc.scale)
			tc.currentTime = tc.currentTime.Add(step)
			simTime := tc.currentTime
			listeners := append([]func(time.Time){}, tc.listeners...)
			tc.mu.Unlock()
			elapsed += step

			for _, fn := range listeners {
				fn(simTime)
			}
		}
	}()
	return done
}
