package core

// load_gate.go keeps file loads from overlapping.
//
// A load runs the whole ingestion pipeline synchronously. A second trigger
// while one is running is rejected immediately with ErrLoadInProgress rather
// than queued, so the dataset a user sees always matches the last file they
// picked. WaitForDrain lets shutdown wait for the running load to finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoadInProgress is returned when a load is already running.
var ErrLoadInProgress = errors.New("too many uploads: a file is already being loaded")

// LoadGate admits at most one load at a time.
type LoadGate struct {
	slot chan struct{}

	mu       sync.RWMutex
	active   int
	rejected int64
}

// NewLoadGate creates an open gate.
func NewLoadGate() *LoadGate {
	return &LoadGate{slot: make(chan struct{}, 1)}
}

// TryAcquire takes the gate without blocking.
// Returns true if the caller may load. The caller MUST call Release when done.
func (g *LoadGate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return true
	default:
		g.mu.Lock()
		g.rejected++
		g.mu.Unlock()
		return false
	}
}

// Release reopens the gate.
// Must be called exactly once for each successful TryAcquire.
func (g *LoadGate) Release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()

	<-g.slot
}

// Busy reports whether a load is running.
func (g *LoadGate) Busy() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active > 0
}

// WaitForDrain blocks until no load is running or ctx is cancelled.
func (g *LoadGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LoadGateStatus is a snapshot of the gate for health output.
type LoadGateStatus struct {
	Busy     bool  `json:"busy"`
	Rejected int64 `json:"rejected"`
}

// Status returns the current gate state.
func (g *LoadGate) Status() LoadGateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return LoadGateStatus{
		Busy:     g.active > 0,
		Rejected: g.rejected,
	}
}
