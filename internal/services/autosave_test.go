package services

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAutosaverTicksAndStops(t *testing.T) {
	var flushes atomic.Int64
	tick := make(chan struct{}, 16)
	a := newAutosaver(5*time.Millisecond, func() {
		flushes.Add(1)
		select {
		case tick <- struct{}{}:
		default:
		}
	})
	a.Start()

	select {
	case <-tick:
	case <-time.After(2 * time.Second):
		t.Fatalf("autosaver never ticked")
	}

	a.Stop()
	// Stop is idempotent.
	a.Stop()

	settled := flushes.Load()
	time.Sleep(30 * time.Millisecond)
	if got := flushes.Load(); got > settled+1 {
		t.Fatalf("autosaver kept flushing after Stop: %d -> %d", settled, got)
	}
}
