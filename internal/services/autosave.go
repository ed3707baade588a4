package services

import (
	"sync"
	"time"
)

const DefaultAutosaveInterval = 30 * time.Second

// autosaver ticks in the background and invokes the flow's flush. The
// flush itself decides whether anything is dirty; the ticker just
// provides cadence. Stop is idempotent and safe to call from Close and
// from Submit teardown both.
type autosaver struct {
	interval time.Duration
	flush    func()

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

func newAutosaver(interval time.Duration, flush func()) *autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &autosaver{
		interval: interval,
		flush:    flush,
		stop:     make(chan struct{}),
	}
}

func (a *autosaver) Start() {
	go a.run()
}

func (a *autosaver) run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.flush()
		case <-a.stop:
			return
		}
	}
}

func (a *autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	close(a.stop)
}
