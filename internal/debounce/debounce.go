// Package debounce coalesces bursts of input into a single delayed call and
// guards against late results overwriting newer ones.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending task per key. Scheduling again before the
// quiet interval elapses cancels the pending task and restarts the timer.
// Tasks that already started are not interrupted.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	pending map[string]*pendingTask
	seq     uint64 // generation source shared by all keys; never reused
	stopped bool
	running sync.WaitGroup
}

type pendingTask struct {
	timer *time.Timer
	gen   uint64
}

func New(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]*pendingTask),
	}
}

// Interval returns the quiet interval.
func (d *Debouncer) Interval() time.Duration { return d.interval }

// Schedule (re)arms the timer for key. fn runs once the key has been quiet for the interval.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.seq++
	gen := d.seq
	p := &pendingTask{gen: gen}
	p.timer = time.AfterFunc(d.interval, func() { d.fire(key, gen, fn) })
	d.pending[key] = p
}

func (d *Debouncer) fire(key string, gen uint64, fn func()) {
	d.mu.Lock()
	p, ok := d.pending[key]
	// A timer whose Stop lost the race still fires; the generation tells it apart.
	if d.stopped || !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	fn()
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports how many keys have a task waiting.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending task and waits for running ones to return.
// Later calls to Schedule are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	d.running.Wait()
}
