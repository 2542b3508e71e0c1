// Package schedule runs delayed work keyed by an identifier, at most one pending task
// per key.
package schedule

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type task struct {
	timer *time.Timer
	seq   uint64
}

// Deferred keeps one pending task per key. Scheduling a key again replaces its task.
type Deferred[K comparable] struct {
	mu      sync.Mutex
	tasks   map[K]*task
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
	logger  *zap.Logger
}

func NewDeferred[K comparable](logger *zap.Logger) *Deferred[K] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deferred[K]{
		tasks:  make(map[K]*task),
		logger: logger,
	}
}

// Schedule runs fn after delay unless the key is cancelled or rescheduled first.
func (d *Deferred[K]) Schedule(key K, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if prev, ok := d.tasks[key]; ok {
		if prev.timer.Stop() {
			d.wg.Done()
		}
	}

	d.seq++
	t := &task{seq: d.seq}
	d.wg.Add(1)
	t.timer = time.AfterFunc(delay, func() {
		defer d.wg.Done()
		if !d.take(key, t.seq) {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("deferred task panicked", zap.Any("key", key), zap.Any("panic", r))
			}
		}()
		fn()
	})
	d.tasks[key] = t
}

// Cancel drops the pending task for key, if any.
func (d *Deferred[K]) Cancel(key K) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.tasks[key]; ok {
		if t.timer.Stop() {
			d.wg.Done()
		}
		delete(d.tasks, key)
	}
}

// Pending reports how many tasks are waiting to fire.
func (d *Deferred[K]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.tasks)
}

// Stop cancels everything pending and waits for tasks already running.
func (d *Deferred[K]) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.tasks {
		if t.timer.Stop() {
			d.wg.Done()
		}
		delete(d.tasks, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// take claims the task if it is still the current one for key.
func (d *Deferred[K]) take(key K, seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tasks[key]
	if !ok || t.seq != seq || d.stopped {
		return false
	}
	delete(d.tasks, key)
	return true
}
