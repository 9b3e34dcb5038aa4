package app

import "sync"

// Dispatcher runs callbacks in the order they were enqueued, one at a time,
// never while a caller holds a lock. A callback that triggers further
// notifications has them appended to the queue instead of nested.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Enqueue appends fn without running it. Safe to call under other locks.
func (d *Dispatcher) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

// Flush drains the queue. If another goroutine is already draining, it
// picks up the new entries and Flush returns at once. A panicking callback
// leaves the dispatcher usable; the remaining entries run on the next Flush.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	drained := false
	defer func() {
		if !drained {
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
		}
	}()
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			drained = true
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()
		fn()
	}
}

// Post enqueues fn and flushes.
func (d *Dispatcher) Post(fn func()) {
	d.Enqueue(fn)
	d.Flush()
}
