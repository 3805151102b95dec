package reporting

import "sync"

// WriteLatch counts report writes in flight and holds at most one continuation
// to run once the count drains to zero.
type WriteLatch struct {
	mu       sync.Mutex
	pending  int
	onDrain  func()
	observer func(pending int)
}

// Observe registers fn to receive the pending count after every change. It is
// called with the latch held, so successive calls see the counts in order.
func (l *WriteLatch) Observe(fn func(pending int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = fn
}

// Add registers a write that has been issued.
func (l *WriteLatch) Add() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending++
	l.notify()
}

// Done marks one write as finished. When it was the last one, the stored
// continuation (if any) is released and invoked outside the lock.
func (l *WriteLatch) Done() {
	l.mu.Lock()
	if l.pending == 0 {
		l.mu.Unlock()
		panic("reporting: WriteLatch.Done called without matching Add")
	}
	l.pending--
	l.notify()
	var fn func()
	if l.pending == 0 {
		fn = l.onDrain
		l.onDrain = nil
	}
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (l *WriteLatch) notify() {
	if l.observer != nil {
		l.observer(l.pending)
	}
}

// Pending returns the number of writes in flight.
func (l *WriteLatch) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// OnDrain calls fn immediately when nothing is pending. Otherwise fn replaces
// any previously stored continuation and runs when the last write finishes.
func (l *WriteLatch) OnDrain(fn func()) {
	l.mu.Lock()
	if l.pending > 0 {
		l.onDrain = fn
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	fn()
}
