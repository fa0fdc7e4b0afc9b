package mcp

import "sync/atomic"

// runLock is a non-blocking lock held while a filter tool writes output.
// A second write request fails fast instead of queueing behind the first.
type runLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking
func (l *runLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that acquired it.
func (l *runLock) Release() {
	l.state.Store(0)
}
