package search

import "sync/atomic"

// Flag is a one-way cancellation signal shared by a coordinator and its
// workers. The zero value is not cancelled.
type Flag struct {
	cancelled atomic.Bool
}

// Cancel sets the flag. It reports whether this call was the one that set it.
func (f *Flag) Cancel() bool {
	return f.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether the flag is set.
func (f *Flag) Cancelled() bool {
	return f.cancelled.Load()
}
