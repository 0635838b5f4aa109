package buffer

import "sync"

// entryState is the lifecycle of one PageEntry, per spec.md §3's
// PageEntry{state, waiters} and §4.4.4's miss-path protocol.
type entryState uint8

const (
	stateLoading entryState = iota
	stateReady
	stateFailed
)

// pageEntry is the buffer index's value type: a shared handle so the
// page-index mapping latch can be released before a caller waits on an
// individual entry's condition variable, per spec.md §4.4.1 and the
// page-index-value-indirection design note (spec.md §9). Every
// pageEntry in the index is reached only via a *pageEntry pointer
// shared between the map and whichever goroutines are waiting on it;
// there is never a reason to copy one by value.
type pageEntry struct {
	mu   sync.Mutex
	cond *sync.Cond

	state      entryState
	frameIndex int
	err        error // set iff state == stateFailed
}

func newPageEntry(frameIndex int) *pageEntry {
	e := &pageEntry{state: stateLoading, frameIndex: frameIndex}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// waitReady blocks until the entry leaves stateLoading, then returns the
// frame it resolved to, or the disk error that failed its load.
func (e *pageEntry) waitReady() (int, error) {
	e.mu.Lock()
	for e.state == stateLoading {
		e.cond.Wait()
	}
	state, frameIndex, err := e.state, e.frameIndex, e.err
	e.mu.Unlock()
	if state == stateFailed {
		return 0, err
	}
	return frameIndex, nil
}

// markReady publishes the Loading -> Ready transition and wakes every
// waiter. Callers must not call this until they are done needing the
// frame's data write-latch held exclusively against waiters that have
// not yet re-acquired it (see spec.md §4.4.4 step 5 and §9's
// loading-state-publication-ordering note); in this implementation the
// caller holds that write latch across this call by construction.
func (e *pageEntry) markReady() {
	e.mu.Lock()
	e.state = stateReady
	e.cond.Broadcast()
	e.mu.Unlock()
}

// markFailed publishes a load failure and wakes every waiter with it.
func (e *pageEntry) markFailed(err error) {
	e.mu.Lock()
	e.state = stateFailed
	e.err = err
	e.cond.Broadcast()
	e.mu.Unlock()
}
