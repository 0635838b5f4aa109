package buffer

import (
	"sync"
	"sync/atomic"

	"slotdb/page"
	"slotdb/pageid"
)

// Frame owns one page's 4096 bytes for the lifetime of the process, per
// spec.md §4.3. Four independent synchronization mechanisms protect its
// four pieces of state, each sized to what it guards:
//
//   - dataLatch: a reader-writer latch over the page bytes themselves.
//   - occMu + occupant: a short mutex over the nullable occupancy
//     identifier, distinct from dataLatch so the buffer manager's
//     free-frame search can inspect occupancy without contending with
//     in-progress page reads/writes on that frame (spec.md §4.3, §5).
//   - pin: a lock-free atomic counter.
//   - dirty: a lock-free atomic flag.
//
// Grounded on storage_engine/page/page.go's Page{Data, IsDirty,
// PinCount, mu sync.RWMutex} with Lock/Unlock/RLock/RUnlock, split into
// the two independently-latched pieces spec.md §4.3 requires.
type Frame struct {
	index int
	bytes page.Bytes

	dataLatch sync.RWMutex

	occMu    sync.Mutex
	occupant *pageid.PageID

	pin   atomic.Int32
	dirty atomic.Bool
}

func newFrame(index int) *Frame {
	return &Frame{index: index}
}

// Pin and Unpin adjust the frame's pin counter. A pinned frame
// (PinCount() > 0) must never be selected by free-frame search.
func (f *Frame) Pin()   { f.pin.Add(1) }
func (f *Frame) Unpin() { f.pin.Add(-1) }

// PinCount reports the current pin count.
func (f *Frame) PinCount() int32 { return f.pin.Load() }

// Dirty reports whether the frame's bytes have unflushed modifications.
func (f *Frame) Dirty() bool { return f.dirty.Load() }

// SetDirty sets or clears the dirty flag.
func (f *Frame) SetDirty(v bool) { f.dirty.Store(v) }

// occupiedBy reports the PageID currently resident in the frame, if any.
func (f *Frame) occupiedBy() (pageid.PageID, bool) {
	f.occMu.Lock()
	defer f.occMu.Unlock()
	if f.occupant == nil {
		return 0, false
	}
	return *f.occupant, true
}
