package buffer

import (
	"slotdb/page"
	"slotdb/pageid"
	"slotdb/slotted"
)

// PageReader is the read-only surface of a slotted page, the type a
// PageReadGuard exposes. slotted.Page's mutating methods (Insert,
// Delete, Update, Compact, Apply) are deliberately absent from this
// interface: a page reached through a read guard has only the frame's
// read latch held, and writing through it would race with a concurrent
// reader holding the same latch.
type PageReader interface {
	Read(i uint16) ([]byte, error)
	Iterate() *slotted.Iterator
	ID() pageid.PageID
}

// PageReadGuard is held while a caller has read access to a cached
// page. Its validity is coterminous with the guard: once Release is
// called, the page reference it returned must not be used again.
type PageReadGuard struct {
	frame    *Frame
	pg       *slotted.Page
	released bool
}

// Page returns the read-only page view this guard protects.
func (g *PageReadGuard) Page() PageReader { return g.pg }

// Release drops the frame's read latch and unpins it. Calling Release
// more than once is a no-op.
func (g *PageReadGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.frame.Unpin()
	g.frame.dataLatch.RUnlock()
}

// PageWriteGuard is held while a caller has exclusive mutating access to
// a cached page.
type PageWriteGuard struct {
	frame    *Frame
	pg       *slotted.Page
	released bool
}

// Page returns the full mutating page view this guard protects.
func (g *PageWriteGuard) Page() *slotted.Page { return g.pg }

// Bytes exposes the frame's raw 4096-byte block so a caller of
// AllocateNewPage can stamp a fresh header (page.InitFresh) before
// issuing any record operations, per spec.md §4.4.6: the caller, not
// the buffer manager, is responsible for initializing newly allocated
// bytes.
func (g *PageWriteGuard) Bytes() *page.Bytes { return &g.frame.bytes }

// Release drops the frame's write latch and unpins it. Any mutation
// reached through Page() before Release is assumed to have dirtied the
// frame, so Release marks it dirty before releasing the latch. Calling
// Release more than once is a no-op.
func (g *PageWriteGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.frame.SetDirty(true)
	g.frame.Unpin()
	g.frame.dataLatch.Unlock()
}
