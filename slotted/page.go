// Package slotted implements the slotted-page operations of the storage
// engine: read-by-slot, iteration, the two-phase plan/apply insertion
// protocol, delete, update, and compaction, over the header/slot-array
// primitives in package page.
//
// Grounded on storage_engine/access/heapfile_manager/heap_page.go's
// InsertRecord/GetRecord/DeleteRecord/UpdateRecord, generalized into a
// plan-then-apply split so a write-ahead log can record the intended
// mutation before it is applied (the original per-mutation opLSN
// parameters anticipate exactly this split, just without actually
// separating the two phases).
package slotted

import (
	"slotdb/faults"
	"slotdb/page"
	"slotdb/pageid"
)

// Page is a slotted-page view over one frame's raw bytes, identified by
// the PageId it was loaded for. It borrows buf for its entire lifetime
// and must not outlive the guard that protects those bytes.
type Page struct {
	buf *page.Bytes
	id  pageid.PageID
}

// Wrap adapts a raw 4096-byte block into a slotted Page for the given id.
// It does not initialize the header; call page.InitFresh first for a
// brand-new page, or load existing bytes from disk for an existing one.
func Wrap(buf *page.Bytes, id pageid.PageID) *Page {
	return &Page{buf: buf, id: id}
}

func (p *Page) header() page.HeaderMut { return page.NewHeaderMut(p.buf) }

func (p *Page) slots() page.SlotArrayMut {
	return page.NewSlotArrayMut(p.buf, p.header().SlotCount())
}

func (p *Page) wrap(op string, kind error) *faults.PageError {
	return faults.WrapPage(p.id, op, kind)
}

// Read returns a copy of the record stored at slot i. It fails with
// SlotOutOfRange if i >= slot_count and SlotInvalidated if the slot is a
// tombstone.
func (p *Page) Read(i uint16) ([]byte, error) {
	sv, ok := p.slots().Get(i)
	if !ok {
		return nil, p.wrap("read", faults.ErrSlotOutOfRange)
	}
	if !sv.Valid() {
		return nil, p.wrap("read", faults.ErrSlotInvalidated)
	}
	out := make([]byte, sv.Length)
	copy(out, p.buf[sv.Offset:sv.Offset+sv.Length])
	return out, nil
}

// Iterator yields valid records in slot-index order. It is not
// restartable mid-sequence; call Page.Iterate again to start over.
type Iterator struct {
	p    *Page
	next uint16
}

// Iterate produces a lazy, finite sequence over slots 0..slot_count-1,
// skipping invalidated slots.
func (p *Page) Iterate() *Iterator { return &Iterator{p: p} }

// Next advances the iterator, returning the next valid (slotIndex,
// record) pair, or ok=false once no valid slots remain.
func (it *Iterator) Next() (slotIndex uint16, record []byte, ok bool) {
	count := it.p.header().SlotCount()
	for it.next < count {
		i := it.next
		it.next++
		sv, found := it.p.slots().Get(i)
		if found && sv.Valid() {
			out := make([]byte, sv.Length)
			copy(out, it.p.buf[sv.Offset:sv.Offset+sv.Length])
			return i, out, true
		}
	}
	return 0, nil, false
}

// ID returns the PageId this slotted view was wrapped for.
func (p *Page) ID() pageid.PageID { return p.id }
