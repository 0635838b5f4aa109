package slotted

import "slotdb/faults"

// Delete invalidates the record at slot i. The slot entry becomes a
// (0,0) tombstone; slot_count is never decremented, so every other slot
// index keeps pointing at the record it always did.
//
// Deleting an already-tombstoned slot is a no-op: it succeeds without
// touching free_space a second time. Deleting the physically-last
// record (offset+length == free_start) retracts free_start by its
// length instead of setting the can-compact flag, since no other
// record's bytes need to move for that space to become reusable.
func (p *Page) Delete(i uint16) error {
	h := p.header()
	arr := p.slots()

	sv, ok := arr.Get(i)
	if !ok {
		return p.wrap("delete", faults.ErrSlotOutOfRange)
	}
	if !sv.Valid() {
		return nil
	}

	arr.Set(i, 0, 0)
	h.SetFreeSpace(h.FreeSpace() + sv.Length)

	if sv.Offset+sv.Length == h.FreeStart() {
		h.SetFreeStart(sv.Offset)
	} else {
		h.SetCanCompact(true)
	}

	return nil
}
