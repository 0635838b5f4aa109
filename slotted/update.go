package slotted

import (
	"slotdb/faults"
	"slotdb/page"
)

// Update replaces the record at slot i with newRecord, per spec.md
// §4.2.5. The slot index never changes.
//
// When len(newRecord) does not exceed the current record's length, the
// bytes are overwritten in place at the existing offset and the
// difference is returned to free_space; if the record was trailing
// (offset+length == free_start), free_start retracts by the difference
// exactly as a same-size Delete would.
//
// When len(newRecord) is larger, the old bytes are freed exactly as
// Delete would free them, and the new bytes are placed by the same
// ordered offset search Insert uses — but always reusing slot i rather
// than letting the first free tombstone win, so the row keeps its slot
// number. If no placement exists even after compaction, the update
// fails with InsertionInsufficientSpace and the slot is left untouched.
func (p *Page) Update(i uint16, newRecord []byte) error {
	h := p.header()
	arr := p.slots()

	sv, ok := arr.Get(i)
	if !ok {
		return p.wrap("update", faults.ErrSlotOutOfRange)
	}
	if !sv.Valid() {
		return p.wrap("update", faults.ErrSlotInvalidated)
	}

	newLen := uint16(len(newRecord))
	if newLen <= sv.Length {
		return p.updateShrink(sv, i, newRecord)
	}

	available := h.FreeSpace() + sv.Length
	if newLen > available {
		return p.wrap("update", faults.ErrInsertionInsufficientSpace)
	}

	if err := p.Delete(i); err != nil {
		return err
	}

	probe, advances := p.probeOffset(newLen, false)
	offset := probe.at
	if probe.decision == AfterCompactionFreeStart {
		if err := p.Compact(); err != nil {
			return err
		}
		offset = p.header().FreeStart()
		advances = true
	}

	copy(p.buf[offset:offset+newLen], newRecord)
	arr.Set(i, offset, newLen)

	h = p.header()
	if advances {
		h.SetFreeStart(offset + newLen)
	}
	h.SetFreeSpace(h.FreeSpace() - newLen)
	return nil
}

// updateShrink handles the len(newRecord) <= old length case: an
// in-place overwrite with no relocation.
func (p *Page) updateShrink(sv page.SlotView, i uint16, newRecord []byte) error {
	h := p.header()
	arr := p.slots()
	newLen := uint16(len(newRecord))
	freed := sv.Length - newLen

	copy(p.buf[sv.Offset:sv.Offset+newLen], newRecord)
	arr.Set(i, sv.Offset, newLen)
	h.SetFreeSpace(h.FreeSpace() + freed)

	if sv.Offset+sv.Length == h.FreeStart() {
		h.SetFreeStart(sv.Offset + newLen)
	}
	return nil
}
