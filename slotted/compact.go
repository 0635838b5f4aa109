package slotted

import "slotdb/page"

// Compact squeezes out the dead space left behind by deletes and
// shrinking updates, per spec.md §4.2.6. Records are copied into a
// scratch buffer in ascending slot-index order — not ascending offset
// order — so slot i's record always lands before slot j's whenever
// i < j, regardless of where either record used to sit. Slot indices,
// lengths and tombstone markers are untouched; only offsets move.
//
// Grounded on storage_engine/access/heapfile_manager/heap_page.go's
// CompactPage, generalized from its specific in-place shuffle to the
// scratch-buffer-then-copy-back approach spec.md calls for, which makes
// the "never touch a tombstone's (0,0) entry" invariant easy to keep.
func (p *Page) Compact() error {
	h := p.header()
	arr := p.slots()
	count := h.SlotCount()

	scratch := make([]byte, h.FreeStart()-page.HeaderSize)
	cursor := uint16(0)

	for i := uint16(0); i < count; i++ {
		sv, ok := arr.Get(i)
		if !ok || !sv.Valid() {
			continue
		}
		newOffset := page.HeaderSize + cursor
		copy(scratch[cursor:cursor+sv.Length], p.buf[sv.Offset:sv.Offset+sv.Length])
		arr.Set(i, newOffset, sv.Length)
		cursor += sv.Length
	}

	dataRegion := p.buf[page.HeaderSize:h.FreeStart()]
	copy(dataRegion, scratch)
	for i := cursor; i < uint16(len(dataRegion)); i++ {
		dataRegion[i] = 0
	}

	// free_space is left as it is: Delete and shrinking Update already
	// counted the fragment bytes, which now sit in the contiguous gap.
	newFreeStart := page.HeaderSize + cursor
	h.SetFreeStart(newFreeStart)
	h.SetCanCompact(false)

	return nil
}
