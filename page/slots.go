package page

import "encoding/binary"

// SlotView describes one decoded slot entry, carrying its own index
// alongside offset/length so callers can identify which slot they are
// inspecting without separate bookkeeping.
type SlotView struct {
	Index  uint16
	Offset uint16
	Length uint16
}

// Valid reports whether the slot currently points at a live record.
// A slot with offset = 0 and length = 0 is an invalidated tombstone.
func (s SlotView) Valid() bool { return s.Length > 0 }

// slotByteOffset returns the byte offset, from the start of the page,
// where slot i's 4-byte entry begins. Slot 0 sits at the highest
// address and the directory grows backward as slots are added.
func slotByteOffset(i uint16) int {
	return Size - (int(i)+1)*SlotSize
}

// SlotArrayView is an immutable, zero-copy borrow of the slot directory:
// exactly slotCount*SlotSize bytes at the tail of the page.
type SlotArrayView struct {
	buf       *Bytes
	slotCount uint16
}

// NewSlotArrayView borrows the slot directory implied by slotCount.
func NewSlotArrayView(buf *Bytes, slotCount uint16) SlotArrayView {
	return SlotArrayView{buf: buf, slotCount: slotCount}
}

// Count returns the number of slot entries in the view (live + tombstoned).
func (s SlotArrayView) Count() uint16 { return s.slotCount }

// Get decodes slot i. Returns ok=false if i is out of range.
func (s SlotArrayView) Get(i uint16) (SlotView, bool) {
	if i >= s.slotCount {
		return SlotView{}, false
	}
	off := slotByteOffset(i)
	b := s.buf[:]
	return SlotView{
		Index:  i,
		Offset: binary.LittleEndian.Uint16(b[off:]),
		Length: binary.LittleEndian.Uint16(b[off+2:]),
	}, true
}

// SlotArrayMut is a mutable borrow of the slot directory: every
// SlotArrayView operation plus Set and PushNew.
type SlotArrayMut struct {
	SlotArrayView
}

// NewSlotArrayMut borrows the slot directory implied by slotCount for
// both reads and writes.
func NewSlotArrayMut(buf *Bytes, slotCount uint16) SlotArrayMut {
	return SlotArrayMut{SlotArrayView: NewSlotArrayView(buf, slotCount)}
}

// Set overwrites slot i in place. Returns false if i is out of range;
// the array does not grow as a side effect of Set (use PushNew for that).
func (s SlotArrayMut) Set(i, offset, length uint16) bool {
	if i >= s.slotCount {
		return false
	}
	off := slotByteOffset(i)
	b := s.buf[:]
	binary.LittleEndian.PutUint16(b[off:], offset)
	binary.LittleEndian.PutUint16(b[off+2:], length)
	return true
}

// PushNew appends a new slot entry at index slotCount and reports the
// index it was written at. The caller is responsible for persisting the
// incremented slot count and the free_end shrink into the header; this
// method only requires that free_end - SlotSize >= free_start, and
// returns ok=false otherwise without writing anything.
func (s *SlotArrayMut) PushNew(offset, length, freeStart, freeEnd uint16) (index uint16, ok bool) {
	if freeEnd < SlotSize || freeEnd-SlotSize < freeStart {
		return 0, false
	}
	i := s.slotCount
	off := slotByteOffset(i)
	b := s.buf[:]
	binary.LittleEndian.PutUint16(b[off:], offset)
	binary.LittleEndian.PutUint16(b[off+2:], length)
	s.slotCount++
	return i, true
}
