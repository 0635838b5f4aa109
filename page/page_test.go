package page

import "testing"

func TestInitFresh(t *testing.T) {
	var buf Bytes
	InitFresh(&buf, KindHeapUnsorted, 7)

	h := NewHeaderView(&buf)
	if h.PageNumber() != 7 {
		t.Fatalf("PageNumber: want 7, got %d", h.PageNumber())
	}
	if h.Kind() != KindHeapUnsorted {
		t.Fatalf("Kind: want %d, got %d", KindHeapUnsorted, h.Kind())
	}
	if h.SlotCount() != 0 {
		t.Fatalf("SlotCount: want 0, got %d", h.SlotCount())
	}
	if h.FreeStart() != HeaderSize {
		t.Fatalf("FreeStart: want %d, got %d", HeaderSize, h.FreeStart())
	}
	if h.FreeEnd() != Size {
		t.Fatalf("FreeEnd: want %d, got %d", Size, h.FreeEnd())
	}
	if h.FreeSpace() != Size-HeaderSize {
		t.Fatalf("FreeSpace: want %d, got %d", Size-HeaderSize, h.FreeSpace())
	}
	if h.CanCompact() {
		t.Fatalf("CanCompact: want false on fresh page")
	}

	for i := HeaderSize; i < Size; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d: want zero on fresh page, got %d", i, buf[i])
		}
	}
}

func TestHeaderMutRoundTrip(t *testing.T) {
	var buf Bytes
	InitFresh(&buf, KindIndexLeaf, 1)

	h := NewHeaderMut(&buf)
	h.SetSlotCount(3)
	h.SetFreeStart(200)
	h.SetFreeEnd(4080)
	h.SetFreeSpace(3800)
	h.SetSiblingPrev(11)
	h.SetSiblingNext(22)
	h.SetCanCompact(true)

	v := NewHeaderView(&buf)
	if v.SlotCount() != 3 || v.FreeStart() != 200 || v.FreeEnd() != 4080 ||
		v.FreeSpace() != 3800 || v.SiblingPrev() != 11 || v.SiblingNext() != 22 {
		t.Fatalf("header fields did not round-trip: %+v", v)
	}
	if !v.CanCompact() {
		t.Fatalf("CanCompact: want true after SetCanCompact(true)")
	}
	h.SetCanCompact(false)
	if v.CanCompact() {
		t.Fatalf("CanCompact: want false after SetCanCompact(false)")
	}
}

func TestSlotArrayBounds(t *testing.T) {
	var buf Bytes
	InitFresh(&buf, KindHeapUnsorted, 0)

	arr := NewSlotArrayMut(&buf, 0)
	if _, ok := arr.Get(0); ok {
		t.Fatalf("Get on empty slot array: want ok=false")
	}

	idx, ok := arr.PushNew(HeaderSize, 50, HeaderSize, Size)
	if !ok || idx != 0 {
		t.Fatalf("PushNew: want (0, true), got (%d, %v)", idx, ok)
	}
	sv, ok := arr.Get(0)
	if !ok || sv.Offset != HeaderSize || sv.Length != 50 || sv.Index != 0 {
		t.Fatalf("Get(0) after PushNew: got %+v, ok=%v", sv, ok)
	}
	if !sv.Valid() {
		t.Fatalf("slot with length 50: want Valid() true")
	}

	if !arr.Set(0, HeaderSize, 0) {
		t.Fatalf("Set(0): want true")
	}
	sv, _ = arr.Get(0)
	if sv.Valid() {
		t.Fatalf("slot tombstoned via Set: want Valid() false")
	}

	if arr.Set(5, 0, 0) {
		t.Fatalf("Set(5) on array of 1 slot: want false")
	}
}

func TestSlotArrayPushNewRefusesWhenNoRoom(t *testing.T) {
	var buf Bytes
	InitFresh(&buf, KindHeapUnsorted, 0)

	arr := NewSlotArrayMut(&buf, 0)
	// freeEnd - SlotSize < freeStart means no room for a new slot entry.
	if _, ok := arr.PushNew(100, 10, HeaderSize, HeaderSize+SlotSize-1); ok {
		t.Fatalf("PushNew: want ok=false when free_end-SlotSize < free_start")
	}
}
