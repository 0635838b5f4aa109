package slotted

import (
	"bytes"
	"errors"
	"testing"

	"slotdb/faults"
	"slotdb/page"
	"slotdb/pageid"
)

func freshPage(t *testing.T, pageNumber uint32) *Page {
	t.Helper()
	var buf page.Bytes
	page.InitFresh(&buf, page.KindHeapUnsorted, pageNumber)
	return Wrap(&buf, pageid.New(1, pageNumber))
}

func rec(n int, b byte) []byte {
	r := make([]byte, n)
	for i := range r {
		r[i] = b
	}
	return r
}

func TestReadOutOfRangeAndInvalidated(t *testing.T) {
	p := freshPage(t, 1)
	if _, err := p.Read(0); !errors.Is(err, faults.ErrSlotOutOfRange) {
		t.Fatalf("Read on empty page: want SlotOutOfRange, got %v", err)
	}

	idx, err := p.Insert(rec(10, 'a'))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := p.Delete(idx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := p.Read(idx); !errors.Is(err, faults.ErrSlotInvalidated) {
		t.Fatalf("Read tombstoned slot: want SlotInvalidated, got %v", err)
	}
}

func TestInsertFillsContiguousGapAndRoundTrips(t *testing.T) {
	p := freshPage(t, 1)
	a := rec(100, 'a')
	idx, err := p.Insert(a)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if idx != 0 {
		t.Fatalf("first insert: want slot 0, got %d", idx)
	}
	got, err := p.Read(idx)
	if err != nil || !bytes.Equal(got, a) {
		t.Fatalf("Read after Insert: got %v, err %v", got, err)
	}

	h := page.NewHeaderView(p.buf)
	if h.FreeStart() != page.HeaderSize+100 {
		t.Fatalf("free_start: want %d, got %d", page.HeaderSize+100, h.FreeStart())
	}
}

func TestTrailingDeletePreservesUnfragmented(t *testing.T) {
	p := freshPage(t, 1)
	for _, n := range []int{100, 50, 50} {
		if _, err := p.Insert(rec(n, 'x')); err != nil {
			t.Fatalf("Insert(%d): %v", n, err)
		}
	}
	if err := p.Delete(2); err != nil {
		t.Fatalf("Delete(2): %v", err)
	}

	h := page.NewHeaderView(p.buf)
	if h.CanCompact() {
		t.Fatalf("CanCompact: want false after trailing delete")
	}
	if want := uint16(page.HeaderSize + 150); h.FreeStart() != want {
		t.Fatalf("free_start: want %d, got %d", want, h.FreeStart())
	}
}

func TestMidDeleteSetsFragmentation(t *testing.T) {
	p := freshPage(t, 1)
	for _, n := range []int{100, 50, 50} {
		if _, err := p.Insert(rec(n, 'x')); err != nil {
			t.Fatalf("Insert(%d): %v", n, err)
		}
	}
	if err := p.Delete(1); err != nil {
		t.Fatalf("Delete(1): %v", err)
	}

	h := page.NewHeaderView(p.buf)
	if !h.CanCompact() {
		t.Fatalf("CanCompact: want true after mid delete")
	}
	if want := uint16(page.HeaderSize + 200); h.FreeStart() != want {
		t.Fatalf("free_start: want %d, got %d", want, h.FreeStart())
	}
	sv, ok := p.slots().Get(1)
	if !ok || sv.Valid() {
		t.Fatalf("slot 1: want tombstone, got %+v ok=%v", sv, ok)
	}
}

func TestReuseBeforeCompact(t *testing.T) {
	p := freshPage(t, 1)
	for _, n := range []int{100, 50, 50} {
		if _, err := p.Insert(rec(n, 'x')); err != nil {
			t.Fatalf("Insert(%d): %v", n, err)
		}
	}
	if err := p.Delete(1); err != nil {
		t.Fatalf("Delete(1): %v", err)
	}

	idx, err := p.Insert(rec(50, 'y'))
	if err != nil {
		t.Fatalf("Insert after delete: %v", err)
	}
	if idx != 1 {
		t.Fatalf("reused slot: want 1, got %d", idx)
	}

	sv, _ := p.slots().Get(1)
	if want := uint16(page.HeaderSize + 100); sv.Offset != want {
		t.Fatalf("reused slot offset: want %d, got %d", want, sv.Offset)
	}
	if page.NewHeaderView(p.buf).SlotCount() != 3 {
		t.Fatalf("slot_count: want unchanged at 3")
	}
}

func TestCompactionTriggeredOnInsert(t *testing.T) {
	p := freshPage(t, 1)
	var idx [3]uint16
	var err error
	for i, n := range []int{1200, 1200, 1200} {
		idx[i], err = p.Insert(rec(n, byte('a'+i)))
		if err != nil {
			t.Fatalf("Insert(%d): %v", n, err)
		}
	}
	if err := p.Delete(idx[1]); err != nil {
		t.Fatalf("Delete(1): %v", err)
	}

	plan, err := p.Plan(1500)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Offset != AfterCompactionFreeStart {
		t.Fatalf("Plan.Offset: want AfterCompactionFreeStart, got %v", plan.Offset)
	}
	if plan.Slot != ReuseSlot || plan.ReuseIndex != 1 {
		t.Fatalf("Plan.Slot: want ReuseSlot(1), got %v %d", plan.Slot, plan.ReuseIndex)
	}

	newRec := rec(1500, 'z')
	slotIdx, err := p.Apply(plan, newRec)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if slotIdx != 1 {
		t.Fatalf("Apply slot: want 1, got %d", slotIdx)
	}

	h := page.NewHeaderView(p.buf)
	if h.CanCompact() {
		t.Fatalf("CanCompact: want false after compaction")
	}
	if want := uint16(page.HeaderSize + 2400 + 1500); h.FreeStart() != want {
		t.Fatalf("free_start after compaction+insert: want %d, got %d", want, h.FreeStart())
	}

	got0, _ := p.Read(0)
	got1, _ := p.Read(1)
	got2, _ := p.Read(2)
	if !bytes.Equal(got0, rec(1200, 'a')) {
		t.Fatalf("slot0 contents changed by compaction")
	}
	if !bytes.Equal(got1, newRec) {
		t.Fatalf("slot1 contents: want the freshly inserted record")
	}
	if !bytes.Equal(got2, rec(1200, 'c')) {
		t.Fatalf("slot2 contents changed by compaction")
	}
}

func TestInsufficientSpace(t *testing.T) {
	p := freshPage(t, 1)
	for {
		_, err := p.Insert(rec(64, 'f'))
		if err != nil {
			var pe *faults.PageError
			if !errors.As(err, &pe) || !errors.Is(err, faults.ErrInsertionInsufficientSpace) {
				t.Fatalf("fill loop: unexpected error %v", err)
			}
			break
		}
	}

	h := page.NewHeaderView(p.buf)
	if _, err := p.Plan(uint16(h.FreeSpace()) + 1); !errors.Is(err, faults.ErrInsertionInsufficientSpace) {
		t.Fatalf("Plan beyond free_space: want InsufficientSpace, got %v", err)
	}
}

func TestUpdateShrinkRetractsTrailingFreeStart(t *testing.T) {
	p := freshPage(t, 1)
	idx, _ := p.Insert(rec(100, 'a'))

	if err := p.Update(idx, rec(40, 'b')); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := p.Read(idx)
	if !bytes.Equal(got, rec(40, 'b')) {
		t.Fatalf("Read after shrink update: got %v", got)
	}
	h := page.NewHeaderView(p.buf)
	if want := uint16(page.HeaderSize + 40); h.FreeStart() != want {
		t.Fatalf("free_start after trailing shrink: want %d, got %d", want, h.FreeStart())
	}
}

func TestUpdateGrowReusesSameSlot(t *testing.T) {
	p := freshPage(t, 1)
	i0, _ := p.Insert(rec(50, 'a'))
	i1, _ := p.Insert(rec(50, 'b'))

	if err := p.Update(i1, rec(200, 'c')); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if i1 != 1 {
		t.Fatalf("sanity: i1 should be 1")
	}
	got, err := p.Read(i1)
	if err != nil || !bytes.Equal(got, rec(200, 'c')) {
		t.Fatalf("Read after grow update: got %v err %v", got, err)
	}
	other, _ := p.Read(i0)
	if !bytes.Equal(other, rec(50, 'a')) {
		t.Fatalf("unrelated slot changed by update: got %v", other)
	}
}

func TestUpdateGrowOverflowLeavesSlotUntouched(t *testing.T) {
	p := freshPage(t, 1)
	idx, _ := p.Insert(rec(10, 'a'))

	h := page.NewHeaderView(p.buf)
	tooBig := int(h.FreeSpace()) + 100
	err := p.Update(idx, rec(tooBig, 'z'))
	if !errors.Is(err, faults.ErrInsertionInsufficientSpace) {
		t.Fatalf("Update overflow: want InsertionInsufficientSpace, got %v", err)
	}

	got, rerr := p.Read(idx)
	if rerr != nil || !bytes.Equal(got, rec(10, 'a')) {
		t.Fatalf("slot after failed update: want original record, got %v err %v", got, rerr)
	}
}

func TestDeleteIdempotentAndOutOfRange(t *testing.T) {
	p := freshPage(t, 1)
	idx, _ := p.Insert(rec(10, 'a'))

	if err := p.Delete(idx); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := p.Delete(idx); err != nil {
		t.Fatalf("second Delete on tombstone: want nil, got %v", err)
	}
	if err := p.Delete(99); !errors.Is(err, faults.ErrSlotOutOfRange) {
		t.Fatalf("Delete out of range: want SlotOutOfRange, got %v", err)
	}
}

func TestIteratorSkipsTombstones(t *testing.T) {
	p := freshPage(t, 1)
	p.Insert(rec(10, 'a'))
	p.Insert(rec(10, 'b'))
	p.Insert(rec(10, 'c'))
	p.Delete(1)

	var seen [][]byte
	it := p.Iterate()
	for {
		_, r, ok := it.Next()
		if !ok {
			break
		}
		seen = append(seen, r)
	}
	if len(seen) != 2 {
		t.Fatalf("iterate: want 2 live records, got %d", len(seen))
	}
	if !bytes.Equal(seen[0], rec(10, 'a')) || !bytes.Equal(seen[1], rec(10, 'c')) {
		t.Fatalf("iterate: unexpected contents %v", seen)
	}
}

func TestStableSlotNumberAcrossCompaction(t *testing.T) {
	p := freshPage(t, 1)
	p.Insert(rec(500, 'a'))
	target, _ := p.Insert(rec(500, 'b'))
	p.Insert(rec(500, 'c'))
	p.Delete(0)

	if err := p.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	got, err := p.Read(target)
	if err != nil || !bytes.Equal(got, rec(500, 'b')) {
		t.Fatalf("slot %d after compaction: got %v err %v", target, got, err)
	}
}

func TestCompactIdempotentOnReadableBytes(t *testing.T) {
	p := freshPage(t, 1)
	p.Insert(rec(300, 'a'))
	p.Insert(rec(300, 'b'))
	p.Delete(0)
	p.Insert(rec(300, 'c'))

	before := readAll(t, p)
	if err := p.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	after := readAll(t, p)

	if len(before) != len(after) {
		t.Fatalf("record count changed across compaction: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			t.Fatalf("record %d changed across compaction: %v vs %v", i, before[i], after[i])
		}
	}
}

func readAll(t *testing.T, p *Page) [][]byte {
	t.Helper()
	var out [][]byte
	it := p.Iterate()
	for {
		_, r, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}
