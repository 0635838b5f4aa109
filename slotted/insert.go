package slotted

import (
	"sort"

	"slotdb/faults"
	"slotdb/page"
)

// SlotDecision says whether an insertion plan reuses an existing
// invalidated slot or allocates a new one.
type SlotDecision uint8

const (
	NewSlot SlotDecision = iota
	ReuseSlot
)

// OffsetDecision says whether an insertion plan has already resolved an
// exact data-region offset, or requires a compaction pass first.
type OffsetDecision uint8

const (
	ExactOffset OffsetDecision = iota
	AfterCompactionFreeStart
)

// InsertionPlan is the read-only output of Page.Plan: the slot and
// offset an insertion of RecordSize bytes would use, computed without
// mutating the page. Callers (typically a write-ahead log) record the
// plan before Page.Apply executes it.
type InsertionPlan struct {
	RecordSize uint16

	Slot       SlotDecision
	ReuseIndex uint16 // valid iff Slot == ReuseSlot

	Offset  OffsetDecision
	ExactAt uint16 // valid iff Offset == ExactOffset

	// advancesFreeStart is true when the chosen placement is case (a) or
	// (c) of spec.md §4.2.3 step 3 — the two probes that place the record
	// after every valid record, so free_start becomes the record's end —
	// as opposed to case (b), which fills an interior gap between two
	// already-placed records and leaves free_start untouched.
	advancesFreeStart bool
}

// Plan computes the insertion decisions for a record of recordSize
// bytes, reproducing spec.md §4.2.3's algorithm exactly: it never
// mutates the page, and returns InsertionInsufficientSpace immediately
// if the record (plus a new slot entry, if no tombstone is available to
// reuse) cannot possibly fit even after compaction.
func (p *Page) Plan(recordSize uint16) (InsertionPlan, error) {
	h := p.header()
	arr := p.slots()

	reuseIdx, hasReuse := firstInvalidatedSlot(arr.SlotArrayView)

	required := recordSize
	if !hasReuse {
		required += page.SlotSize
	}
	if required > h.FreeSpace() {
		return InsertionPlan{}, p.wrap("plan", faults.ErrInsertionInsufficientSpace)
	}

	plan := InsertionPlan{RecordSize: recordSize}
	if hasReuse {
		plan.Slot = ReuseSlot
		plan.ReuseIndex = reuseIdx
	} else {
		plan.Slot = NewSlot
	}

	offset, advances := p.probeOffset(recordSize, plan.Slot == NewSlot)
	plan.Offset = offset.decision
	plan.ExactAt = offset.at
	plan.advancesFreeStart = advances
	return plan, nil
}

// offsetProbe is the outcome of the case (a)/(b)/(c)/(d) search of
// spec.md §4.2.3 step 3, independent of whether the caller is placing a
// brand-new slot or reusing an existing one.
type offsetProbe struct {
	decision OffsetDecision
	at       uint16
}

// probeOffset runs the ordered offset search shared by Plan and the
// growing path of Update: (a) the contiguous gap at free_start, (b) an interior
// gap between two sorted valid records, (c) the gap between the last
// valid record and free_start, (d) compaction required. reserveSlot
// tells it to treat free_end as SlotSize tighter, for callers about to
// also append a brand-new slot entry.
func (p *Page) probeOffset(recordSize uint16, reserveSlot bool) (offsetProbe, bool) {
	h := p.header()
	arr := p.slots()

	freeEndEffective := h.FreeEnd()
	if reserveSlot {
		freeEndEffective -= page.SlotSize
	}
	freeStart := h.FreeStart()

	// (a) does the record fit in the contiguous free gap?
	if recordSize <= freeEndEffective-freeStart {
		return offsetProbe{decision: ExactOffset, at: freeStart}, true
	}

	// (b) does it fit in a gap between two valid records, sorted by offset?
	valid := sortedValidSlots(arr.SlotArrayView, h.SlotCount())
	for i := 0; i+1 < len(valid); i++ {
		a, b := valid[i], valid[i+1]
		gapStart := a.Offset + a.Length
		if b.Offset > gapStart && b.Offset-gapStart >= recordSize {
			return offsetProbe{decision: ExactOffset, at: gapStart}, false
		}
	}

	// (c) does it fit between the last valid record's end and free_start?
	if len(valid) > 0 {
		last := valid[len(valid)-1]
		lastEnd := last.Offset + last.Length
		if freeStart > lastEnd && freeStart-lastEnd >= recordSize {
			return offsetProbe{decision: ExactOffset, at: lastEnd}, true
		}
	}

	// (d) only compaction can make room.
	return offsetProbe{decision: AfterCompactionFreeStart}, true
}

// Apply executes a previously computed plan, writing record into the
// page and returning the slot index it was written at. If the plan
// requires compaction, Apply compacts the page first (see Compact) and
// resolves the effective offset to the post-compaction free_start.
func (p *Page) Apply(plan InsertionPlan, record []byte) (uint16, error) {
	offset := plan.ExactAt
	advances := plan.advancesFreeStart

	if plan.Offset == AfterCompactionFreeStart {
		if err := p.Compact(); err != nil {
			return 0, err
		}
		offset = p.header().FreeStart()
		advances = true
	}

	copy(p.buf[offset:offset+plan.RecordSize], record)

	h := p.header()
	var slotIndex uint16
	switch plan.Slot {
	case ReuseSlot:
		slotIndex = plan.ReuseIndex
		p.slots().Set(slotIndex, offset, plan.RecordSize)
		h.SetFreeSpace(h.FreeSpace() - plan.RecordSize)
	case NewSlot:
		arr := p.slots()
		idx, ok := arr.PushNew(offset, plan.RecordSize, h.FreeStart(), h.FreeEnd())
		if !ok {
			return 0, p.wrap("apply", faults.ErrInsertionInsufficientSpace)
		}
		slotIndex = idx
		h.SetSlotCount(arr.Count())
		h.SetFreeEnd(h.FreeEnd() - page.SlotSize)
		h.SetFreeSpace(h.FreeSpace() - plan.RecordSize - page.SlotSize)
	}

	if advances {
		h.SetFreeStart(offset + plan.RecordSize)
	}

	return slotIndex, nil
}

// Insert is a convenience wrapper around Plan+Apply for callers that do
// not need to log the plan separately before executing it.
func (p *Page) Insert(record []byte) (uint16, error) {
	plan, err := p.Plan(uint16(len(record)))
	if err != nil {
		return 0, err
	}
	return p.Apply(plan, record)
}

// firstInvalidatedSlot scans the slot array from index 0 upward and
// returns the first tombstone found, per spec.md §4.2.3 step 2 and the
// delete-then-insert reuse property of spec.md §8 property 5.
func firstInvalidatedSlot(arr page.SlotArrayView) (uint16, bool) {
	for i := uint16(0); i < arr.Count(); i++ {
		sv, ok := arr.Get(i)
		if ok && !sv.Valid() {
			return i, true
		}
	}
	return 0, false
}

// sortedValidSlots returns the valid slots of arr sorted by their
// physical offset, used by the gap-probing steps of Plan.
func sortedValidSlots(arr page.SlotArrayView, count uint16) []page.SlotView {
	out := make([]page.SlotView, 0, count)
	for i := uint16(0); i < count; i++ {
		if sv, ok := arr.Get(i); ok && sv.Valid() {
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
