// Package page implements the fixed-width page layout primitives: a
// header view and a slot-array view over a 4 KiB byte block, each
// offered in an immutable (getters only) and mutable (getters and
// setters) flavor.
//
// Views are zero-copy borrows of a bounded sub-slice of a page's bytes.
// They carry no data of their own and must not outlive the guard that
// protects the underlying frame (see package buffer); that lifetime
// discipline is the caller's responsibility; these views only enforce
// bounds within the slice they were handed.
//
// Layout (offsets in bytes, little-endian):
//
//	[0, 96)            header — see the off* constants below
//	[96, freeStart)     data region — records, growing left to right
//	[freeEnd, 4096)     slot array — growing right to left; slot i at
//	                    4096-(i+1)*SlotSize .. 4096-i*SlotSize
package page

import "encoding/binary"

// Size constants fixed by the on-disk page format.
const (
	Size       = 4096
	HeaderSize = 96
	SlotSize   = 4
)

// PageKind enumerates the page-kind byte stored in the header.
type PageKind uint8

const (
	KindHeapUnsorted PageKind = iota
	KindHeapSorted
	KindIndexInternal
	KindIndexLeaf
)

// Flag bits within the header's flags byte.
const (
	FlagCanCompact uint8 = 1 << 0
)

// Header field byte offsets.
const (
	offPageNumber   = 0  // uint32
	offPageKind     = 4  // uint8
	offFlags        = 5  // uint8
	offSlotCount    = 6  // uint16
	offFreeStart    = 8  // uint16
	offFreeEnd      = 10 // uint16
	offFreeSpace    = 12 // uint16
	offSiblingPrev  = 14 // uint32
	offSiblingNext  = 18 // uint32
	// [22, 96) reserved, zero-filled
)

// Bytes is the raw on-disk representation of one page: exactly Size
// bytes, owned by whichever buffer frame currently holds the page. A
// Bytes value itself does not synchronize access — callers reach it
// only through a frame's latch guard.
type Bytes = [Size]byte

// HeaderView is an immutable, zero-copy borrow of a page's 96-byte
// header region.
type HeaderView struct {
	b []byte // exactly HeaderSize bytes
}

// NewHeaderView borrows the first HeaderSize bytes of buf as a header view.
func NewHeaderView(buf *Bytes) HeaderView {
	return HeaderView{b: buf[:HeaderSize]}
}

func (h HeaderView) PageNumber() uint32  { return binary.LittleEndian.Uint32(h.b[offPageNumber:]) }
func (h HeaderView) Kind() PageKind      { return PageKind(h.b[offPageKind]) }
func (h HeaderView) Flags() uint8        { return h.b[offFlags] }
func (h HeaderView) CanCompact() bool    { return h.Flags()&FlagCanCompact != 0 }
func (h HeaderView) SlotCount() uint16   { return binary.LittleEndian.Uint16(h.b[offSlotCount:]) }
func (h HeaderView) FreeStart() uint16   { return binary.LittleEndian.Uint16(h.b[offFreeStart:]) }
func (h HeaderView) FreeEnd() uint16     { return binary.LittleEndian.Uint16(h.b[offFreeEnd:]) }
func (h HeaderView) FreeSpace() uint16   { return binary.LittleEndian.Uint16(h.b[offFreeSpace:]) }
func (h HeaderView) SiblingPrev() uint32 { return binary.LittleEndian.Uint32(h.b[offSiblingPrev:]) }
func (h HeaderView) SiblingNext() uint32 { return binary.LittleEndian.Uint32(h.b[offSiblingNext:]) }

// HeaderMut is a mutable borrow of a page's header region: every
// HeaderView getter plus setters for each field.
type HeaderMut struct {
	HeaderView
	b []byte // same backing bytes as HeaderView.b, kept for setters
}

// NewHeaderMut borrows the first HeaderSize bytes of buf as a mutable
// header view.
func NewHeaderMut(buf *Bytes) HeaderMut {
	region := buf[:HeaderSize]
	return HeaderMut{HeaderView: HeaderView{b: region}, b: region}
}

func (h HeaderMut) SetPageNumber(v uint32) { binary.LittleEndian.PutUint32(h.b[offPageNumber:], v) }
func (h HeaderMut) SetKind(v PageKind)     { h.b[offPageKind] = byte(v) }
func (h HeaderMut) SetFlags(v uint8)       { h.b[offFlags] = v }

func (h HeaderMut) SetCanCompact(v bool) {
	if v {
		h.b[offFlags] |= FlagCanCompact
	} else {
		h.b[offFlags] &^= FlagCanCompact
	}
}

func (h HeaderMut) SetSlotCount(v uint16)   { binary.LittleEndian.PutUint16(h.b[offSlotCount:], v) }
func (h HeaderMut) SetFreeStart(v uint16)   { binary.LittleEndian.PutUint16(h.b[offFreeStart:], v) }
func (h HeaderMut) SetFreeEnd(v uint16)     { binary.LittleEndian.PutUint16(h.b[offFreeEnd:], v) }
func (h HeaderMut) SetFreeSpace(v uint16)   { binary.LittleEndian.PutUint16(h.b[offFreeSpace:], v) }
func (h HeaderMut) SetSiblingPrev(v uint32) { binary.LittleEndian.PutUint32(h.b[offSiblingPrev:], v) }
func (h HeaderMut) SetSiblingNext(v uint32) { binary.LittleEndian.PutUint32(h.b[offSiblingNext:], v) }

// InitFresh zero-fills buf and stamps a fresh header: slot_count = 0,
// free_start = HeaderSize, free_end = Size, free_space = Size-HeaderSize.
// This is the fresh-page-bytes contract allocate_new_page must produce.
func InitFresh(buf *Bytes, kind PageKind, pageNumber uint32) {
	for i := range buf {
		buf[i] = 0
	}
	h := NewHeaderMut(buf)
	h.SetPageNumber(pageNumber)
	h.SetKind(kind)
	h.SetFreeStart(HeaderSize)
	h.SetFreeEnd(Size)
	h.SetFreeSpace(Size - HeaderSize)
}
