// Package buffer implements the in-memory buffer manager: a fixed-size
// pool of frames plus a page index that coordinates cache hits,
// cache-miss disk loads, and load-race control, per spec.md §4.4.
//
// Grounded on storage_engine/bufferpool/bufferpool.go and structs.go
// for the overall shape (fixed frame pool, FetchPage/UnpinPage/
// FlushPage contract, pin-count bookkeeping) but the concurrency
// control is rebuilt entirely: the teacher serializes all access
// behind one sync.Mutex and does LRU eviction. spec.md places eviction
// out of scope and requires a race-free load protocol that never holds
// one lock across disk I/O, so this package instead implements the
// PageEntry{state, waiters} / condition-variable design of spec.md
// §4.4.3-§4.4.5 from scratch.
package buffer

import (
	"sync"

	"slotdb/diskio"
	"slotdb/faults"
	"slotdb/internal/obslog"
	"slotdb/pageid"
	"slotdb/slotted"
)

// BufferManager is the fixed-size frame pool and page index of spec.md
// §4.4.1. It is safe for concurrent use through a shared, non-exclusive
// reference: every mutating operation (inserting a PageEntry, marking a
// frame dirty) is internally synchronized, per the interior-mutability
// design note of spec.md §9.
type BufferManager struct {
	frames []*Frame
	fm     diskio.FileManager

	indexMu sync.RWMutex
	index   map[pageid.PageID]*pageEntry

	policy AdmissionPolicy
}

// NewManager builds a BufferManager with numFrames frames, allocated
// once and never resized for the process lifetime (spec.md §3's
// ownership-and-lifecycle invariant).
func NewManager(numFrames int, fm diskio.FileManager, opts ...Option) *BufferManager {
	frames := make([]*Frame, numFrames)
	for i := range frames {
		frames[i] = newFrame(i)
	}
	bm := &BufferManager{
		frames: frames,
		fm:     fm,
		index:  make(map[pageid.PageID]*pageEntry),
		policy: noopPolicy{},
	}
	for _, opt := range opts {
		opt(bm)
	}
	return bm
}

// ReadPage returns a guarded read-only reference to id's page, loading
// it from disk on a cache miss.
func (bm *BufferManager) ReadPage(id pageid.PageID) (*PageReadGuard, error) {
	frame, err := bm.fetch(id, false)
	if err != nil {
		return nil, err
	}
	return &PageReadGuard{frame: frame, pg: slotted.Wrap(&frame.bytes, id)}, nil
}

// ReadPageMut returns a guarded mutable reference to id's page, loading
// it from disk on a cache miss.
func (bm *BufferManager) ReadPageMut(id pageid.PageID) (*PageWriteGuard, error) {
	frame, err := bm.fetch(id, true)
	if err != nil {
		return nil, err
	}
	return &PageWriteGuard{frame: frame, pg: slotted.Wrap(&frame.bytes, id)}, nil
}

// AllocateNewPage reserves a frame for id without reading from disk
// (spec.md §4.4.6): identical to the cache-miss path except the disk
// read is skipped. The caller receives a write guard over bytes that
// may still hold a prior occupant's contents, or zeros, and is
// responsible for initializing the page (typically page.InitFresh).
func (bm *BufferManager) AllocateNewPage(id pageid.PageID) (*PageWriteGuard, error) {
	entry, isLoader, err := bm.beginLoad(id)
	if err != nil {
		return nil, err
	}

	var frame *Frame
	if isLoader {
		frame = bm.frames[entry.frameIndex]
		// No disk read: publish Ready immediately, still holding the
		// write latch findFreeFrame acquired.
		entry.markReady()
	} else {
		frameIndex, err := entry.waitReady()
		if err != nil {
			return nil, err
		}
		frame = bm.frames[frameIndex]
		frame.dataLatch.Lock()
	}

	frame.Pin()
	frame.SetDirty(true)
	bm.policy.RecordAccess(id)
	return &PageWriteGuard{frame: frame, pg: slotted.Wrap(&frame.bytes, id)}, nil
}

// Flush is a stub for later eviction work (spec.md §4.4.2): it behaves
// as a no-op when id is not present, and otherwise writes the frame's
// bytes to disk if dirty.
func (bm *BufferManager) Flush(id pageid.PageID) error {
	bm.indexMu.RLock()
	entry, ok := bm.index[id]
	bm.indexMu.RUnlock()
	if !ok {
		return nil
	}

	frameIndex, err := entry.waitReady()
	if err != nil {
		return nil
	}
	frame := bm.frames[frameIndex]

	frame.dataLatch.RLock()
	defer frame.dataLatch.RUnlock()
	if !frame.Dirty() {
		return nil
	}
	if err := bm.fm.WritePage(id, &frame.bytes); err != nil {
		return faults.NewDiskIoError(id, "flush", err)
	}
	frame.SetDirty(false)
	return nil
}

// fetch implements the cache-hit (§4.4.3) and cache-miss (§4.4.4) paths
// shared by ReadPage and ReadPageMut, parameterized on whether the
// caller wants the frame's write latch or its read latch.
func (bm *BufferManager) fetch(id pageid.PageID, wantWrite bool) (*Frame, error) {
	bm.indexMu.RLock()
	entry, ok := bm.index[id]
	bm.indexMu.RUnlock()

	if !ok {
		loaded, isLoader, err := bm.beginLoad(id)
		if err != nil {
			return nil, err
		}
		if isLoader {
			obslog.Get().Debug("buffer miss", "page", id.String())
			frame := bm.frames[loaded.frameIndex]
			if err := bm.loadFromDisk(id, frame, loaded, wantWrite); err != nil {
				return nil, err
			}
			frame.Pin()
			bm.policy.RecordAccess(id)
			return frame, nil
		}
		entry = loaded
	} else {
		obslog.Get().Debug("buffer hit", "page", id.String())
	}

	frameIndex, err := entry.waitReady()
	if err != nil {
		return nil, err
	}
	frame := bm.frames[frameIndex]
	if wantWrite {
		frame.dataLatch.Lock()
	} else {
		frame.dataLatch.RLock()
	}
	frame.Pin()
	bm.policy.RecordAccess(id)
	return frame, nil
}

// beginLoad resolves the miss path's load-race control (spec.md
// §4.4.4 steps 2-3): it re-checks the index under the write latch —
// the one retry the buffer manager performs internally, per spec.md
// §7 — and either returns the entry another goroutine already
// published (isLoader=false) or reserves a free frame and publishes a
// new Loading entry itself (isLoader=true), still holding that frame's
// data write-latch on return.
func (bm *BufferManager) beginLoad(id pageid.PageID) (entry *pageEntry, isLoader bool, err error) {
	bm.indexMu.Lock()
	if existing, ok := bm.index[id]; ok {
		bm.indexMu.Unlock()
		return existing, false, nil
	}

	frame, err := bm.findFreeFrame(id)
	if err != nil {
		bm.indexMu.Unlock()
		return nil, false, err
	}

	newEntry := newPageEntry(frame.index)
	bm.index[id] = newEntry
	bm.indexMu.Unlock()
	return newEntry, true, nil
}

// findFreeFrame implements spec.md §4.4.5's race-free slot acquisition:
// only the None-occupancy branch, since eviction selection is out of
// scope. The returned frame's data write-latch is held by the caller on
// return, reserving it against any other concurrent free-frame search.
func (bm *BufferManager) findFreeFrame(id pageid.PageID) (*Frame, error) {
	for _, f := range bm.frames {
		f.occMu.Lock()
		if f.occupant == nil {
			f.dataLatch.Lock()
			occ := id
			f.occupant = &occ
			f.occMu.Unlock()
			return f, nil
		}
		f.occMu.Unlock()
	}
	return nil, faults.ErrBufferFull
}

// loadFromDisk performs the actual disk read for a loader goroutine,
// still holding the frame's data write-latch throughout, and publishes
// the Loading -> Ready transition before releasing or downgrading that
// latch, per spec.md §4.4.4 step 5 and the loading-state-publication-
// ordering design note (spec.md §9): waiters that wake from
// entry.waitReady cannot observe the frame's bytes until this goroutine
// has both finished writing them and released (or downgraded) the
// write latch.
func (bm *BufferManager) loadFromDisk(id pageid.PageID, frame *Frame, entry *pageEntry, wantWrite bool) error {
	if err := bm.fm.ReadPage(id, &frame.bytes); err != nil {
		bm.evictFailedLoad(id, frame, entry, err)
		return faults.NewDiskIoError(id, "load", err)
	}

	entry.markReady()

	if !wantWrite {
		// Downgrade: drop the write guard and re-acquire a read guard
		// only after the Ready transition is already published, so a
		// waiter can never race ahead of the loader for the write
		// latch while the loader still intends to hold it.
		frame.dataLatch.Unlock()
		frame.dataLatch.RLock()
	}
	return nil
}

// evictFailedLoad implements spec.md §7's disk-error semantics: the
// failed PageEntry is removed from the index (so future requests
// retry from scratch) and the frame is released back to free state,
// but the failure is fatal only to this particular load attempt, not
// to the BufferManager itself.
func (bm *BufferManager) evictFailedLoad(id pageid.PageID, frame *Frame, entry *pageEntry, cause error) {
	bm.indexMu.Lock()
	delete(bm.index, id)
	bm.indexMu.Unlock()

	entry.markFailed(faults.NewDiskIoError(id, "load", cause))
	bm.policy.RecordEviction(id)

	frame.dataLatch.Unlock()
	frame.occMu.Lock()
	frame.occupant = nil
	frame.occMu.Unlock()
}

// PolicyMetrics exposes the admission policy's hit/miss counters, or a
// zero value if the manager was built without WithAdmissionPolicy.
func (bm *BufferManager) PolicyMetrics() PolicyMetrics {
	return bm.policy.Metrics()
}

// NumFrames reports the fixed frame-pool size this manager was built
// with.
func (bm *BufferManager) NumFrames() int { return len(bm.frames) }
