package buffer

import (
	"github.com/dgraph-io/ristretto/v2"

	"slotdb/pageid"
)

// AdmissionPolicy is the extensibility hook spec.md §1 and §4.4.1 leave
// for a future eviction policy: "no eviction policy beyond the
// extensibility hooks for one." Free-frame search (findFreeFrame) still
// only implements the None-occupancy branch of spec.md §4.4.5 — an
// AdmissionPolicy is consulted on every access but never consulted to
// pick an eviction victim, since eviction selection itself is out of
// scope. It exists so the admission/frequency ledger a future evictor
// would need is already being maintained.
type AdmissionPolicy interface {
	// RecordAccess is called on every cache hit and every completed
	// load, whether the access was for reading or writing.
	RecordAccess(id pageid.PageID)
	// RecordEviction is called when a page is dropped from the index,
	// currently only on a failed load (see BufferManager.evictFailedLoad).
	RecordEviction(id pageid.PageID)
	// Metrics reports whatever hit/miss counters the policy tracks.
	Metrics() PolicyMetrics
}

// PolicyMetrics is the subset of admission-policy bookkeeping this repo
// exposes to callers (e.g. cmd/pagedemo).
type PolicyMetrics struct {
	Hits   uint64
	Misses uint64
}

// noopPolicy is the default AdmissionPolicy: it tracks nothing. A
// BufferManager built without WithAdmissionPolicy behaves exactly as
// spec.md describes, with no admission-tracking side effect at all.
type noopPolicy struct{}

func (noopPolicy) RecordAccess(pageid.PageID)   {}
func (noopPolicy) RecordEviction(pageid.PageID) {}
func (noopPolicy) Metrics() PolicyMetrics       { return PolicyMetrics{} }

// RistrettoPolicy is an AdmissionPolicy backed by a real
// TinyLFU-style admission/frequency cache. It is the one concrete
// use this repo has for the teacher's declared-but-unimported
// github.com/dgraph-io/ristretto/v2 dependency: spec.md's eviction
// extensibility hook is exactly the kind of frequency-tracking a
// TinyLFU cache exists to provide, so a future evictor has a populated
// ledger to consult instead of starting from nothing.
type RistrettoPolicy struct {
	cache *ristretto.Cache[uint64, struct{}]
}

// NewRistrettoPolicy builds a RistrettoPolicy sized for a buffer pool
// tracking on the order of numFrames*10 distinct PageIDs over its
// working set.
func NewRistrettoPolicy(numFrames int) (*RistrettoPolicy, error) {
	counters := int64(numFrames) * 10
	if counters < 1000 {
		counters = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, struct{}]{
		NumCounters: counters * 10,
		MaxCost:     counters,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoPolicy{cache: cache}, nil
}

// RecordAccess records a touch of id in the admission ledger.
func (p *RistrettoPolicy) RecordAccess(id pageid.PageID) {
	p.cache.Set(uint64(id), struct{}{}, 1)
}

// RecordEviction drops id from the admission ledger.
func (p *RistrettoPolicy) RecordEviction(id pageid.PageID) {
	p.cache.Del(uint64(id))
}

// Metrics reports ristretto's own hit/miss counters. Ristretto counts
// hits and misses on Get, and this policy only calls Set and Del, so
// both counters stay zero.
func (p *RistrettoPolicy) Metrics() PolicyMetrics {
	m := p.cache.Metrics
	if m == nil {
		return PolicyMetrics{}
	}
	return PolicyMetrics{Hits: m.Hits(), Misses: m.Misses()}
}

// Close releases the underlying ristretto cache's background workers.
func (p *RistrettoPolicy) Close() {
	p.cache.Close()
}
