// Package diskio defines the buffer manager's file-manager collaborator
// (spec.md §6.1, out of scope for this repo as a specified module) and
// provides one concrete, minimal implementation so buffer.BufferManager
// has something real to drive in tests and in cmd/pagedemo.
//
// Grounded on storage_engine/disk_manager/main.go's whole-page
// ReadAt/WriteAt pattern, generalized from its global-page-ID map to
// the pageid.PageID file-hash/page-number split this repo uses.
package diskio

import (
	"slotdb/page"
	"slotdb/pageid"
)

// FileManager is the out-of-scope external collaborator spec.md §6.1
// describes: synchronous, whole-page disk I/O keyed by PageID. The
// buffer manager depends only on this interface, never on a concrete
// implementation.
type FileManager interface {
	ReadPage(id pageid.PageID, dst *page.Bytes) error
	WritePage(id pageid.PageID, src *page.Bytes) error
}
