// Command pagedemo is a smoke-test harness over the page/buffer stack:
// it allocates a page, inserts a few records, deletes one, forces a
// compaction, and prints the resulting slot layout. It is not a
// query-engine or server binary — those stay out of scope per spec.md
// §1 — it exists only to exercise package buffer end to end, grounded
// on the teacher's root main.go wiring a disk manager, buffer pool and
// heap-file manager together for a demo run.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"slotdb/buffer"
	"slotdb/diskio"
	"slotdb/internal/obslog"
	"slotdb/page"
	"slotdb/pageid"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory for the demo heap file (defaults to a temp dir)")
	frames := flag.Int("frames", 8, "number of buffer-pool frames")
	flag.Parse()

	obslog.Init(obslog.Config{Level: slog.LevelInfo, Format: "text"})
	log := obslog.Get()

	dir := *dataDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "pagedemo-")
		if err != nil {
			exitf("create temp dir: %v", err)
		}
		dir = tmp
		defer os.RemoveAll(dir)
	}

	fm := diskio.NewFileBackedManager()
	defer fm.Close()
	if err := fm.Register(1, dir+"/heap.db"); err != nil {
		exitf("register heap file: %v", err)
	}

	policy, err := buffer.NewRistrettoPolicy(*frames)
	if err != nil {
		exitf("build admission policy: %v", err)
	}
	defer policy.Close()

	bm := buffer.NewManager(*frames, fm, buffer.WithAdmissionPolicy(policy))

	id := pageid.New(1, 0)
	guard, err := bm.AllocateNewPage(id)
	if err != nil {
		exitf("allocate page: %v", err)
	}
	page.InitFresh(guard.Bytes(), page.KindHeapUnsorted, id.PageNumber())

	records := [][]byte{
		[]byte("alpha record payload"),
		[]byte("bravo"),
		[]byte("charlie record with a bit more payload than bravo"),
	}
	slots := make([]uint16, 0, len(records))
	for _, r := range records {
		idx, err := guard.Page().Insert(r)
		if err != nil {
			exitf("insert: %v", err)
		}
		slots = append(slots, idx)
		log.Info("inserted", "slot", idx, "bytes", len(r))
	}

	if err := guard.Page().Delete(slots[1]); err != nil {
		exitf("delete: %v", err)
	}
	log.Info("deleted", "slot", slots[1])

	if err := guard.Page().Compact(); err != nil {
		exitf("compact: %v", err)
	}
	log.Info("compacted")
	guard.Release()

	readBack, err := bm.ReadPage(id)
	if err != nil {
		exitf("read page: %v", err)
	}
	defer readBack.Release()

	it := readBack.Page().Iterate()
	for {
		slot, record, ok := it.Next()
		if !ok {
			break
		}
		fmt.Printf("slot %d: %q\n", slot, record)
	}

	m := policy.Metrics()
	fmt.Printf("admission policy: hits=%d misses=%d\n", m.Hits, m.Misses)
}

func exitf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
