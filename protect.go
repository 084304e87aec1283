package vhook

import (
	"os"
	"sync"
)

// protMu serializes every protection change made by this package, including
// the shadow table arena, so one caller never re-seals a page another is
// still writing to.
var protMu sync.Mutex

// withWritable runs write with the pages covering [addr, addr+size) writable.
// Protection is put back afterwards when restore is set and it had to be
// changed.
func withWritable(addr, size uintptr, restore bool, write func() error) error {
	protMu.Lock()
	defer protMu.Unlock()

	undo, err := unprotect(addr, size)
	if err != nil {
		return err
	}

	werr := write()
	if undo != nil && restore {
		if err := undo(); err != nil && werr == nil {
			werr = err
		}
	}
	return werr
}

// pageRegion returns the page-aligned region covering [addr, addr+size).
func pageRegion(addr, size uintptr) (start, length uintptr) {
	pageSize := uintptr(os.Getpagesize())

	// Round address down to page boundary.
	// Example: addr=4196 with pageSize=4096 becomes 4096.
	start = addr &^ (pageSize - 1)

	// Round up to cover complete pages.
	length = (addr - start + size + pageSize - 1) &^ (pageSize - 1)
	return start, length
}
