//go:build linux || darwin || windows || openbsd || netbsd || freebsd

package vhook

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pboyd/malloc"
)

// tableArena holds shadow table copies. Its pages are read-only except while
// a copy is being written or released, so a stray write through a shadow
// table faults instead of corrupting a neighbour.
type tableArena struct {
	mu   sync.Mutex
	heap *malloc.Arena
	seal func(prot int) error
}

// open maps the first pages on first use.
func (a *tableArena) open(size int) error {
	if a.heap != nil {
		return nil
	}

	backend := malloc.MmapBackend(malloc.MmapProt(arenaProtRW), malloc.MmapFlags(arenaMapFlags))
	heap := malloc.NewArena(uint64(max(size, os.Getpagesize())), malloc.Backend(backend))
	if heap == nil {
		return errors.New("unable to map shadow table arena")
	}

	a.heap = heap
	a.seal = func(int) error { return nil }
	if pb, ok := backend.(malloc.ProtectedArenaBackend); ok {
		a.seal = pb.Protect
	}
	return nil
}

// alloc reserves size bytes, lets fill write them while the arena is
// writable and seals the arena again.
func (a *tableArena) alloc(size int, fill func([]byte)) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.open(size); err != nil {
		return nil, err
	}
	if err := a.seal(arenaProtRW); err != nil {
		return nil, fmt.Errorf("unseal shadow arena: %w", err)
	}

	buf, err := malloc.MallocSlice[byte](a.heap, size)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("allocate %d bytes: %w", size, err), a.reseal())
	}
	fill(buf)

	if err := a.reseal(); err != nil {
		malloc.FreeSlice(a.heap, buf)
		return nil, err
	}
	return buf, nil
}

// release returns buf to the arena.
func (a *tableArena) release(buf []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(buf) == 0 {
		return nil
	}
	if a.heap == nil || !a.heap.Contains(&buf[0]) {
		return errors.New("buffer does not belong to the shadow arena")
	}
	if err := a.seal(arenaProtRW); err != nil {
		return fmt.Errorf("unseal shadow arena: %w", err)
	}
	malloc.FreeSlice(a.heap, buf)
	return a.reseal()
}

func (a *tableArena) reseal() error {
	if err := a.seal(arenaProtRO); err != nil {
		return fmt.Errorf("seal shadow arena: %w", err)
	}
	return nil
}
