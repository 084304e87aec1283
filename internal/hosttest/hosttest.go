//go:build unix

// Package hosttest fakes host memory for tests. Everything it hands out is
// mmapped outside the Go heap, the way a real host's tables and objects are.
package hosttest

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// Memory is a bump allocator over anonymous pages.
type Memory struct {
	t    testing.TB
	buf  []byte
	mu   sync.Mutex
	used uintptr
}

// New maps at least size bytes. The mapping is removed when the test ends.
func New(t testing.TB, size int) *Memory {
	t.Helper()

	m, err := Map(size)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	m.t = t
	t.Cleanup(func() {
		if err := m.Unmap(); err != nil {
			t.Errorf("munmap: %v", err)
		}
	})
	return m
}

// Map maps at least size bytes outside of a test, e.g. in an Example. The
// caller must Unmap it.
func Map(size int) (*Memory, error) {
	pageSize := os.Getpagesize()
	size = (size + pageSize - 1) / pageSize * pageSize
	if size == 0 {
		size = pageSize
	}

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &Memory{buf: buf}, nil
}

// Unmap releases the mapping.
func (m *Memory) Unmap() error {
	return unix.Munmap(m.buf)
}

func (m *Memory) fatalf(format string, args ...any) {
	if m.t == nil {
		panic(fmt.Sprintf(format, args...))
	}
	m.t.Helper()
	m.t.Fatalf(format, args...)
}

// Page maps a single page.
func Page(t testing.TB) *Memory {
	return New(t, os.Getpagesize())
}

// Base returns the address of the first byte.
func (m *Memory) Base() uintptr {
	return uintptr(unsafe.Pointer(&m.buf[0]))
}

// Alloc returns size zeroed bytes aligned to a word.
func (m *Memory) Alloc(size int) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()

	off := (m.used + ptrSize - 1) &^ (ptrSize - 1)
	if off+uintptr(size) > uintptr(len(m.buf)) {
		m.fatalf("hosttest: out of memory allocating %d bytes", size)
	}
	m.used = off + uintptr(size)
	return m.Base() + off
}

// Words allocates n words and fills them with values.
func (m *Memory) Words(n int, values ...uintptr) uintptr {
	if len(values) > n {
		panic(fmt.Sprintf("hosttest: %d values for %d words", len(values), n))
	}
	addr := m.Alloc(n * int(ptrSize))
	for i, v := range values {
		Store(addr+uintptr(i)*ptrSize, v)
	}
	return addr
}

// Table allocates a virtual table holding entries.
func (m *Memory) Table(entries ...uintptr) uintptr {
	return m.Words(len(entries), entries...)
}

// Object allocates an object of size bytes whose first word points at table.
func (m *Memory) Object(table uintptr, size int) uintptr {
	if size < int(ptrSize) {
		size = int(ptrSize)
	}
	addr := m.Alloc(size)
	Store(addr, table)
	return addr
}

// Seal makes the whole mapping read-only.
func (m *Memory) Seal() {
	if err := unix.Mprotect(m.buf, unix.PROT_READ); err != nil {
		m.fatalf("mprotect: %v", err)
	}
}

// Unseal makes the mapping writable again.
func (m *Memory) Unseal() {
	if err := unix.Mprotect(m.buf, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		m.fatalf("mprotect: %v", err)
	}
}

// Load reads the word at addr.
func Load(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

// Store writes the word at addr.
func Store(addr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}
