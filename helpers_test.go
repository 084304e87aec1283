//go:build unix

package vhook

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/pboyd/vhook/internal/hosttest"
)

type binaryFunc func(a, b int) int

//go:noinline
func add(a, b int) int {
	return a + b
}

//go:noinline
func mul(a, b int) int {
	return a * b
}

//go:noinline
func sub(a, b int) int {
	return a - b
}

// codeOf returns the entry point of a top-level function.
func codeOf(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// funcWord returns the word a GoFunc cell holds for fn.
func funcWord(fn binaryFunc) uintptr {
	return *(*uintptr)(unsafe.Pointer(&fn))
}

// filler is a non-zero word for cells that are never called.
const filler = 0xdead0000

// newTable returns a table of n cells in off-heap memory with cell index
// holding word.
func newTable(t *testing.T, m *hosttest.Memory, n, index int, word uintptr) Table {
	t.Helper()

	base := m.Words(n)
	for i := 0; i < n; i++ {
		hosttest.Store(base+uintptr(i)*PtrSize, filler+uintptr(i))
	}
	hosttest.Store(base+uintptr(index)*PtrSize, word)

	tbl, ok := TableAt(base)
	if !ok {
		t.Fatal("null table")
	}
	return tbl
}

// forgetCells drops every process-wide cell record made by a test whose
// memory is about to be unmapped.
func forgetCells(t *testing.T) {
	t.Cleanup(func() {
		cells.Range(func(k, _ any) bool {
			cells.Delete(k)
			return true
		})
	})
}
