package vhook

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Table is a foreign virtual table: a contiguous array of function-pointer
// sized cells. The length of a host table is not knowable, so indexes into
// it are not bounds checked; declare them through the layout package
// instead. Tables vhook allocates itself, such as shadow copies, carry their
// length and reject cells past the end.
type Table struct {
	base  uintptr
	slots int
}

// TableAt returns the table starting at base. It reports false for a null
// base.
func TableAt(base uintptr) (Table, bool) {
	if base == 0 {
		return Table{}, false
	}
	return Table{base: base}, true
}

// Base returns the address of the first cell.
func (t Table) Base() uintptr {
	return t.base
}

// Len returns the number of slots, or false when the table came from the host
// and its length is unknown.
func (t Table) Len() (int, bool) {
	return t.slots, t.slots > 0
}

// contains reports whether index is a cell of t as far as t knows.
func (t Table) contains(index int) bool {
	return index >= 0 && (t.slots == 0 || index < t.slots)
}

// Cell returns the address of the cell at index.
func (t Table) Cell(index int) uintptr {
	return t.base + uintptr(index)*PtrSize
}

// Load atomically reads the cell at index.
func (t Table) Load(index int) uintptr {
	return loadWord(t.Cell(index))
}

func (t Table) String() string {
	return fmt.Sprintf("table@0x%x", t.base)
}

func cellPtr(cell uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(cell))
}

func swapCell(cell, old, new uintptr) bool {
	return atomic.CompareAndSwapUintptr(cellPtr(cell), old, new)
}
