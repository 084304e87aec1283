package vhook

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// PtrSize is the size of a machine word and of every table cell.
const PtrSize = unsafe.Sizeof(uintptr(0))

// Handle is a borrowed reference to an object owned by the host. The address
// is never null. Dropping a Handle has no effect on the object.
//
// Nothing here checks that the object is still alive or that it has the type
// the caller assumes. Those are preconditions.
type Handle struct {
	addr uintptr
}

// FromAddress returns a handle for addr. It reports false for a null
// address and never reads memory.
func FromAddress(addr uintptr) (Handle, bool) {
	if addr == 0 {
		return Handle{}, false
	}
	return Handle{addr: addr}, true
}

// FromAddressUnchecked returns a handle without the null check. Use it only
// where addr is known to be non-null, e.g. just returned by a host call that
// cannot fail.
func FromAddressUnchecked(addr uintptr) Handle {
	return Handle{addr: addr}
}

// FromPointer is FromAddress for an unsafe.Pointer.
func FromPointer(p unsafe.Pointer) (Handle, bool) {
	return FromAddress(uintptr(p))
}

// Address returns the raw address.
func (h Handle) Address() uintptr {
	return h.addr
}

// IsZero reports whether h is the zero Handle, which FromAddress never
// returns.
func (h Handle) IsZero() bool {
	return h.addr == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%x", h.addr)
}

// VirtualTable returns the table whose address is stored in the first word
// of the object. The object must actually start with a table pointer.
func (h Handle) VirtualTable() Table {
	return Table{base: loadWord(h.addr)}
}

// VirtualEntry returns the raw word in the object's virtual table at index.
func (h Handle) VirtualEntry(index int) uintptr {
	return h.VirtualTable().Load(index)
}

// Field returns a pointer to the byte offset within the object.
func (h Handle) Field(offset uintptr) unsafe.Pointer {
	return unsafe.Pointer(h.addr + offset)
}

// Deref reads the pointer stored at offset and returns a handle for it. It
// reports false when the stored pointer is null.
func (h Handle) Deref(offset uintptr) (Handle, bool) {
	return FromAddress(loadWord(h.addr + offset))
}

// Index treats the handle as an array of object pointers and returns element
// i. It reports false when that element is null.
func (h Handle) Index(i int) (Handle, bool) {
	return h.Deref(uintptr(i) * PtrSize)
}

// FieldAt reinterprets the memory at offset as a T. The layout of T must match
// the host's layout exactly.
func FieldAt[T any](h Handle, offset uintptr) *T {
	return (*T)(h.Field(offset))
}

// Entry returns the function stored in the object's virtual table at slot,
// converted through the slot's calling convention.
func Entry[F any](h Handle, slot Slot[F]) F {
	return slot.Get(h.VirtualTable())
}

// loadWord atomically reads the machine word at addr.
func loadWord(addr uintptr) uintptr {
	return atomic.LoadUintptr((*uintptr)(unsafe.Pointer(addr)))
}
