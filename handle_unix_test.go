//go:build unix

package vhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pboyd/vhook/internal/hosttest"
)

func TestHandleMemory(t *testing.T) {
	assert := assert.New(t)

	m := hosttest.Page(t)
	table := m.Table(0x100, 0x200, 0x300)
	obj := m.Object(table, 32)
	other := m.Object(table, 8)
	hosttest.Store(obj+PtrSize, other)

	h, ok := FromAddress(obj)
	assert.True(ok)

	assert.Equal(table, h.VirtualTable().Base())
	assert.Equal(uintptr(0x200), h.VirtualEntry(1))

	field, ok := h.Deref(PtrSize)
	assert.True(ok)
	assert.Equal(other, field.Address())

	_, ok = h.Deref(2 * PtrSize)
	assert.False(ok)

	*FieldAt[uintptr](h, 3*PtrSize) = 0xcafe
	assert.Equal(uintptr(0xcafe), hosttest.Load(obj+3*PtrSize))

	// An array of object pointers: [table, other, nil].
	elem, ok := h.Index(1)
	assert.True(ok)
	assert.Equal(other, elem.Address())
	_, ok = h.Index(2)
	assert.False(ok)
}
