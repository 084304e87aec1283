//go:build unix

package vhook

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pboyd/vhook/internal/hosttest"
)

var addSlot = NewSlot[binaryFunc]("add", 2, GoCode)

func TestInstall(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))

	core, logs := observer.New(zap.InfoLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	h, err := Install(r, tbl, addSlot, mul)
	require.NoError(err)

	assert.Equal(codeOf(add), h.OriginalAddr())
	assert.Equal(codeOf(mul), tbl.Load(2))
	assert.Equal(tbl.Cell(2), h.Cell())
	assert.True(h.Installed())
	assert.True(h.Enabled())
	assert.Equal("add", h.Name())

	assert.Equal(12, addSlot.Get(tbl)(3, 4))
	assert.Equal(7, h.Original()(3, 4))

	for _, i := range []int{0, 1, 3} {
		assert.Equal(filler+uintptr(i), tbl.Load(i), "cell %d", i)
	}

	got, ok := Lookup(r, addSlot)
	assert.True(ok)
	assert.Same(h, got)

	assert.Equal(1, logs.FilterMessage("hook installed").Len())
}

func TestInstall_Twice(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))
	r := NewRegistry()

	h, err := Install(r, tbl, addSlot, mul)
	require.NoError(err)

	_, err = Install(r, tbl, addSlot, sub)
	assert.ErrorIs(err, ErrAlreadyInstalled)
	assert.ErrorIs(err, ErrHookInstallFailed)

	var installErr *InstallError
	require.ErrorAs(err, &installErr)
	assert.Equal("add", installErr.Slot)
	assert.Equal(2, installErr.Index)
	assert.Equal(tbl.Cell(2), installErr.Cell)

	// Another registry can't take the cell either.
	_, err = Install(NewRegistry(), tbl, addSlot, sub)
	assert.ErrorIs(err, ErrAlreadyInstalled)

	assert.Equal(codeOf(add), h.OriginalAddr())
	assert.Equal(7, h.Original()(3, 4))
	assert.Equal(codeOf(mul), tbl.Load(2))
}

func TestInstall_ReplacementAlreadyInCell(t *testing.T) {
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(mul))

	_, err := Install(NewRegistry(), tbl, addSlot, mul)
	assert.ErrorIs(t, err, ErrAlreadyInstalled)
	assert.Equal(t, codeOf(mul), tbl.Load(2))
}

func TestInstall_Invalid(t *testing.T) {
	forgetCells(t)
	r := NewRegistry()

	t.Run("null table", func(t *testing.T) {
		_, err := Install(r, Table{}, addSlot, mul)
		assert.ErrorIs(t, err, ErrNullHandle)
		assert.ErrorIs(t, err, ErrHookInstallFailed)
	})

	t.Run("nil replacement", func(t *testing.T) {
		m := hosttest.Page(t)
		tbl := newTable(t, m, 4, 2, codeOf(add))
		_, err := Install(r, tbl, addSlot, nil)
		assert.ErrorIs(t, err, ErrHookInstallFailed)
		assert.Contains(t, err.Error(), "nil function")
	})

	t.Run("empty cell", func(t *testing.T) {
		m := hosttest.Page(t)
		tbl := newTable(t, m, 4, 2, 0)
		_, err := Install(r, tbl, addSlot, mul)
		assert.ErrorIs(t, err, ErrHookInstallFailed)
		assert.Zero(t, tbl.Load(2))

		_, ok := r.Lookup("add")
		assert.False(t, ok)
	})
}

func TestInstall_PassThrough(t *testing.T) {
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	slot := NewSlot[binaryFunc]("sub", 1, GoFunc)
	tbl := newTable(t, m, 2, 1, funcWord(sub))
	r := NewRegistry()

	var hook atomic.Pointer[Hook[binaryFunc]]
	var calls atomic.Int32
	replacement := binaryFunc(func(a, b int) int {
		calls.Add(1)
		return hook.Load().Original()(a, b)
	})

	_, err := install(r, tbl, slot, replacement, hook.Store)
	require.NoError(err)

	for a := -3; a <= 3; a++ {
		for b := -3; b <= 3; b++ {
			require.Equal(sub(a, b), slot.Get(tbl)(a, b))
		}
	}
	require.Equal(int32(49), calls.Load())
}

func TestRestore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))
	r := NewRegistry()

	h, err := Install(r, tbl, addSlot, mul)
	require.NoError(err)
	require.Len(r.Hooks(), 1)

	require.NoError(r.Restore(h))
	assert.Equal(codeOf(add), tbl.Load(2))
	assert.False(h.Installed())
	assert.Empty(r.Hooks())

	_, ok := Lookup(r, addSlot)
	assert.False(ok)

	assert.ErrorIs(r.Restore(h), ErrNotInstalled)

	// The cell is free again.
	h, err = Install(r, tbl, addSlot, sub)
	require.NoError(err)
	assert.Equal(1, addSlot.Get(tbl)(3, 2))
	require.NoError(r.RestoreAll())
	assert.Equal(codeOf(add), tbl.Load(2))
}

func TestRestore_SlotChanged(t *testing.T) {
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))
	r := NewRegistry()

	h, err := Install(r, tbl, addSlot, mul)
	require.NoError(t, err)

	// Someone else hooked over us.
	hosttest.Store(tbl.Cell(2), codeOf(sub))

	assert.ErrorIs(t, r.Restore(h), ErrSlotChanged)
	assert.True(t, h.Installed())
	assert.Equal(t, codeOf(sub), tbl.Load(2))
}

func TestRestoreAll_Order(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	core, logs := observer.New(zap.InfoLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	names := []string{"first", "second", "third"}
	tables := make([]Table, len(names))
	for i, name := range names {
		tables[i] = newTable(t, m, 1, 0, codeOf(add))
		_, err := Install(r, tables[i], NewSlot[binaryFunc](name, 0, GoCode), mul)
		require.NoError(err)
	}

	require.NoError(r.RestoreAll())

	restored := []string{}
	for _, entry := range logs.FilterMessage("hook restored").All() {
		restored = append(restored, entry.ContextMap()["slot"].(string))
	}
	assert.Equal([]string{"third", "second", "first"}, restored)

	for _, tbl := range tables {
		assert.Equal(codeOf(add), tbl.Load(0))
	}
}

// A host table with four slots, slot 2 hooked by a counting replacement and
// called from two threads.
func TestConcurrentCalls(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	slot := NewSlot[binaryFunc]("slot2", 2, GoFunc)
	tbl := newTable(t, m, 4, 2, funcWord(add))

	r := NewRegistry(WithState(StateSpec{Counters: []string{"calls"}}))
	counter := r.State().Counter("calls")

	var hook atomic.Pointer[Hook[binaryFunc]]
	replacement := binaryFunc(func(a, b int) int {
		counter.Add(1)
		return hook.Load().Original()(a, b)
	})
	_, err := install(r, tbl, slot, replacement, hook.Store)
	require.NoError(err)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 5 {
				assert.Equal(i+1, slot.Get(tbl)(i, 1))
			}
		}()
	}
	wg.Wait()

	assert.Equal(int64(10), counter.Load())
	for _, i := range []int{0, 1, 3} {
		assert.Equal(filler+uintptr(i), tbl.Load(i))
	}
}

// Installing while the host reads the cell must never expose anything but
// the original or the replacement.
func TestInstall_ConcurrentReaders(t *testing.T) {
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))
	r := NewRegistry()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var bad atomic.Int32
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if w := tbl.Load(2); w != codeOf(add) && w != codeOf(mul) {
					bad.Add(1)
				}
			}
		}()
	}

	for range 50 {
		h, err := Install(r, tbl, addSlot, mul)
		require.NoError(t, err)
		require.NoError(t, r.Restore(h))
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, bad.Load())
}

func TestSetEnabled(t *testing.T) {
	assert := assert.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	tbl := newTable(t, m, 4, 2, codeOf(add))
	r := NewRegistry()

	h, err := Install(r, tbl, addSlot, mul)
	require.NoError(t, err)

	assert.True(r.SetEnabled("add", false))
	assert.False(h.Enabled())
	assert.False(r.SetEnabled("missing", false))

	h.SetEnabled(true)
	assert.True(h.Enabled())
}

func TestInstall_FailureKeepsLiveHookVisible(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	r := NewRegistry()

	h, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, mul)
	require.NoError(err)

	// Same slot on a second table whose cell is empty.
	_, err = Install(r, newTable(t, m, 4, 2, 0), addSlot, sub)
	require.Error(err)

	assert.True(h.Installed())
	got, ok := Lookup(r, addSlot)
	require.True(ok)
	assert.Same(h, got)
	assert.True(r.SetEnabled("add", false))
	assert.False(h.Enabled())
}

func TestRestore_SameNameOnTwoTables(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	r := NewRegistry()

	first, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, mul)
	require.NoError(err)
	second, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, sub)
	require.NoError(err)

	got, ok := Lookup(r, addSlot)
	require.True(ok)
	assert.Same(second, got)

	require.NoError(r.Restore(second))
	got, ok = Lookup(r, addSlot)
	require.True(ok)
	assert.Same(first, got)

	rec, ok := r.Lookup("add")
	require.True(ok)
	assert.Equal(first.Cell(), rec.Cell())

	require.NoError(r.Restore(first))
	_, ok = r.Lookup("add")
	assert.False(ok)
}
