package vhook

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// cells holds every cell hooked by any registry in the process. A cell can
// only be hooked once until it is restored; hooking it twice would record our
// own replacement as the original.
var cells sync.Map // uintptr -> Record

// Record is the type-independent view of an installed hook. Every *Hook
// implements it.
type Record interface {
	// Name returns the slot name.
	Name() string
	// Cell returns the address of the hooked table cell.
	Cell() uintptr
	// OriginalAddr returns the word that was in the cell before Install.
	OriginalAddr() uintptr
	Installed() bool
	Enabled() bool
	SetEnabled(enabled bool)

	restore(restoreProtection bool) error
}

// Hook is an installed replacement for one table slot.
type Hook[F any] struct {
	slot  Slot[F]
	table Table
	cell  uintptr

	// Written once before the replacement becomes visible in the cell and
	// only read afterwards.
	original    uintptr
	replacement uintptr
	orig        F
	repl        F

	installed atomic.Bool
	enabled   atomic.Bool
}

// Original returns the implementation that was in the slot before the hook
// was installed. Calling it is how a replacement passes through.
func (h *Hook[F]) Original() F {
	return h.orig
}

// Slot returns the hooked slot.
func (h *Hook[F]) Slot() Slot[F] {
	return h.slot
}

// Table returns the hooked table.
func (h *Hook[F]) Table() Table {
	return h.table
}

func (h *Hook[F]) Name() string {
	return h.slot.Name
}

func (h *Hook[F]) Cell() uintptr {
	return h.cell
}

func (h *Hook[F]) OriginalAddr() uintptr {
	return h.original
}

// Installed reports whether the replacement is still in the cell.
func (h *Hook[F]) Installed() bool {
	return h.installed.Load()
}

// Enabled reports the hook's enabled flag. Replacements are expected to pass
// straight through to Original when it is false.
func (h *Hook[F]) Enabled() bool {
	return h.enabled.Load()
}

func (h *Hook[F]) SetEnabled(enabled bool) {
	h.enabled.Store(enabled)
}

func (h *Hook[F]) restore(restoreProtection bool) error {
	if !h.installed.Load() {
		return ErrNotInstalled
	}

	err := withWritable(h.cell, PtrSize, restoreProtection, func() error {
		if !swapCell(h.cell, h.replacement, h.original) {
			return ErrSlotChanged
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore %s: %w", h.slot, err)
	}

	h.installed.Store(false)
	cells.CompareAndDelete(h.cell, Record(h))
	return nil
}

// Install puts replacement into slot of table t and returns the hook. The
// previous cell value is captured before anything is written, so
// Hook.Original never returns the replacement.
//
// The cell is updated with a single compare-and-swap; a host thread reading
// it sees either the old or the new function. A read-only page is made
// writable for the write and sealed again unless the registry was configured
// otherwise.
func Install[F any](r *Registry, t Table, slot Slot[F], replacement F) (*Hook[F], error) {
	return install(r, t, slot, replacement, nil)
}

// install is Install with a callback that runs after the hook is recorded but
// before the cell is written. Anything a replacement needs to find the hook
// must be published there.
func install[F any](r *Registry, t Table, slot Slot[F], replacement F, publish func(*Hook[F])) (*Hook[F], error) {
	cell := t.Cell(slot.Index)
	fail := func(err error) (*Hook[F], error) {
		err = &InstallError{Slot: slot.Name, Index: slot.Index, Cell: cell, Err: err}
		r.logger.Error("hook install failed", zap.Error(err))
		return nil, err
	}

	if t.base == 0 {
		return fail(ErrNullHandle)
	}
	if !t.contains(slot.Index) {
		return fail(ErrSlotOutOfRange)
	}

	word, err := slot.Encode(replacement)
	if err != nil {
		return fail(err)
	}

	h := &Hook[F]{
		slot:        slot,
		table:       t,
		cell:        cell,
		replacement: word,
		repl:        replacement,
	}
	h.enabled.Store(r.initialEnabled(slot.Name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, loaded := cells.LoadOrStore(cell, Record(h)); loaded {
		return fail(ErrAlreadyInstalled)
	}

	// Visible to Lookup before the write so the replacement can find itself.
	// Lookup skips it until installed is set, and a failure removes only
	// this record.
	r.remember(h)
	if publish != nil {
		publish(h)
	}

	err = withWritable(cell, PtrSize, r.restoreProtection, func() error {
		old := loadWord(cell)
		if old == 0 {
			return errors.New("cell is empty")
		}
		if old == word {
			return ErrAlreadyInstalled
		}

		// This is the only chance to capture the original. It must be
		// stored before the replacement can be reached.
		h.original = old
		h.orig = slot.Decode(old)
		h.installed.Store(true)

		if !swapCell(cell, old, word) {
			return fmt.Errorf("cell changed during install: %w", ErrSlotChanged)
		}
		return nil
	})
	if err != nil {
		h.installed.Store(false)
		r.forget(h)
		cells.CompareAndDelete(cell, Record(h))
		return fail(err)
	}

	r.order = append(r.order, h)

	r.logger.Info("hook installed",
		zap.String("slot", slot.Name),
		zap.Int("index", slot.Index),
		zap.Stringer("convention", slot.Convention),
		zap.String("cell", fmt.Sprintf("0x%x", cell)),
		zap.String("original", fmt.Sprintf("0x%x", h.original)),
	)
	r.inspectOriginal(h.slot.Name, slot.code(h.original))

	return h, nil
}

// Lookup returns the installed hook for slot. It is safe to call from
// replacement callbacks.
func Lookup[F any](r *Registry, slot Slot[F]) (*Hook[F], bool) {
	rec, ok := r.Lookup(slot.Name)
	if !ok {
		return nil, false
	}
	h, ok := rec.(*Hook[F])
	if !ok || !h.Installed() {
		return nil, false
	}
	return h, true
}
