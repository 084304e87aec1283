package vhook

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// defaultShadowPrefix covers the offset-to-top and type info words that sit
// in front of an Itanium ABI virtual table.
const defaultShadowPrefix = 2

var shadowArena = &tableArena{}

// ShadowOptions controls how much of a table Shadow copies.
type ShadowOptions struct {
	// Slots is the number of table entries to copy. Install rejects slots
	// past the end of the copy.
	Slots int

	// Prefix is the number of words before the table to copy along with it.
	// Zero uses the registry default. A negative value copies none.
	Prefix int
}

// ShadowTable is a private copy of one object's virtual table. Hooks
// installed on it affect only that object.
type ShadowTable struct {
	r        *Registry
	obj      Handle
	original Table
	table    Table
	prefix   int
	slots    int
	buf      []byte

	installed atomic.Bool
}

// Table returns the copy. Install hooks on it like any other table.
func (s *ShadowTable) Table() Table {
	return s.table
}

// Original returns the table the object pointed at before Shadow.
func (s *ShadowTable) Original() Table {
	return s.original
}

// Object returns the object whose table pointer was replaced.
func (s *ShadowTable) Object() Handle {
	return s.obj
}

// Slots returns the number of entries copied.
func (s *ShadowTable) Slots() int {
	return s.slots
}

// Shadow copies the virtual table of obj into memory owned by the registry
// and points obj at the copy. Other objects sharing the original table are
// not affected. The Prefix words in front of the table must be readable.
func (r *Registry) Shadow(obj Handle, opts ShadowOptions) (*ShadowTable, error) {
	if obj.IsZero() {
		return nil, ErrNullHandle
	}
	if opts.Slots <= 0 {
		return nil, fmt.Errorf("shadow %s: slot count must be positive, got %d", obj, opts.Slots)
	}

	prefix := opts.Prefix
	switch {
	case prefix == 0:
		prefix = r.shadowPrefix
	case prefix < 0:
		prefix = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	original := obj.VirtualTable()
	if original.base == 0 {
		return nil, fmt.Errorf("shadow %s: %w", obj, ErrNullHandle)
	}

	words := prefix + opts.Slots
	buf, err := copyTable(original.base-uintptr(prefix)*PtrSize, words)
	if err != nil {
		return nil, fmt.Errorf("shadow %s: %w", obj, err)
	}

	s := &ShadowTable{
		r:        r,
		obj:      obj,
		original: original,
		table:    Table{base: uintptr(unsafe.Pointer(&buf[0])) + uintptr(prefix)*PtrSize, slots: opts.Slots},
		prefix:   prefix,
		slots:    opts.Slots,
		buf:      buf,
	}

	err = withWritable(obj.addr, PtrSize, r.restoreProtection, func() error {
		if !swapCell(obj.addr, original.base, s.table.base) {
			return ErrSlotChanged
		}
		return nil
	})
	if err != nil {
		freeTable(r.logger, buf)
		return nil, fmt.Errorf("shadow %s: %w", obj, err)
	}
	s.installed.Store(true)
	r.shadows = append(r.shadows, s)

	r.logger.Info("shadow table installed",
		zap.Stringer("object", obj),
		zap.Stringer("original", original),
		zap.Stringer("shadow", s.table),
		zap.Int("slots", s.slots),
		zap.Int("prefix", s.prefix),
	)
	return s, nil
}

// Restore points the object back at its original table and releases the
// copy. Hooks on the copy must be restored first. The object must not be in
// the middle of a virtual call.
func (s *ShadowTable) Restore() error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	if err := s.restore(); err != nil {
		return err
	}
	for i, other := range s.r.shadows {
		if other == s {
			s.r.shadows = append(s.r.shadows[:i], s.r.shadows[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ShadowTable) restore() error {
	if !s.installed.Load() {
		return ErrNotInstalled
	}
	if s.hooked() {
		return fmt.Errorf("restore shadow %s: hooks are still installed on it", s.obj)
	}

	err := withWritable(s.obj.addr, PtrSize, s.r.restoreProtection, func() error {
		if !swapCell(s.obj.addr, s.table.base, s.original.base) {
			return ErrSlotChanged
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore shadow %s: %w", s.obj, err)
	}
	s.installed.Store(false)

	freeTable(s.r.logger, s.buf)
	s.buf = nil

	s.r.logger.Info("shadow table restored", zap.Stringer("object", s.obj))
	return nil
}

// hooked reports whether any cell of the copy is still hooked.
func (s *ShadowTable) hooked() bool {
	start := s.table.base
	end := start + uintptr(s.slots)*PtrSize
	found := false
	cells.Range(func(k, _ any) bool {
		cell := k.(uintptr)
		if cell >= start && cell < end {
			found = true
			return false
		}
		return true
	})
	return found
}

func copyTable(src uintptr, words int) ([]byte, error) {
	protMu.Lock()
	defer protMu.Unlock()

	return shadowArena.alloc(words*int(PtrSize), func(buf []byte) {
		dst := unsafe.Slice((*uintptr)(unsafe.Pointer(&buf[0])), words)
		for i := range dst {
			dst[i] = loadWord(src + uintptr(i)*PtrSize)
		}
	})
}

// freeTable releases a copy. A copy that cannot be released is leaked.
func freeTable(l *zap.Logger, buf []byte) {
	protMu.Lock()
	defer protMu.Unlock()

	if err := shadowArena.release(buf); err != nil {
		l.Warn("unable to release shadow table", zap.Error(err))
	}
}
