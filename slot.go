package vhook

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Convention describes what a table cell holds and how it is called.
type Convention uint8

const (
	// GoFunc cells hold Go func values. Closures are fine. Whoever builds
	// the table must keep the funcs reachable.
	GoFunc Convention = iota
	// GoCode cells hold the entry address of a Go function. Only top-level
	// functions can be encoded; a closure would lose its captured state.
	GoCode
	// C cells hold native function pointers using the platform C calling
	// convention.
	C
)

func (c Convention) String() string {
	switch c {
	case GoFunc:
		return "go-func"
	case GoCode:
		return "go-code"
	case C:
		return "c"
	}
	return fmt.Sprintf("convention(%d)", uint8(c))
}

// Slot is a typed table slot. F is the function type stored in the cell and
// must match what the host expects there exactly. Declare each slot once;
// its methods are the only place a cell is converted to or from F.
type Slot[F any] struct {
	Name       string
	Index      int
	Convention Convention
}

// NewSlot declares a slot. It panics if F is not a function type or the index
// is negative.
func NewSlot[F any](name string, index int, conv Convention) Slot[F] {
	ft := reflect.TypeFor[F]()
	if ft.Kind() != reflect.Func {
		panic(fmt.Sprintf("vhook: slot %s: not a function, kind: %v", name, ft.Kind()))
	}
	if index < 0 {
		panic(fmt.Sprintf("vhook: slot %s: negative index %d", name, index))
	}
	if conv == C {
		if err := checkCSignature(ft); err != nil {
			panic(fmt.Sprintf("vhook: slot %s: %v", name, err))
		}
	}
	return Slot[F]{Name: name, Index: index, Convention: conv}
}

func (s Slot[F]) String() string {
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// Get loads the cell from t and converts it to F. It returns nil when the
// cell is empty.
func (s Slot[F]) Get(t Table) F {
	return s.Decode(t.Load(s.Index))
}

// Encode converts fn to the word stored in a cell.
func (s Slot[F]) Encode(fn F) (uintptr, error) {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return 0, fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}
	if fnv.IsNil() {
		return 0, fmt.Errorf("%s: nil function", s)
	}

	switch s.Convention {
	case GoFunc:
		return *(*uintptr)(unsafe.Pointer(&fn)), nil
	case GoCode:
		return fnv.Pointer(), nil
	case C:
		return encodeC(fn)
	}
	return 0, fmt.Errorf("%s: %w: %v", s, ErrUnsupportedConvention, s.Convention)
}

// Decode converts a cell word to F. A zero word decodes to nil.
func (s Slot[F]) Decode(word uintptr) F {
	var fn F
	if word == 0 {
		return fn
	}

	switch s.Convention {
	case GoFunc:
		// The word is the func value itself.
		fn = *(*F)(unsafe.Pointer(&word))
	case GoCode:
		// A func value points at a word holding the code address. Build
		// one and convince Go it's an F.
		ref := new(uintptr)
		*ref = word
		fn = *(*F)(unsafe.Pointer(&ref))
	case C:
		fn = decodeC[F](word)
	}
	return fn
}

// code returns the machine code address behind a cell word.
func (s Slot[F]) code(word uintptr) uintptr {
	if word == 0 {
		return 0
	}
	if s.Convention == GoFunc {
		return reflect.ValueOf(s.Decode(word)).Pointer()
	}
	return word
}
