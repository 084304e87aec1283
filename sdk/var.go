package sdk

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

// varObject mirrors the value fields of a host console variable. The host
// keeps the float and integer forms of the value side by side and reads
// whichever one it needs.
type varObject struct {
	_      [56]byte
	Parent uint64 `layout:"parent"`
	_      [20]byte
	Float  uint32 `layout:"float"`
	Int    uint32 `layout:"int"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(varObject{}.Parent)-56]
	_ = x[unsafe.Offsetof(varObject{}.Float)-84]
	_ = x[unsafe.Offsetof(varObject{}.Int)-88]
}

var VarLayout = layout.Mirror[varObject]("console_var", layout.ByteOffset).
	Expect("parent", 56).
	Expect("float", 84).
	Expect("int", 88).
	MustValidate()

// VarKind is a type a console variable can be read and written as.
type VarKind interface {
	int32 | float32 | bool
}

// Var is a console variable read and written as T.
type Var[T VarKind] struct {
	vhook.Handle
}

// NewVar wraps the console variable at addr. It reports false for null.
func NewVar[T VarKind](addr uintptr) (Var[T], bool) {
	h, ok := vhook.FromAddress(addr)
	return Var[T]{h}, ok
}

// LookupVar finds a console variable by name and types it as T.
func LookupVar[T VarKind](c Console, name string) (Var[T], bool) {
	h, ok := c.FindVar(name)
	return Var[T]{h}, ok
}

// owner returns the variable that holds the value. Registered copies point
// at it through their parent.
func (v Var[T]) owner() vhook.Handle {
	parent := atomic.LoadUint64(vhook.FieldAt[uint64](v.Handle, uintptr(VarLayout.Location("parent"))))
	if p, ok := vhook.FromAddress(uintptr(parent)); ok {
		return p
	}
	return v.Handle
}

func (v Var[T]) floatField() *uint32 {
	return vhook.FieldAt[uint32](v.owner(), uintptr(VarLayout.Location("float")))
}

func (v Var[T]) intField() *uint32 {
	return vhook.FieldAt[uint32](v.owner(), uintptr(VarLayout.Location("int")))
}

// Get returns the current value.
func (v Var[T]) Get() T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = math.Float32frombits(atomic.LoadUint32(v.floatField()))
	case *int32:
		*p = int32(atomic.LoadUint32(v.intField()))
	case *bool:
		*p = atomic.LoadUint32(v.intField()) != 0
	}
	return out
}

// Set stores value in both the float and integer fields.
func (v Var[T]) Set(value T) {
	var f float32
	var i int32
	switch x := any(value).(type) {
	case float32:
		f, i = x, int32(x)
	case int32:
		f, i = float32(x), x
	case bool:
		if x {
			f, i = 1, 1
		}
	}
	atomic.StoreUint32(v.floatField(), math.Float32bits(f))
	atomic.StoreUint32(v.intField(), uint32(i))
}
