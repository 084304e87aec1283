package sdk

import (
	"runtime"
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

type networkableTable struct {
	_           [2]uintptr
	ClientClass uintptr `layout:"client_class"`
	_           [6]uintptr
	IsDormant   uintptr `layout:"is_dormant"`
	Index       uintptr `layout:"index"`
}

type renderableTable struct {
	_          [5]uintptr
	ShouldDraw uintptr `layout:"should_draw"`
	_          [2]uintptr
	Model      uintptr `layout:"model"`
	_          [4]uintptr
	SetupBones uintptr `layout:"setup_bones"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(networkableTable{}.ClientClass)/vhook.PtrSize-2]
	_ = x[unsafe.Offsetof(networkableTable{}.IsDormant)/vhook.PtrSize-9]
	_ = x[unsafe.Offsetof(networkableTable{}.Index)/vhook.PtrSize-10]
	_ = x[unsafe.Offsetof(renderableTable{}.ShouldDraw)/vhook.PtrSize-5]
	_ = x[unsafe.Offsetof(renderableTable{}.Model)/vhook.PtrSize-8]
	_ = x[unsafe.Offsetof(renderableTable{}.SetupBones)/vhook.PtrSize-13]
}

var NetworkableLayout = layout.Mirror[networkableTable]("networkable", layout.SlotIndex).
	Expect("client_class", 2).
	Expect("is_dormant", 9).
	Expect("index", 10).
	MustValidate()

var RenderableLayout = layout.Mirror[renderableTable]("renderable", layout.SlotIndex).
	Expect("should_draw", 5).
	Expect("model", 8).
	Expect("setup_bones", 13).
	MustValidate()

// Matrix3x4 is a bone transform.
type Matrix3x4 [3][4]float32

type (
	ClientClassFunc func(this uintptr) uintptr
	IsDormantFunc   func(this uintptr) bool
	IndexFunc       func(this uintptr) int32
	ShouldDrawFunc  func(this uintptr) bool
	ModelFunc       func(this uintptr) uintptr
	SetupBonesFunc  func(this, bones uintptr, max, mask int32, time float32) bool
)

var (
	ClientClassSlot = vhook.NewSlot[ClientClassFunc]("networkable.client_class", NetworkableLayout.Location("client_class"), vhook.C)
	IsDormantSlot   = vhook.NewSlot[IsDormantFunc]("networkable.is_dormant", NetworkableLayout.Location("is_dormant"), vhook.C)
	IndexSlot       = vhook.NewSlot[IndexFunc]("networkable.index", NetworkableLayout.Location("index"), vhook.C)
	ShouldDrawSlot  = vhook.NewSlot[ShouldDrawFunc]("renderable.should_draw", RenderableLayout.Location("should_draw"), vhook.C)
	ModelSlot       = vhook.NewSlot[ModelFunc]("renderable.model", RenderableLayout.Location("model"), vhook.C)
	SetupBonesSlot  = vhook.NewSlot[SetupBonesFunc]("renderable.setup_bones", RenderableLayout.Location("setup_bones"), vhook.C)
)

// Networkable is the part of an entity the network layer sees.
type Networkable struct {
	vhook.Handle
}

// ClientClass returns the entity's class descriptor, which may be null.
func (n Networkable) ClientClass() vhook.Handle {
	return vhook.FromAddressUnchecked(vhook.Entry(n.Handle, ClientClassSlot)(n.Address()))
}

func (n Networkable) IsDormant() bool {
	return vhook.Entry(n.Handle, IsDormantSlot)(n.Address())
}

func (n Networkable) Index() int32 {
	return vhook.Entry(n.Handle, IndexSlot)(n.Address())
}

// Renderable is the part of an entity the renderer sees.
type Renderable struct {
	vhook.Handle
}

func (r Renderable) ShouldDraw() bool {
	return vhook.Entry(r.Handle, ShouldDrawSlot)(r.Address())
}

// Model returns the entity's model, which may be null.
func (r Renderable) Model() vhook.Handle {
	return vhook.FromAddressUnchecked(vhook.Entry(r.Handle, ModelSlot)(r.Address()))
}

// SetupBones fills bones with the entity's bone transforms at time.
func (r Renderable) SetupBones(bones []Matrix3x4, mask int32, time float32) bool {
	var p uintptr
	if len(bones) > 0 {
		p = uintptr(unsafe.Pointer(&bones[0]))
	}
	ok := vhook.Entry(r.Handle, SetupBonesSlot)(r.Address(), p, int32(len(bones)), mask, time)
	runtime.KeepAlive(bones)
	return ok
}
