package sdk

import (
	"runtime"
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

type materialSystemTable struct {
	_      [83]uintptr
	Create uintptr `layout:"create"`
	Find   uintptr `layout:"find"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(materialSystemTable{}.Create)/vhook.PtrSize-83]
	_ = x[unsafe.Offsetof(materialSystemTable{}.Find)/vhook.PtrSize-84]
}

var MaterialSystemLayout = layout.Mirror[materialSystemTable]("material_system", layout.SlotIndex).
	Expect("create", 83).
	Expect("find", 84).
	MustValidate()

type (
	CreateMaterialFunc func(this, name, vdf uintptr) uintptr
	FindMaterialFunc   func(this, name, textureGroup uintptr, complain bool, complainPrefix uintptr) uintptr
)

var (
	CreateMaterialSlot = vhook.NewSlot[CreateMaterialFunc]("material_system.create", MaterialSystemLayout.Location("create"), vhook.C)
	FindMaterialSlot   = vhook.NewSlot[FindMaterialFunc]("material_system.find", MaterialSystemLayout.Location("find"), vhook.C)
)

// MaterialSystem creates and finds materials.
type MaterialSystem struct {
	vhook.Handle
}

func NewMaterialSystem(addr uintptr) (MaterialSystem, bool) {
	h, ok := vhook.FromAddress(addr)
	return MaterialSystem{h}, ok
}

// Create builds a material from a key-values description.
func (m MaterialSystem) Create(name string, vdf uintptr) (vhook.Handle, bool) {
	p, err := cString(name)
	if err != nil {
		return vhook.Handle{}, false
	}
	mat := vhook.Entry(m.Handle, CreateMaterialSlot)(m.Address(), uintptr(unsafe.Pointer(p)), vdf)
	runtime.KeepAlive(p)
	return vhook.FromAddress(mat)
}

// Find looks up an existing material.
func (m MaterialSystem) Find(name, textureGroup string) (vhook.Handle, bool) {
	n, err := cString(name)
	if err != nil {
		return vhook.Handle{}, false
	}
	g, err := cString(textureGroup)
	if err != nil {
		return vhook.Handle{}, false
	}
	mat := vhook.Entry(m.Handle, FindMaterialSlot)(m.Address(), uintptr(unsafe.Pointer(n)), uintptr(unsafe.Pointer(g)), true, 0)
	runtime.KeepAlive(n)
	runtime.KeepAlive(g)
	return vhook.FromAddress(mat)
}
