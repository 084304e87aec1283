package sdk

import (
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

// entityObject mirrors the start of a host entity. The renderable and
// networkable parts are embedded objects with tables of their own.
type entityObject struct {
	Table       uint64 `layout:"vtable"`
	Renderable  uint64 `layout:"renderable"`
	Networkable uint64 `layout:"networkable"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(entityObject{}.Table)-0]
	_ = x[unsafe.Offsetof(entityObject{}.Renderable)-8]
	_ = x[unsafe.Offsetof(entityObject{}.Networkable)-16]
}

var EntityLayout = layout.Mirror[entityObject]("entity", layout.ByteOffset).
	Expect("vtable", 0).
	Expect("renderable", 8).
	Expect("networkable", 16).
	MustValidate()

type entityTable struct {
	_            [12]uintptr
	Origin       uintptr `layout:"origin"`
	_            [144]uintptr
	IsPlayer     uintptr `layout:"is_player"`
	_            [199]uintptr
	ObserverMode uintptr `layout:"observer_mode"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(entityTable{}.Origin)/vhook.PtrSize-12]
	_ = x[unsafe.Offsetof(entityTable{}.IsPlayer)/vhook.PtrSize-157]
	_ = x[unsafe.Offsetof(entityTable{}.ObserverMode)/vhook.PtrSize-357]
}

var EntityTableLayout = layout.Mirror[entityTable]("entity_table", layout.SlotIndex).
	Expect("origin", 12).
	Expect("is_player", 157).
	Expect("observer_mode", 357).
	MustValidate()

// ObserverMode is how a spectating entity follows its target.
type ObserverMode int32

const (
	ObserverNone ObserverMode = iota
	ObserverDeathCam
	ObserverFreezeCam
	ObserverFixed
	ObserverInEye
	ObserverChase
	ObserverRoaming
)

type (
	OriginFunc       func(this uintptr) uintptr
	IsPlayerFunc     func(this uintptr) bool
	ObserverModeFunc func(this uintptr) ObserverMode
)

var (
	OriginSlot       = vhook.NewSlot[OriginFunc]("entity.origin", EntityTableLayout.Location("origin"), vhook.C)
	IsPlayerSlot     = vhook.NewSlot[IsPlayerFunc]("entity.is_player", EntityTableLayout.Location("is_player"), vhook.C)
	ObserverModeSlot = vhook.NewSlot[ObserverModeFunc]("entity.observer_mode", EntityTableLayout.Location("observer_mode"), vhook.C)
)

// Vec3 is a host vector or angle.
type Vec3 struct {
	X, Y, Z float32
}

// Entity is a host entity.
type Entity struct {
	vhook.Handle
}

func NewEntity(addr uintptr) (Entity, bool) {
	h, ok := vhook.FromAddress(addr)
	return Entity{h}, ok
}

// Renderable returns the embedded renderable object.
func (e Entity) Renderable() Renderable {
	return Renderable{vhook.FromAddressUnchecked(e.Address() + uintptr(EntityLayout.Location("renderable")))}
}

// Networkable returns the embedded networkable object.
func (e Entity) Networkable() Networkable {
	return Networkable{vhook.FromAddressUnchecked(e.Address() + uintptr(EntityLayout.Location("networkable")))}
}

func (e Entity) Index() int32 {
	return e.Networkable().Index()
}

func (e Entity) IsDormant() bool {
	return e.Networkable().IsDormant()
}

func (e Entity) ShouldDraw() bool {
	return e.Renderable().ShouldDraw()
}

// Origin returns the entity's position.
func (e Entity) Origin() (Vec3, bool) {
	p := vhook.Entry(e.Handle, OriginSlot)(e.Address())
	h, ok := vhook.FromAddress(p)
	if !ok {
		return Vec3{}, false
	}
	return *vhook.FieldAt[Vec3](h, 0), true
}

func (e Entity) IsPlayer() bool {
	return vhook.Entry(e.Handle, IsPlayerSlot)(e.Address())
}

func (e Entity) ObserverMode() ObserverMode {
	return vhook.Entry(e.Handle, ObserverModeSlot)(e.Address())
}
