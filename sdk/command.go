package sdk

import (
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

// Buttons is the input state of a user command.
type Buttons int32

const (
	Attack    Buttons = 1 << 0
	Jump      Buttons = 1 << 1
	Crouch    Buttons = 1 << 2
	Forward   Buttons = 1 << 3
	Backward  Buttons = 1 << 4
	Use       Buttons = 1 << 5
	Cancel    Buttons = 1 << 6
	Left      Buttons = 1 << 7
	Right     Buttons = 1 << 8
	MoveLeft  Buttons = 1 << 9
	MoveRight Buttons = 1 << 10
	Attack2   Buttons = 1 << 11
	Run       Buttons = 1 << 12
	Reload    Buttons = 1 << 13
	Alt1      Buttons = 1 << 14
	Alt2      Buttons = 1 << 15
	Score     Buttons = 1 << 16
	Speed     Buttons = 1 << 17
	Walk      Buttons = 1 << 18
	Zoom      Buttons = 1 << 19
	Weapon1   Buttons = 1 << 20
	Weapon2   Buttons = 1 << 21
	Bullrush  Buttons = 1 << 22
	Grenade1  Buttons = 1 << 23
	Grenade2  Buttons = 1 << 24
	Attack3   Buttons = 1 << 25

	Duck      = Crouch
	AnyAttack = Attack | Attack2 | Attack3
	FastDuck  = Duck | Bullrush
)

// Has reports whether every button in b is pressed.
func (s Buttons) Has(b Buttons) bool {
	return s&b == b
}

// Any reports whether any button in b is pressed.
func (s Buttons) Any(b Buttons) bool {
	return s&b != 0
}

// Command is an overlay of the host's user command. Use CommandAt to view
// one in host memory; never copy it back with a different size.
type Command struct {
	vtable           uint64
	CommandNumber    int32
	TickCount        int32
	ViewAngle        Vec3
	AimDirection     Vec3
	ForwardMove      float32
	SideMove         float32
	UpMove           float32
	Buttons          Buttons
	Impulse          uint8
	_                [3]byte
	WeaponSelect     int32
	WeaponSubtype    int32
	RandomSeed       int32
	MouseDX          int16
	MouseDY          int16
	HasBeenPredicted bool
	_                [3]byte
	HeadAngles       Vec3
	HeadOffset       Vec3
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(Command{}.CommandNumber)-8]
	_ = x[unsafe.Offsetof(Command{}.ViewAngle)-16]
	_ = x[unsafe.Offsetof(Command{}.ForwardMove)-40]
	_ = x[unsafe.Offsetof(Command{}.Buttons)-52]
	_ = x[unsafe.Offsetof(Command{}.Impulse)-56]
	_ = x[unsafe.Offsetof(Command{}.WeaponSelect)-60]
	_ = x[unsafe.Offsetof(Command{}.MouseDX)-72]
	_ = x[unsafe.Offsetof(Command{}.HasBeenPredicted)-76]
	_ = x[unsafe.Offsetof(Command{}.HeadAngles)-80]
	_ = x[unsafe.Offsetof(Command{}.HeadOffset)-92]
	_ = x[unsafe.Sizeof(Command{})-104]
}

var CommandLayout = layout.Mirror[Command]("command", layout.ByteOffset).
	Expect("vtable", 0).
	Expect("CommandNumber", 8).
	Expect("TickCount", 12).
	Expect("ViewAngle", 16).
	Expect("AimDirection", 28).
	Expect("ForwardMove", 40).
	Expect("SideMove", 44).
	Expect("UpMove", 48).
	Expect("Buttons", 52).
	Expect("Impulse", 56).
	Expect("WeaponSelect", 60).
	Expect("WeaponSubtype", 64).
	Expect("RandomSeed", 68).
	Expect("MouseDX", 72).
	Expect("MouseDY", 74).
	Expect("HasBeenPredicted", 76).
	Expect("HeadAngles", 80).
	Expect("HeadOffset", 92).
	MustValidate()

// CommandAt views the command at h.
func CommandAt(h vhook.Handle) *Command {
	return vhook.FieldAt[Command](h, 0)
}

// Press sets or clears buttons.
func (c *Command) Press(b Buttons, pressed bool) {
	if pressed {
		c.Buttons |= b
	} else {
		c.Buttons &^= b
	}
}
