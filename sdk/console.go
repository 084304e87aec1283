package sdk

import (
	"runtime"
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

type consoleTable struct {
	_       [15]uintptr
	FindVar uintptr `layout:"find_var"`
	_       [11]uintptr
	Write   uintptr `layout:"write"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(consoleTable{}.FindVar)/vhook.PtrSize-15]
	_ = x[unsafe.Offsetof(consoleTable{}.Write)/vhook.PtrSize-27]
}

var ConsoleLayout = layout.Mirror[consoleTable]("console", layout.SlotIndex).
	Expect("find_var", 15).
	Expect("write", 27).
	MustValidate()

type (
	FindVarFunc func(this, name uintptr) uintptr
	WriteFunc   func(this, format, text uintptr)
)

var (
	FindVarSlot = vhook.NewSlot[FindVarFunc]("console.find_var", ConsoleLayout.Location("find_var"), vhook.C)
	WriteSlot   = vhook.NewSlot[WriteFunc]("console.write", ConsoleLayout.Location("write"), vhook.C)
)

// Console is the host's console interface.
type Console struct {
	vhook.Handle
}

// NewConsole wraps the console at addr. It reports false for null.
func NewConsole(addr uintptr) (Console, bool) {
	h, ok := vhook.FromAddress(addr)
	return Console{h}, ok
}

// FindVar looks up a console variable by name.
func (c Console) FindVar(name string) (vhook.Handle, bool) {
	p, err := cString(name)
	if err != nil {
		return vhook.Handle{}, false
	}
	v := vhook.Entry(c.Handle, FindVarSlot)(c.Address(), uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
	return vhook.FromAddress(v)
}

// Write prints text to the console.
func (c Console) Write(text string) error {
	p, err := cString(text)
	if err != nil {
		return err
	}
	vhook.Entry(c.Handle, WriteSlot)(c.Address(), uintptr(unsafe.Pointer(&percentS[0])), uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
	return nil
}

// percentS keeps the host from interpreting text as a format string.
var percentS = []byte("%s\x00")
