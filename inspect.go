package vhook

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// entryLen is how many bytes of an original entry point are disassembled.
const entryLen = 24

// inspectOriginal logs the first instructions of the code a hook replaced.
// An entry that starts with an unconditional jump usually means somebody
// else already patched the function.
func (r *Registry) inspectOriginal(name string, code uintptr) {
	if code == 0 || !r.logger.Core().Enabled(zap.DebugLevel) {
		return
	}

	entry := unsafe.Slice((*byte)(unsafe.Pointer(code)), entryLen)
	listing, jump := disassemble(code, entry)

	r.logger.Debug("original entry",
		zap.String("slot", name),
		zap.String("code", fmt.Sprintf("0x%x", code)),
		zap.String("disassembly", listing),
	)
	if jump {
		r.logger.Warn("original entry starts with a jump", zap.String("slot", name))
	}
}
