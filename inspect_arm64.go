package vhook

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

func disassemble(pc uintptr, code []byte) (string, bool) {
	var buf bytes.Buffer
	jump := false

	for i := 0; i < len(code)&^3; i += 4 {
		var asm string
		instruction, err := arm64asm.Decode(code[i:])
		if err == nil {
			asm = instruction.String()
			if i == 0 && (instruction.Op == arm64asm.B || instruction.Op == arm64asm.BR) {
				jump = true
			}
		} else {
			asm = "?"
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", pc+uintptr(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String(), jump
}
