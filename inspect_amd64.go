package vhook

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

func disassemble(pc uintptr, code []byte) (string, bool) {
	var buf bytes.Buffer
	jump := false

	for i := 0; i < len(code); {
		instruction, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			fmt.Fprintf(&buf, "0x%08x\t%-20s\t?\n", pc+uintptr(i), hex.EncodeToString(code[i:i+1]))
			break
		}
		if i == 0 && instruction.Op == x86asm.JMP {
			jump = true
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", pc+uintptr(i), hex.EncodeToString(code[i:i+instruction.Len]), instruction.String())

		i += instruction.Len
	}

	return buf.String(), jump
}
