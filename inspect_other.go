//go:build !amd64 && !arm64

package vhook

func disassemble(pc uintptr, code []byte) (string, bool) {
	return "", false
}
