//go:build unix && !linux

package vhook

// pageProtection has no cheap source outside Linux.
func pageProtection(addr uintptr) (int, bool) {
	return 0, false
}
