//go:build unix

package vhook

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func mprotect(addr, size uintptr, prot int) error {
	start, length := pageRegion(addr, size)

	// Convert the memory region to a byte slice for mprotect.
	region := unsafe.Slice((*byte)(unsafe.Pointer(start)), length)

	return unix.Mprotect(region, prot)
}

// unprotect makes the region writable. The returned func puts the previous
// protection back; it is nil when the region was already writable or when
// the previous protection could not be determined. In the latter case the
// region is left writable.
func unprotect(addr, size uintptr) (func() error, error) {
	prot, known := pageProtection(addr)
	if known && prot&unix.PROT_WRITE != 0 {
		return nil, nil
	}
	if !known {
		if err := mprotect(addr, size, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("mprotect 0x%x: %w", addr, err)
		}
		return nil, nil
	}

	if err := mprotect(addr, size, prot|unix.PROT_WRITE); err != nil {
		return nil, fmt.Errorf("mprotect 0x%x: %w", addr, err)
	}
	return func() error {
		if err := mprotect(addr, size, prot); err != nil {
			return fmt.Errorf("restore protection 0x%x: %w", addr, err)
		}
		return nil
	}, nil
}
