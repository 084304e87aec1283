//go:build windows

package vhook

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const writableProtections = windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
	windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY

func unprotect(addr, size uintptr) (func() error, error) {
	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		return nil, fmt.Errorf("VirtualQuery 0x%x: %w", addr, err)
	}
	if info.Protect&writableProtections != 0 {
		return nil, nil
	}

	start, length := pageRegion(addr, size)

	newProt := uint32(windows.PAGE_READWRITE)
	if info.Protect&(windows.PAGE_EXECUTE|windows.PAGE_EXECUTE_READ) != 0 {
		newProt = windows.PAGE_EXECUTE_READWRITE
	}

	var oldProt uint32
	if err := windows.VirtualProtect(start, length, newProt, &oldProt); err != nil {
		return nil, fmt.Errorf("VirtualProtect 0x%x: %w", addr, err)
	}
	return func() error {
		if err := windows.VirtualProtect(start, length, oldProt, &oldProt); err != nil {
			return fmt.Errorf("VirtualProtect failed to restore 0x%x: %w", addr, err)
		}
		return nil
	}, nil
}
