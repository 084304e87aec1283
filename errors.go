package vhook

import (
	"errors"
	"fmt"
)

var (
	// ErrNullHandle means a foreign address resolved to null.
	ErrNullHandle = errors.New("null handle")
	// ErrHookInstallFailed means a hook could not be installed. Every
	// install failure matches it.
	ErrHookInstallFailed = errors.New("hook install failed")
	// ErrAlreadyInstalled means the cell already holds one of our hooks.
	ErrAlreadyInstalled = errors.New("already installed")
	// ErrNotInstalled means the hook was never installed or was restored.
	ErrNotInstalled = errors.New("hook not installed")
	// ErrSlotChanged means the cell no longer holds our replacement.
	ErrSlotChanged = errors.New("slot changed by someone else")
	// ErrSlotOutOfRange is returned when a slot index is past the end of a
	// table whose length is known.
	ErrSlotOutOfRange = errors.New("slot index out of range")
	// ErrNotAttached means Global was used before Attach completed.
	ErrNotAttached = errors.New("not attached")
	// ErrAlreadyAttached means Attach ran more than once.
	ErrAlreadyAttached = errors.New("already attached")
	// ErrUnsupportedConvention means the calling convention is not
	// available on this platform.
	ErrUnsupportedConvention = errors.New("calling convention not supported")
)

// InstallError describes a failed install.
type InstallError struct {
	Slot  string
	Index int
	Cell  uintptr
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s (slot %d, cell 0x%x): %v", e.Slot, e.Index, e.Cell, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// Is reports every InstallError as ErrHookInstallFailed.
func (e *InstallError) Is(target error) bool {
	return target == ErrHookInstallFailed
}
