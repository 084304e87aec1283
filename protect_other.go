//go:build !unix && !windows

package vhook

import "errors"

func unprotect(addr, size uintptr) (func() error, error) {
	return nil, errors.New("changing memory protection is not supported on this platform")
}
