//go:build !unix && !windows

package sdk

import (
	"errors"
	"strings"
	"unsafe"
)

func cString(s string) (*byte, error) {
	if strings.IndexByte(s, 0) != -1 {
		return nil, errors.New("string contains NUL")
	}
	b := append([]byte(s), 0)
	return &b[0], nil
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
