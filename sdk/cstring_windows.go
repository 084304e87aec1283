//go:build windows

package sdk

import "golang.org/x/sys/windows"

func cString(s string) (*byte, error) {
	return windows.BytePtrFromString(s)
}

func goString(p *byte) string {
	return windows.BytePtrToString(p)
}
