//go:build unix

package sdk

import "golang.org/x/sys/unix"

func cString(s string) (*byte, error) {
	return unix.BytePtrFromString(s)
}

func goString(p *byte) string {
	return unix.BytePtrToString(p)
}
