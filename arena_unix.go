//go:build linux || darwin || openbsd || netbsd || freebsd

package vhook

import "golang.org/x/sys/unix"

// The backend always maps pages read-write; arenaProtRW adds nothing to it.
const (
	arenaProtRW   = unix.PROT_READ | unix.PROT_WRITE
	arenaProtRO   = unix.PROT_READ
	arenaMapFlags = 0
)
