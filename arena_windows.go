//go:build windows

package vhook

import "golang.org/x/sys/windows"

const (
	arenaProtRW   = windows.PAGE_READWRITE
	arenaProtRO   = windows.PAGE_READONLY
	arenaMapFlags = 0
)
