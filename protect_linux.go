package vhook

import (
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// pageProtection looks up the current protection of the mapping holding
// addr in /proc/self/maps.
func pageProtection(addr uintptr) (int, bool) {
	self, err := procfs.Self()
	if err != nil {
		return 0, false
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return 0, false
	}

	for _, m := range maps {
		if addr < m.StartAddr || addr >= m.EndAddr || m.Perms == nil {
			continue
		}

		prot := unix.PROT_NONE
		if m.Perms.Read {
			prot |= unix.PROT_READ
		}
		if m.Perms.Write {
			prot |= unix.PROT_WRITE
		}
		if m.Perms.Execute {
			prot |= unix.PROT_EXEC
		}
		return prot, true
	}
	return 0, false
}
