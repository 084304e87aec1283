//go:build !(linux || darwin || windows || openbsd || netbsd || freebsd)

package vhook

// tableArena falls back to the Go heap where there is no mmap backend.
// Copies are not sealed.
type tableArena struct{}

func (a *tableArena) alloc(size int, fill func([]byte)) ([]byte, error) {
	buf := make([]byte, size)
	fill(buf)
	return buf, nil
}

func (a *tableArena) release(buf []byte) error {
	return nil
}
