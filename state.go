package vhook

import (
	"fmt"
	"sync/atomic"
)

// StateSpec names the shared fields a plan's callbacks use. Fields are fixed
// once the registry is published; only their values change afterwards.
type StateSpec struct {
	Counters []string
	Flags    []string
	Handles  []string
}

// State is the data shared between host threads running replacement
// callbacks. Every field is an atomic, so reading it never blocks.
//
// Asking for a field that was not declared panics. That is a programming
// error, not something to handle at run time.
type State struct {
	counters map[string]*atomic.Int64
	flags    map[string]*atomic.Bool
	handles  map[string]*atomic.Uintptr
}

func newState(spec StateSpec) *State {
	s := &State{
		counters: make(map[string]*atomic.Int64, len(spec.Counters)),
		flags:    make(map[string]*atomic.Bool, len(spec.Flags)),
		handles:  make(map[string]*atomic.Uintptr, len(spec.Handles)),
	}
	for _, name := range spec.Counters {
		s.counters[name] = new(atomic.Int64)
	}
	for _, name := range spec.Flags {
		s.flags[name] = new(atomic.Bool)
	}
	for _, name := range spec.Handles {
		s.handles[name] = new(atomic.Uintptr)
	}
	return s
}

// Counter returns the named counter.
func (s *State) Counter(name string) *atomic.Int64 {
	c, ok := s.counters[name]
	if !ok {
		panic(fmt.Sprintf("vhook: undeclared counter %q", name))
	}
	return c
}

// Flag returns the named flag.
func (s *State) Flag(name string) *atomic.Bool {
	f, ok := s.flags[name]
	if !ok {
		panic(fmt.Sprintf("vhook: undeclared flag %q", name))
	}
	return f
}

// Handle returns the cached handle for name, or false if none was set.
func (s *State) Handle(name string) (Handle, bool) {
	return FromAddress(s.handle(name).Load())
}

// SetHandle caches h under name. Storing the zero Handle clears it.
func (s *State) SetHandle(name string, h Handle) {
	s.handle(name).Store(h.addr)
}

func (s *State) handle(name string) *atomic.Uintptr {
	h, ok := s.handles[name]
	if !ok {
		panic(fmt.Sprintf("vhook: undeclared handle %q", name))
	}
	return h
}
