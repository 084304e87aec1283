package vhook

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Phase is the lifecycle of the process-wide registry.
type Phase int32

const (
	Uninitialized Phase = iota
	Initialized
	TornDown
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case TornDown:
		return "torn down"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

var (
	attachMu sync.Mutex
	global   atomic.Pointer[Registry]
	phase    atomic.Int32
)

// Target finds the table an installer hooks. It runs after Plan.Resolve.
type Target func(r *Registry) (Table, error)

// TableOf targets the virtual table of a known object.
func TableOf(h Handle) Target {
	return func(*Registry) (Table, error) {
		if h.IsZero() {
			return Table{}, ErrNullHandle
		}
		return h.VirtualTable(), nil
	}
}

// HandleNamed targets the virtual table of the object cached in State under
// name, normally by Plan.Resolve.
func HandleNamed(name string) Target {
	return func(r *Registry) (Table, error) {
		h, ok := r.State().Handle(name)
		if !ok {
			return Table{}, fmt.Errorf("handle %q: %w", name, ErrNullHandle)
		}
		t := h.VirtualTable()
		if t.base == 0 {
			return Table{}, fmt.Errorf("handle %q has no table: %w", name, ErrNullHandle)
		}
		return t, nil
	}
}

// Installer is one hook in a Plan. Intercept creates them.
type Installer interface {
	Name() string
	install(r *Registry) (Record, error)
}

type interceptor[F any] struct {
	slot        Slot[F]
	target      Target
	replacement F
	dst         *atomic.Pointer[Hook[F]]
}

// Intercept declares a hook for a Plan. When dst is not nil the hook is
// stored in it before the replacement can run, so a replacement can call
// dst.Load().Original() without a lookup.
func Intercept[F any](slot Slot[F], target Target, replacement F, dst *atomic.Pointer[Hook[F]]) Installer {
	return &interceptor[F]{
		slot:        slot,
		target:      target,
		replacement: replacement,
		dst:         dst,
	}
}

func (i *interceptor[F]) Name() string {
	return i.slot.Name
}

func (i *interceptor[F]) install(r *Registry) (Record, error) {
	t, err := i.target(r)
	if err != nil {
		return nil, &InstallError{Slot: i.slot.Name, Index: i.slot.Index, Err: err}
	}

	var publish func(*Hook[F])
	if i.dst != nil {
		publish = i.dst.Store
	}

	h, err := install(r, t, i.slot, i.replacement, publish)
	if err != nil {
		if i.dst != nil {
			i.dst.Store(nil)
		}
		return nil, err
	}
	return h, nil
}

// Plan is everything Attach sets up.
type Plan struct {
	// State declares the shared fields. They exist before Resolve runs.
	State StateSpec

	// Resolve locates host objects, usually caching them with
	// State().SetHandle. It may be nil.
	Resolve func(r *Registry) error

	// Hooks are installed in order after the registry is published.
	Hooks []Installer
}

// Attach builds the process-wide registry and installs plan. It runs at most
// once per process.
//
// The registry is published before the first hook is installed, so a
// replacement can always call Global. If any step fails, hooks already
// installed are restored in reverse order, the registry is withdrawn and the
// process is left TornDown.
func Attach(plan Plan, opts ...Option) (*Registry, error) {
	attachMu.Lock()
	defer attachMu.Unlock()

	if Phase(phase.Load()) != Uninitialized {
		return nil, ErrAlreadyAttached
	}

	opts = append([]Option{WithState(plan.State)}, opts...)
	r := NewRegistry(opts...)
	logHost(r.logger)

	if plan.Resolve != nil {
		if err := plan.Resolve(r); err != nil {
			phase.Store(int32(TornDown))
			r.logger.Error("attach failed", zap.Error(err))
			return nil, fmt.Errorf("resolve host interfaces: %w", err)
		}
	}

	global.Store(r)
	phase.Store(int32(Initialized))

	for _, in := range plan.Hooks {
		if _, err := in.install(r); err != nil {
			rerr := r.RestoreAll()
			global.Store(nil)
			phase.Store(int32(TornDown))
			r.logger.Error("attach failed, rolled back",
				zap.String("slot", in.Name()),
				zap.Error(err),
			)
			return nil, errors.Join(err, rerr)
		}
	}

	r.logger.Info("attached", zap.Int("hooks", len(plan.Hooks)))
	return r, nil
}

// Global returns the process-wide registry. It panics with ErrNotAttached
// when Attach has not completed publication.
func Global() *Registry {
	r := global.Load()
	if r == nil {
		panic(ErrNotAttached)
	}
	return r
}

// Attached reports whether the process-wide registry is live.
func Attached() bool {
	return Phase(phase.Load()) == Initialized
}

// CurrentPhase returns the lifecycle phase of the process.
func CurrentPhase() Phase {
	return Phase(phase.Load())
}

// Original returns the function that was in slot before it was hooked, using
// the process-wide registry. It reports false when the slot is not hooked.
func Original[F any](slot Slot[F]) (F, bool) {
	var zero F
	r := global.Load()
	if r == nil {
		return zero, false
	}
	h, ok := Lookup(r, slot)
	if !ok {
		return zero, false
	}
	return h.Original(), true
}

// Detach restores every hook and shadow table in reverse order. The registry
// stays reachable through Global so callbacks still in flight can finish,
// but nothing is hooked afterwards.
func Detach() error {
	attachMu.Lock()
	defer attachMu.Unlock()

	if Phase(phase.Load()) != Initialized {
		return ErrNotAttached
	}

	r := global.Load()
	err := r.RestoreAll()
	phase.Store(int32(TornDown))

	if err != nil {
		r.logger.Error("detach incomplete", zap.Error(err))
		return err
	}
	r.logger.Info("detached")
	return nil
}
