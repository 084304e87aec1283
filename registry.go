package vhook

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pboyd/vhook/config"
)

// Registry owns installed hooks and the state replacement callbacks share.
//
// Install, Restore and Shadow are serialized by a mutex. Nothing a callback
// is expected to call takes that mutex: Lookup, State and the hook accessors
// are lock-free, so a callback that re-enters another hooked slot through
// Original cannot deadlock on the registry.
type Registry struct {
	logger            *zap.Logger
	restoreProtection bool
	shadowPrefix      int
	enabled           map[string]bool

	state *State
	epoch atomic.Uint64

	// byName maps a slot name to the []Record installed under it, oldest
	// first. The slices are replaced, never modified, and only while mu is
	// held, so readers need no lock.
	byName sync.Map

	mu      sync.Mutex
	order   []Record
	shadows []*ShadowTable
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger. The package Logger is used
// otherwise, and when l is nil.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConfig applies protection, shadow and per-hook settings from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(r *Registry) {
		r.restoreProtection = cfg.Protection.Restore
		r.shadowPrefix = cfg.Shadow.Prefix
		for name, h := range cfg.Hooks {
			r.enabled[name] = h.IsEnabled()
		}
	}
}

// WithState declares the shared fields callbacks will use.
func WithState(spec StateSpec) Option {
	return func(r *Registry) {
		r.state = newState(spec)
	}
}

// NewRegistry returns an empty registry. Most programs use Attach, which
// creates the process-wide one.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:            Logger(),
		restoreProtection: true,
		shadowPrefix:      defaultShadowPrefix,
		enabled:           map[string]bool{},
		state:             newState(StateSpec{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the shared callback state.
func (r *Registry) State() *State {
	return r.state
}

// Lookup returns the installed hook for a slot name. When the same slot is
// hooked on more than one table, the most recently installed one wins.
func (r *Registry) Lookup(name string) (Record, bool) {
	v, ok := r.byName.Load(name)
	if !ok {
		return nil, false
	}
	recs := v.([]Record)
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Installed() {
			return recs[i], true
		}
	}
	return nil, false
}

// Hooks returns the installed hooks in install order.
func (r *Registry) Hooks() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	hooks := make([]Record, len(r.order))
	copy(hooks, r.order)
	return hooks
}

// SetEnabled flips the enabled flag of the hook for name. It reports false
// when no such hook is installed.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	rec, ok := r.Lookup(name)
	if !ok {
		return false
	}
	rec.SetEnabled(enabled)
	return true
}

// ApplyConfig updates enabled flags from cfg. Hooks not mentioned keep
// their current flag.
func (r *Registry) ApplyConfig(cfg *config.Config) {
	for name, h := range cfg.Hooks {
		if r.SetEnabled(name, h.IsEnabled()) {
			r.logger.Info("hook toggled", zap.String("slot", name), zap.Bool("enabled", h.IsEnabled()))
		}
	}
}

// Restore puts the original value back into the hook's cell.
func (r *Registry) Restore(h Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.restoreLocked(h)
}

func (r *Registry) restoreLocked(h Record) error {
	if err := h.restore(r.restoreProtection); err != nil {
		return err
	}

	r.forget(h)
	for i, rec := range r.order {
		if rec == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("hook restored",
		zap.String("slot", h.Name()),
		zap.String("cell", fmt.Sprintf("0x%x", h.Cell())),
	)
	return nil
}

// RestoreAll restores every hook in the reverse of the order it was
// installed, then every shadow table. It keeps going after a failure and
// returns all errors.
func (r *Registry) RestoreAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := []error{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if err := r.restoreLocked(r.order[i]); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(r.shadows) - 1; i >= 0; i-- {
		if err := r.shadows[i].restore(); err != nil && !errors.Is(err, ErrNotInstalled) {
			errs = append(errs, err)
		}
	}
	r.shadows = nil

	return errors.Join(errs...)
}

// Epoch returns the current handle epoch.
func (r *Registry) Epoch() uint64 {
	return r.epoch.Load()
}

// AdvanceEpoch invalidates every Pinned handle. Call it when the host is
// known to have destroyed objects, e.g. on a level change.
func (r *Registry) AdvanceEpoch() uint64 {
	return r.epoch.Add(1)
}

// Pin ties h to the current epoch.
func (r *Registry) Pin(h Handle) Pinned {
	return Pinned{h: h, epoch: r.epoch.Load(), r: r}
}

// remember and forget must be called with mu held.
func (r *Registry) remember(h Record) {
	var recs []Record
	if v, ok := r.byName.Load(h.Name()); ok {
		recs = v.([]Record)
	}
	r.byName.Store(h.Name(), append(recs[:len(recs):len(recs)], h))
}

func (r *Registry) forget(h Record) {
	v, ok := r.byName.Load(h.Name())
	if !ok {
		return
	}
	recs := v.([]Record)
	kept := make([]Record, 0, len(recs))
	for _, rec := range recs {
		if rec != h {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		r.byName.Delete(h.Name())
		return
	}
	r.byName.Store(h.Name(), kept)
}

func (r *Registry) initialEnabled(name string) bool {
	enabled, ok := r.enabled[name]
	return !ok || enabled
}

// Pinned is a Handle that knows the epoch it was resolved under.
type Pinned struct {
	h     Handle
	epoch uint64
	r     *Registry
}

// Handle returns the handle, or false if the registry's epoch has moved on
// since it was pinned.
func (p Pinned) Handle() (Handle, bool) {
	if p.r == nil || p.r.epoch.Load() != p.epoch {
		return Handle{}, false
	}
	return p.h, true
}
