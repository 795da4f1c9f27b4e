package history

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/routesync/internal/ir"
)

// MemoryHistory is an in-process History backed by an entry stack.
//
// Thread-safety: all methods are safe for concurrent use. Listeners are
// invoked after the internal lock is released, so a listener may call back
// into the history.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []*ir.Location
	index     int
	listeners []*registration
	keys      KeyGenerator
	logger    *slog.Logger
}

type registration struct {
	fn     Listener
	active bool
}

// Option configures a MemoryHistory.
type Option func(*memoryConfig)

type memoryConfig struct {
	entries []string
	index   int
	keys    KeyGenerator
	logger  *slog.Logger
}

// WithInitialEntries seeds the entry stack with the given paths, each
// "/pathname?search#hash".
// Default: a single "/" entry.
func WithInitialEntries(paths ...string) Option {
	return func(c *memoryConfig) {
		c.entries = paths
	}
}

// WithInitialIndex selects the starting entry. Out-of-range values are
// clamped. Default: the last entry.
func WithInitialIndex(i int) Option {
	return func(c *memoryConfig) {
		c.index = i
	}
}

// WithKeyGenerator sets the location key generator.
// Default: UUIDv7KeyGenerator.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(c *memoryConfig) {
		c.keys = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *memoryConfig) {
		c.logger = l
	}
}

// NewMemoryHistory creates a MemoryHistory. Every initial entry gets a
// fresh key and the POP action.
func NewMemoryHistory(opts ...Option) *MemoryHistory {
	cfg := memoryConfig{index: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.entries) == 0 {
		cfg.entries = []string{"/"}
	}
	if cfg.keys == nil {
		cfg.keys = UUIDv7KeyGenerator{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	h := &MemoryHistory{
		entries: make([]*ir.Location, len(cfg.entries)),
		keys:    cfg.keys,
		logger:  cfg.logger,
	}
	for i, p := range cfg.entries {
		loc := ir.ParsePath(p)
		loc.Key = h.keys.Generate()
		h.entries[i] = loc
	}

	switch {
	case cfg.index < 0 || cfg.index >= len(h.entries):
		h.index = len(h.entries) - 1
	default:
		h.index = cfg.index
	}
	return h
}

// Listen registers fn for future location changes.
func (h *MemoryHistory) Listen(fn Listener) (UnlistenFunc, error) {
	if fn == nil {
		return nil, fmt.Errorf("history: nil listener")
	}
	reg := &registration{fn: fn, active: true}

	h.mu.Lock()
	h.listeners = append(h.listeners, reg)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			reg.active = false
			for i, r := range h.listeners {
				if r == reg {
					h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
					break
				}
			}
		})
	}, nil
}

// TransitionTo moves to loc and notifies listeners with the stored location.
//
// A location without a key is stored as a keyed copy; otherwise loc itself
// is stored and delivered, so listeners see the caller's pointer.
// Transitioning to the entry that is already current (same key and path)
// is a no-op and notifies nobody.
func (h *MemoryHistory) TransitionTo(loc *ir.Location) error {
	return h.transition(loc, -1)
}

// transition applies loc. For POP, popTarget selects the entry directly;
// a negative popTarget looks the entry up by key.
func (h *MemoryHistory) transition(loc *ir.Location, popTarget int) error {
	if loc == nil {
		return ErrNilLocation
	}
	if !loc.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, loc.Action)
	}

	h.mu.Lock()
	if ir.SamePlace(h.entries[h.index], loc) {
		h.mu.Unlock()
		h.logger.Debug("history transition skipped",
			"path", loc.Path(),
			"key", loc.Key,
		)
		return nil
	}

	if loc.Key == "" {
		loc = loc.Clone()
		loc.Key = h.keys.Generate()
	}

	switch loc.Action {
	case ir.NavPush:
		h.entries = append(h.entries[:h.index+1], loc)
		h.index++
	case ir.NavReplace:
		h.entries[h.index] = loc
	case ir.NavPop:
		target := popTarget
		if target < 0 || target >= len(h.entries) {
			target = h.indexOfKey(loc.Key)
		}
		if target < 0 {
			h.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownEntry, loc.Key)
		}
		h.index = target
		h.entries[target] = loc
	}
	listeners := h.snapshotListeners()
	h.mu.Unlock()

	h.logger.Debug("history transition",
		"action", string(loc.Action),
		"path", loc.Path(),
		"key", loc.Key,
		"listeners", len(listeners),
	)

	for _, reg := range listeners {
		if !h.isActive(reg) {
			continue
		}
		if err := reg.fn(loc); err != nil {
			return err
		}
	}
	return nil
}

// GetCurrentLocation returns the current entry.
func (h *MemoryHistory) GetCurrentLocation() *ir.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push transitions to a copy of loc with the PUSH action and a fresh key.
func (h *MemoryHistory) Push(loc *ir.Location) error {
	return h.navigate(loc, ir.NavPush)
}

// Replace transitions to a copy of loc with the REPLACE action and a fresh key.
func (h *MemoryHistory) Replace(loc *ir.Location) error {
	return h.navigate(loc, ir.NavReplace)
}

func (h *MemoryHistory) navigate(loc *ir.Location, action ir.NavAction) error {
	if loc == nil {
		return ErrNilLocation
	}
	next := loc.WithAction(action)
	next.Key = h.keys.Generate()
	return h.TransitionTo(next)
}

// Go moves n entries through the stack (negative is back) with a POP.
func (h *MemoryHistory) Go(n int) error {
	if n == 0 {
		return nil
	}

	h.mu.Lock()
	target := h.index + n
	if target < 0 || target >= len(h.entries) {
		size := len(h.entries)
		h.mu.Unlock()
		return fmt.Errorf("%w: go(%d) from %d of %d", ErrOutOfRange, n, h.index, size)
	}
	next := h.entries[target].WithAction(ir.NavPop)
	h.mu.Unlock()

	return h.transition(next, target)
}

// GoBack is Go(-1).
func (h *MemoryHistory) GoBack() error {
	return h.Go(-1)
}

// GoForward is Go(1).
func (h *MemoryHistory) GoForward() error {
	return h.Go(1)
}

// Len returns the number of entries on the stack.
// Used for testing and diagnostics.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the position of the current entry.
// Used for testing and diagnostics.
func (h *MemoryHistory) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// ListenerCount returns the number of active listeners.
// Used for testing to verify cleanup.
func (h *MemoryHistory) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// indexOfKey returns the position of the entry with key, or -1.
// Caller must hold h.mu.
func (h *MemoryHistory) indexOfKey(key string) int {
	for i, e := range h.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// snapshotListeners copies the listener list. Caller must hold h.mu.
func (h *MemoryHistory) snapshotListeners() []*registration {
	out := make([]*registration, len(h.listeners))
	copy(out, h.listeners)
	return out
}

func (h *MemoryHistory) isActive(reg *registration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return reg.active
}
