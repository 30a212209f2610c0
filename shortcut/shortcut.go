// Package shortcut turns global hotkeys into key events for the primary UI
// surface and keeps the user's mute/deafen bindings registered and saved.
package shortcut

import (
	"fmt"
	"sync"
	"time"

	"sharkhost/hotkey"
	"sharkhost/log"
	"sharkhost/store"
)

// DebounceWindow collapses repeated firings of one accelerator, such as OS
// key auto-repeat.
const DebounceWindow = 300 * time.Millisecond

const (
	KeyDown = "keyDown"
	KeyUp   = "keyUp"
)

// KeyEvent is a synthetic key event delivered to the primary surface.
type KeyEvent struct {
	Type      string   `json:"type"`
	KeyCode   string   `json:"keyCode"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// Forwarder delivers synthetic key events to the primary surface.
type Forwarder interface {
	SendInputEvent(KeyEvent) error
}

// Mirror is the primary surface's local key-value storage.
type Mirror interface {
	SetItem(key, value string) error
}

// Target is the key a hotkey forwards when it fires.
type Target struct {
	KeyCode   string
	Modifiers []string
}

// Spec describes one bindable action.
type Spec struct {
	Action   string
	Forward  Target
	Defaults []string
}

// DefaultSpecs returns mute (M) and deafen (D), each forwarded with the
// control modifier and defaulting to the common spellings of Ctrl+<key>.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Action:   store.ActionMute,
			Forward:  Target{KeyCode: "M", Modifiers: []string{"control"}},
			Defaults: []string{"Control+M", "Ctrl+M", "CommandOrControl+M"},
		},
		{
			Action:   store.ActionDeafen,
			Forward:  Target{KeyCode: "D", Modifiers: []string{"control"}},
			Defaults: []string{"Control+D", "Ctrl+D", "CommandOrControl+D"},
		},
	}
}

type Config struct {
	Registrar hotkey.Registrar
	Store     store.Store
	Forwarder Forwarder
	Mirror    Mirror // optional
	Specs     []Spec // nil means DefaultSpecs
	// Builtins binds each action's Defaults when nothing is persisted.
	Builtins bool
	Now      func() time.Time
}

type Dispatcher struct {
	reg      hotkey.Registrar
	store    store.Store
	fwd      Forwarder
	mirror   Mirror
	specs    map[string]Spec
	order    []string
	builtins bool
	now      func() time.Time

	// bindMu serializes operations that talk to the registrar so that mu
	// is never held across a Register call.
	bindMu sync.Mutex

	mu        sync.Mutex
	bindings  store.Bindings
	bound     map[string]string // action -> accepted accelerator
	extra     map[string]bool   // accelerators registered through Register
	lastFired map[string]time.Time
}

func New(cfg Config) *Dispatcher {
	specs := cfg.Specs
	if specs == nil {
		specs = DefaultSpecs()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	d := &Dispatcher{
		reg:       cfg.Registrar,
		store:     cfg.Store,
		fwd:       cfg.Forwarder,
		mirror:    cfg.Mirror,
		specs:     make(map[string]Spec, len(specs)),
		builtins:  cfg.Builtins,
		now:       now,
		bound:     make(map[string]string),
		extra:     make(map[string]bool),
		lastFired: make(map[string]time.Time),
	}
	for _, s := range specs {
		d.specs[s.Action] = s
		d.order = append(d.order, s.Action)
	}
	return d
}

// Start loads the persisted bindings and registers every action. Calling it
// again re-applies the stored state from scratch.
func (d *Dispatcher) Start() store.Bindings {
	b := d.store.Load()

	d.UnregisterAll()
	d.mu.Lock()
	d.bindings = b
	d.mu.Unlock()

	for _, action := range d.order {
		candidates := d.candidates(action, b.Get(action))
		if len(candidates) == 0 {
			continue
		}
		d.BindAction(action, candidates)
	}
	return b
}

func (d *Dispatcher) candidates(action, persisted string) []string {
	if persisted != "" {
		return []string{persisted}
	}
	if d.builtins {
		return d.specs[action].Defaults
	}
	return nil
}

// Shutdown releases every accelerator this dispatcher registered.
func (d *Dispatcher) Shutdown() {
	d.UnregisterAll()
	log.Info("hotkeys released")
}

// BindAction tries candidates in order and keeps the first one the OS
// accepts. Later candidates are not attempted once one succeeds.
func (d *Dispatcher) BindAction(action string, candidates []string) (string, bool) {
	spec, ok := d.specs[action]
	if !ok {
		return "", false
	}

	d.bindMu.Lock()
	defer d.bindMu.Unlock()

	tried := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == "" || tried[c] {
			continue
		}
		tried[c] = true

		accepted := d.reg.Register(c, d.handler(c, spec.Forward))
		log.HotkeyAttempt(action, c, accepted)
		if accepted {
			d.mu.Lock()
			d.bound[action] = c
			d.mu.Unlock()
			return c, true
		}
	}

	log.Warnf("no accelerator could be registered for %s (tried %d)", action, len(tried))
	d.mu.Lock()
	delete(d.bound, action)
	d.mu.Unlock()
	return "", false
}

// SetBinding replaces the accelerator for action, persists the new value
// and mirrors it into the primary surface's storage. An empty accel unbinds.
// A binding the OS refuses is still saved; Bound reports what is live.
func (d *Dispatcher) SetBinding(action, accel string) (store.Bindings, error) {
	if _, ok := d.specs[action]; !ok || !store.KnownAction(action) {
		return d.Bindings(), fmt.Errorf("unknown action %q", action)
	}

	d.mu.Lock()
	prev := d.bound[action]
	delete(d.bound, action)
	d.mu.Unlock()
	if prev != "" {
		d.reg.Unregister(prev)
	}

	if accel != "" {
		d.BindAction(action, []string{accel})
	}

	d.mu.Lock()
	d.bindings = d.bindings.With(action, accel)
	b := d.bindings
	d.mu.Unlock()

	if err := d.store.Save(b); err != nil {
		log.Errorf("save hotkeys: %v", err)
		return b, fmt.Errorf("persist bindings: %w", err)
	}

	if d.mirror != nil {
		if err := d.mirror.SetItem(store.StorageKey(action), accel); err != nil {
			log.Warnf("mirror %s binding to surface storage: %v", action, err)
		}
	}
	return b, nil
}

// Bindings returns the cached persisted bindings.
func (d *Dispatcher) Bindings() store.Bindings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bindings
}

// Bound returns the accelerator currently registered for action, if any.
func (d *Dispatcher) Bound(action string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound[action]
}

// Register binds an arbitrary accelerator that forwards target.
func (d *Dispatcher) Register(accel string, target Target) bool {
	d.bindMu.Lock()
	defer d.bindMu.Unlock()

	ok := d.reg.Register(accel, d.handler(accel, target))
	log.HotkeyAttempt("", accel, ok)
	if ok {
		d.mu.Lock()
		d.extra[accel] = true
		d.mu.Unlock()
	}
	return ok
}

func (d *Dispatcher) Unregister(accel string) {
	d.bindMu.Lock()
	defer d.bindMu.Unlock()

	d.reg.Unregister(accel)
	canon := hotkey.Canonical(accel)

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.extra, accel)
	delete(d.lastFired, accel)
	for action, a := range d.bound {
		if hotkey.Canonical(a) == canon {
			delete(d.bound, action)
		}
	}
}

func (d *Dispatcher) UnregisterAll() {
	d.bindMu.Lock()
	defer d.bindMu.Unlock()

	d.reg.UnregisterAll()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound = make(map[string]string)
	d.extra = make(map[string]bool)
	d.lastFired = make(map[string]time.Time)
}

func (d *Dispatcher) handler(raw string, target Target) func() {
	return func() { d.fire(raw, target) }
}

func (d *Dispatcher) fire(raw string, target Target) {
	now := d.now()

	d.mu.Lock()
	last, seen := d.lastFired[raw]
	if seen && now.Sub(last) < DebounceWindow {
		d.mu.Unlock()
		log.HotkeyFired(raw, true)
		return
	}
	d.lastFired[raw] = now
	d.mu.Unlock()

	log.HotkeyFired(raw, false)
	d.forward(target)
}

func (d *Dispatcher) forward(target Target) {
	if d.fwd == nil {
		return
	}
	for _, typ := range []string{KeyDown, KeyUp} {
		ev := KeyEvent{Type: typ, KeyCode: target.KeyCode, Modifiers: target.Modifiers}
		if err := d.fwd.SendInputEvent(ev); err != nil {
			log.Warnf("forward %s %s: %v", typ, target.KeyCode, err)
			return
		}
	}
}
