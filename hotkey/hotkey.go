// Package hotkey registers OS-wide key combinations that fire even when the
// application is not focused.
package hotkey

import (
	"errors"
	"sync"

	"sharkhost/log"
)

var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Registrar is the process-wide accelerator registry.
type Registrar interface {
	// Register binds accel to fn and reports whether the OS accepted it. It
	// returns false if accel does not parse or the combination is already
	// held, by this process or another one.
	Register(accel string, fn func()) bool
	Unregister(accel string)
	UnregisterAll()
	IsRegistered(accel string) bool
}

// backend is the platform hook: it arms one combination and returns the
// function that disarms it.
type backend interface {
	bind(a Accelerator, fire func()) (unbind func(), err error)
}

type entry struct {
	raw    string
	fn     func()
	unbind func()
}

// Global is the Registrar backed by the OS.
type Global struct {
	mu      sync.Mutex
	be      backend
	entries map[Accelerator]*entry
}

func New() *Global {
	return newGlobal(newBackend())
}

func newGlobal(be backend) *Global {
	return &Global{
		be:      be,
		entries: make(map[Accelerator]*entry),
	}
}

func (g *Global) Register(accel string, fn func()) bool {
	a, err := Parse(accel)
	if err != nil {
		log.Warnf("hotkey %q rejected: %v", accel, err)
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.entries[a]; taken {
		return false
	}
	unbind, err := g.be.bind(a, func() { g.fire(a) })
	if err != nil {
		log.Warnf("hotkey %s unavailable: %v", a, err)
		return false
	}
	g.entries[a] = &entry{raw: accel, fn: fn, unbind: unbind}
	return true
}

func (g *Global) fire(a Accelerator) {
	g.mu.Lock()
	e, ok := g.entries[a]
	g.mu.Unlock()
	if ok && e.fn != nil {
		e.fn()
	}
}

func (g *Global) Unregister(accel string) {
	a, err := Parse(accel)
	if err != nil {
		return
	}
	g.mu.Lock()
	e, ok := g.entries[a]
	delete(g.entries, a)
	g.mu.Unlock()
	if ok {
		e.unbind()
	}
}

func (g *Global) UnregisterAll() {
	g.mu.Lock()
	entries := g.entries
	g.entries = make(map[Accelerator]*entry)
	g.mu.Unlock()
	for _, e := range entries {
		e.unbind()
	}
}

func (g *Global) IsRegistered(accel string) bool {
	a, err := Parse(accel)
	if err != nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[a]
	return ok
}

// Registered lists the raw spellings currently held.
func (g *Global) Registered() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e.raw)
	}
	return out
}
