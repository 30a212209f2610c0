// Package shutdown turns termination signals into an ordered teardown.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"sharkhost/log"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// Context is cancelled on the first termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Hooks runs teardown steps once, last added first.
type Hooks struct {
	mu    sync.Mutex
	steps []step
	once  sync.Once
}

type step struct {
	name string
	fn   func()
}

func (h *Hooks) Add(name string, fn func()) {
	h.mu.Lock()
	h.steps = append(h.steps, step{name, fn})
	h.mu.Unlock()
}

func (h *Hooks) Run() {
	h.once.Do(func() {
		h.mu.Lock()
		steps := h.steps
		h.mu.Unlock()
		for i := len(steps) - 1; i >= 0; i-- {
			log.Infof("shutdown: %s", steps[i].name)
			run(steps[i])
		}
	})
}

func run(s step) {
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("shutdown step %s panicked: %v", s.name, p)
		}
	}()
	s.fn()
}
