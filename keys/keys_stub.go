//go:build !linux && !darwin && !windows

package keys

import (
	"errors"

	"sharkhost/shortcut"
)

type Injector struct{}

func NewInjector() *Injector { return &Injector{} }

func (*Injector) Init() error { return errors.New("virtual keyboard not supported on this platform") }

func (in *Injector) SendInputEvent(shortcut.KeyEvent) error { return in.Init() }
