//go:build darwin || windows

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var xKeys = map[Key]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
	"Space": hotkey.KeySpace, "Enter": hotkey.KeyReturn, "Escape": hotkey.KeyEscape,
	"Tab": hotkey.KeyTab, "Delete": hotkey.KeyDelete,
	"Up": hotkey.KeyUp, "Down": hotkey.KeyDown, "Left": hotkey.KeyLeft, "Right": hotkey.KeyRight,
}

// xBackend uses golang.design/x/hotkey (Cocoa/Win32), which reports a
// registration conflict with another application as an error.
type xBackend struct{}

func newBackend() backend {
	return xBackend{}
}

func (xBackend) bind(a Accelerator, fire func()) (func(), error) {
	key, ok := xKeys[a.Key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedKey, a.Key)
	}
	var mods []hotkey.Modifier
	for _, m := range modifierOrder {
		if a.Has(m.mod) {
			mods = append(mods, modifierMap[m.mod])
		}
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-hk.Keydown():
				fire()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			hk.Unregister()
		})
	}, nil
}

func Diagnose() (string, error) {
	hk := hotkey.New([]hotkey.Modifier{modifierMap[ModCtrl], modifierMap[ModShift]}, hotkey.KeyF12)
	if err := hk.Register(); err != nil {
		return "", fmt.Errorf("cannot register a probe hotkey: %w", err)
	}
	hk.Unregister()
	return "hotkey support available", nil
}
