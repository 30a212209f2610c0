//go:build linux || darwin || windows

// Package keys forwards synthetic key events to whatever window has OS
// focus. The headless host uses it as its primary surface.
package keys

import (
	"fmt"
	"strings"
	"sync"

	"github.com/micmonay/keybd_event"

	"sharkhost/shortcut"
)

var vkCodes = map[string]int{
	"A": keybd_event.VK_A, "B": keybd_event.VK_B, "C": keybd_event.VK_C, "D": keybd_event.VK_D,
	"E": keybd_event.VK_E, "F": keybd_event.VK_F, "G": keybd_event.VK_G, "H": keybd_event.VK_H,
	"I": keybd_event.VK_I, "J": keybd_event.VK_J, "K": keybd_event.VK_K, "L": keybd_event.VK_L,
	"M": keybd_event.VK_M, "N": keybd_event.VK_N, "O": keybd_event.VK_O, "P": keybd_event.VK_P,
	"Q": keybd_event.VK_Q, "R": keybd_event.VK_R, "S": keybd_event.VK_S, "T": keybd_event.VK_T,
	"U": keybd_event.VK_U, "V": keybd_event.VK_V, "W": keybd_event.VK_W, "X": keybd_event.VK_X,
	"Y": keybd_event.VK_Y, "Z": keybd_event.VK_Z,
	"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2, "3": keybd_event.VK_3,
	"4": keybd_event.VK_4, "5": keybd_event.VK_5, "6": keybd_event.VK_6, "7": keybd_event.VK_7,
	"8": keybd_event.VK_8, "9": keybd_event.VK_9,
	"F1": keybd_event.VK_F1, "F2": keybd_event.VK_F2, "F3": keybd_event.VK_F3, "F4": keybd_event.VK_F4,
	"F5": keybd_event.VK_F5, "F6": keybd_event.VK_F6, "F7": keybd_event.VK_F7, "F8": keybd_event.VK_F8,
	"F9": keybd_event.VK_F9, "F10": keybd_event.VK_F10, "F11": keybd_event.VK_F11, "F12": keybd_event.VK_F12,
	"SPACE": keybd_event.VK_SPACE,
}

// Injector is a shortcut.Forwarder backed by the OS virtual keyboard.
type Injector struct {
	mu    sync.Mutex
	once  sync.Once
	kb    keybd_event.KeyBonding
	kbErr error
}

func NewInjector() *Injector {
	return &Injector{}
}

func (in *Injector) Init() error {
	in.once.Do(func() {
		in.kb, in.kbErr = keybd_event.NewKeyBonding()
	})
	return in.kbErr
}

func (in *Injector) SendInputEvent(ev shortcut.KeyEvent) error {
	vk, ok := vkCodes[strings.ToUpper(ev.KeyCode)]
	if !ok {
		return fmt.Errorf("no virtual key for %q", ev.KeyCode)
	}
	if err := in.Init(); err != nil {
		return fmt.Errorf("virtual keyboard: %w", err)
	}
	m := ParseModifiers(ev.Modifiers)

	in.mu.Lock()
	defer in.mu.Unlock()
	in.kb.Clear()
	in.kb.SetKeys(vk)
	in.kb.HasCTRL(m.Ctrl)
	in.kb.HasSHIFT(m.Shift)
	in.kb.HasALT(m.Alt)
	in.kb.HasSuper(m.Super)

	switch ev.Type {
	case shortcut.KeyDown:
		return in.kb.Press()
	case shortcut.KeyUp:
		return in.kb.Release()
	}
	return fmt.Errorf("unknown key event type %q", ev.Type)
}
