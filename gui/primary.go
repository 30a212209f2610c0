//go:build gui

package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"sharkhost/shortcut"
)

func keyModifiers(names []string) fyne.KeyModifier {
	var m fyne.KeyModifier
	for _, n := range names {
		switch strings.ToLower(n) {
		case "control", "ctrl":
			m |= fyne.KeyModifierControl
		case "shift":
			m |= fyne.KeyModifierShift
		case "alt", "option":
			m |= fyne.KeyModifierAlt
		case "meta", "cmd", "command", "super":
			m |= fyne.KeyModifierSuper
		}
	}
	return m
}

// SendInputEvent delivers a synthetic key event to the primary window as
// if it had been typed there. Key-down with modifiers is routed as a
// shortcut: to the window's own handlers, else to the focused widget.
func (a *App) SendInputEvent(ev shortcut.KeyEvent) error {
	if a.window == nil {
		return fmt.Errorf("primary window not ready")
	}
	name := fyne.KeyName(ev.KeyCode)
	mods := keyModifiers(ev.Modifiers)

	fyne.Do(func() {
		c := a.window.Canvas()
		dc, _ := c.(desktop.Canvas)

		switch ev.Type {
		case shortcut.KeyDown:
			if dc != nil {
				if fn := dc.OnKeyDown(); fn != nil {
					fn(&fyne.KeyEvent{Name: name})
				}
			}
			if mods == 0 {
				return
			}
			sc := &desktop.CustomShortcut{KeyName: name, Modifier: mods}
			if fn, ok := a.shortcuts[sc.ShortcutName()]; ok {
				fn()
				return
			}
			if target, ok := c.Focused().(fyne.Shortcutable); ok {
				target.TypedShortcut(sc)
			}
		case shortcut.KeyUp:
			if dc != nil {
				if fn := dc.OnKeyUp(); fn != nil {
					fn(&fyne.KeyEvent{Name: name})
				}
			}
		}
	})
	return nil
}
