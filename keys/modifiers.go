package keys

import "strings"

type Modifiers struct {
	Ctrl, Shift, Alt, Super bool
}

// ParseModifiers reads modifier names as they appear in key events.
// Unknown names are ignored.
func ParseModifiers(names []string) Modifiers {
	var m Modifiers
	for _, n := range names {
		switch strings.ToLower(n) {
		case "control", "ctrl":
			m.Ctrl = true
		case "shift":
			m.Shift = true
		case "alt", "option":
			m.Alt = true
		case "meta", "cmd", "command", "super":
			m.Super = true
		}
	}
	return m
}
