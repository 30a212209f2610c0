package hotkey

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModShift, "Shift"},
	{ModAlt, "Alt"},
	{ModSuper, "Super"},
}

// Key is the canonical name of a non-modifier key, e.g. "M", "F5", "Space".
type Key string

var (
	ErrEmpty          = errors.New("empty accelerator")
	ErrUnsupportedKey = errors.New("unsupported key")
	ErrNoKey          = errors.New("accelerator has no key")
)

// CommandOrControl resolves to Cmd on macOS and Ctrl elsewhere.
var CommandOrControl = func() Modifier {
	if runtime.GOOS == "darwin" {
		return ModSuper
	}
	return ModCtrl
}()

// Accelerator is a parsed key combination. Two spellings of the same
// combination parse to equal values.
type Accelerator struct {
	Mods Modifier
	Key  Key
}

func (a Accelerator) Has(m Modifier) bool {
	return a.Mods&m != 0
}

func (a Accelerator) String() string {
	var parts []string
	for _, m := range modifierOrder {
		if a.Has(m.mod) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, string(a.Key)), "+")
}

func modifierByName(name string) (Modifier, bool) {
	switch name {
	case "control", "ctrl":
		return ModCtrl, true
	case "shift":
		return ModShift, true
	case "alt", "option", "altgr":
		return ModAlt, true
	case "super", "meta", "cmd", "command", "win":
		return ModSuper, true
	case "commandorcontrol", "cmdorctrl":
		return CommandOrControl, true
	}
	return 0, false
}

var keyAliases = map[string]Key{
	"space":  "Space",
	"enter":  "Enter",
	"return": "Enter",
	"esc":    "Escape",
	"escape": "Escape",
	"tab":    "Tab",
	"delete": "Delete",
	"del":    "Delete",
	"up":     "Up",
	"down":   "Down",
	"left":   "Left",
	"right":  "Right",
}

func keyByName(name string) (Key, bool) {
	if k, ok := keyAliases[name]; ok {
		return k, true
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Key(strings.ToUpper(name)), true
		case c >= '0' && c <= '9':
			return Key(name), true
		}
		return "", false
	}
	if name[0] == 'f' {
		n, err := strconv.Atoi(name[1:])
		if err == nil && n >= 1 && n <= 12 && strconv.Itoa(n) == name[1:] {
			return Key("F" + name[1:]), true
		}
	}
	return "", false
}

// Parse reads an accelerator such as "CommandOrControl+Shift+M".
// Names are case-insensitive and exactly one non-modifier key is required.
func Parse(s string) (Accelerator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Accelerator{}, ErrEmpty
	}

	var a Accelerator
	for _, tok := range strings.Split(s, "+") {
		name := strings.ToLower(strings.TrimSpace(tok))
		if name == "" {
			return Accelerator{}, fmt.Errorf("%q: empty segment", s)
		}
		if m, ok := modifierByName(name); ok {
			a.Mods |= m
			continue
		}
		k, ok := keyByName(name)
		if !ok {
			return Accelerator{}, fmt.Errorf("%q: %w %q", s, ErrUnsupportedKey, tok)
		}
		if a.Key != "" {
			return Accelerator{}, fmt.Errorf("%q: more than one key", s)
		}
		a.Key = k
	}
	if a.Key == "" {
		return Accelerator{}, fmt.Errorf("%q: %w", s, ErrNoKey)
	}
	return a, nil
}

// Canonical returns the canonical spelling of s, or s unchanged when it
// does not parse.
func Canonical(s string) string {
	a, err := Parse(s)
	if err != nil {
		return s
	}
	return a.String()
}
