package hotkey

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Control+M", "Ctrl+M"},
		{"Ctrl+M", "Ctrl+M"},
		{"ctrl+shift+m", "Ctrl+Shift+M"},
		{"Shift+Ctrl+M", "Ctrl+Shift+M"},
		{"Alt+F4", "Alt+F4"},
		{"Option+1", "Alt+1"},
		{"Cmd+Space", "Super+Space"},
		{"Meta+Return", "Super+Enter"},
		{"Esc", "Escape"},
		{" Ctrl + F12 ", "Ctrl+F12"},
		{"Super+Shift+Delete", "Shift+Super+Delete"},
	}
	for _, tt := range tests {
		a, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got := a.String(); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"Ctrl+Shift", ErrNoKey},
		{"Ctrl+F13", ErrUnsupportedKey},
		{"Ctrl+F01", ErrUnsupportedKey},
		{"Hyper+M", ErrUnsupportedKey},
		{"Ctrl+PageUp", ErrUnsupportedKey},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}

	for _, in := range []string{"Ctrl++M", "Ctrl+M+N", "+M"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestCommandOrControl(t *testing.T) {
	orig := CommandOrControl
	t.Cleanup(func() { CommandOrControl = orig })

	CommandOrControl = ModCtrl
	a, err := Parse("CommandOrControl+M")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Parse("Control+M")
	if a != b {
		t.Errorf("CommandOrControl+M = %v, want %v", a, b)
	}

	CommandOrControl = ModSuper
	a, _ = Parse("CmdOrCtrl+M")
	if a.String() != "Super+M" {
		t.Errorf("got %q, want Super+M", a)
	}
}

func TestCanonical(t *testing.T) {
	if got := Canonical("control+d"); got != "Ctrl+D" {
		t.Errorf("got %q", got)
	}
	if got := Canonical("not a key"); got != "not a key" {
		t.Errorf("unparseable input should pass through, got %q", got)
	}
}
