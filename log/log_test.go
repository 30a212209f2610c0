package log

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func readHostLog(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, hostLogName))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv(envLogPath, "/tmp/sharkhost-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/sharkhost-env-log" {
		t.Errorf("got %q, want /tmp/sharkhost-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv(envLogPath, "/tmp/from-env")
	got, err := ResolveDir("/tmp/from-flag")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/from-flag" {
		t.Errorf("got %q, want /tmp/from-flag", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv(envLogPath, "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty default directory")
	}
}

func TestResolveDirDefaultXDGState(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG state dir is linux only")
	}
	state := t.TempDir()
	t.Setenv(envLogPath, "")
	t.Setenv("XDG_STATE_HOME", state)
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(state, "sharkhost", "logs"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInitCreatesFile(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(tmp, hostLogName)); err != nil {
		t.Errorf("%s not created: %v", hostLogName, err)
	}
}

func TestSilentBeforeInit(t *testing.T) {
	setupLogDir(t)
	// must not panic with a zero logger
	Info("nothing")
	Warnf("nothing %d", 1)
	HotkeyAttempt("mute", "Ctrl+M", true)
}

func TestNegotiationEvent(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Negotiation(NegotiationData{
		ID:       "abc",
		Outcome:  "loopback",
		SourceID: "screen:0",
		Sources:  2,
		Elapsed:  1500 * time.Microsecond,
	})

	line := readHostLog(t, tmp)
	for _, want := range []string{"capture_negotiation", "id=abc", "outcome=loopback", "source=screen:0", "sources=2"} {
		if !strings.Contains(line, want) {
			t.Errorf("log missing %q, got: %q", want, line)
		}
	}
	if strings.Contains(line, "process=") {
		t.Errorf("empty process should be omitted, got: %q", line)
	}
}

func TestHotkeyAttemptEvent(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	HotkeyAttempt("deafen", "Control+D", false)

	line := readHostLog(t, tmp)
	for _, want := range []string{"hotkey_register", "action=deafen", "accepted=false"} {
		if !strings.Contains(line, want) {
			t.Errorf("log missing %q, got: %q", want, line)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
