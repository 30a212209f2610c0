package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	appName      = "sharkhost"
	hostLogName  = "host_log.txt"
	crashLogName = "crash_log.txt"
	envLogPath   = "SHARKHOST_LOG_PATH"
)

var (
	hostLog  zerolog.Logger
	hostFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: SHARKHOST_LOG_PATH environment variable
	if envPath := os.Getenv(envLogPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return defaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// CrashPath is where the Go runtime writes fatal errors and panics.
func CrashPath() string {
	return filepath.Join(dir, crashLogName)
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	hostFile, err = os.OpenFile(filepath.Join(dir, hostLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        hostFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	hostLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if hostFile != nil {
		hostFile.Close()
		hostFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		hostLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		hostLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		hostLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		hostLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		hostLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		hostLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// NegotiationData describes how a single capture request ended.
type NegotiationData struct {
	ID        string
	Outcome   string // "none", "loopback", "process", "video"
	Reason    string
	SourceID  string
	ProcessID string
	Sources   int
	Processes int
	Elapsed   time.Duration
}

func Negotiation(d NegotiationData) {
	if !logReady {
		return
	}
	ev := hostLog.Info().
		Str("id", d.ID).
		Str("outcome", d.Outcome).
		Int("sources", d.Sources).
		Int("processes", d.Processes).
		Float64("elapsed_ms", float64(d.Elapsed.Microseconds())/1000)
	if d.Reason != "" {
		ev = ev.Str("reason", d.Reason)
	}
	if d.SourceID != "" {
		ev = ev.Str("source", d.SourceID)
	}
	if d.ProcessID != "" {
		ev = ev.Str("process", d.ProcessID)
	}
	ev.Msg("capture_negotiation")
}

func HotkeyAttempt(action, accelerator string, accepted bool) {
	if !logReady {
		return
	}
	hostLog.Info().
		Str("action", action).
		Str("accelerator", accelerator).
		Bool("accepted", accepted).
		Msg("hotkey_register")
}

func HotkeyFired(accelerator string, debounced bool) {
	if !logReady {
		return
	}
	hostLog.Debug().
		Str("accelerator", accelerator).
		Bool("debounced", debounced).
		Msg("hotkey_fired")
}

func BindingsSaved(path, mute, deafen string) {
	if !logReady {
		return
	}
	hostLog.Info().
		Str("path", path).
		Str("mute", mute).
		Str("deafen", deafen).
		Msg("hotkeys_saved")
}

func SessionStart(mode string) {
	if !logReady {
		return
	}
	hostLog.Info().Str("mode", mode).Msg("session_start")
}

func SessionEnd() {
	if !logReady {
		return
	}
	hostLog.Info().Msg("session_end")
}
