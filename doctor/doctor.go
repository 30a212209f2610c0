package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"sharkhost/capture"
	"sharkhost/hotkey"
	"sharkhost/shortcut"
	"sharkhost/shutdown"
	"sharkhost/store"
)

type Config struct {
	Registrar  hotkey.Registrar
	Enumerator capture.Enumerator
	ConfigDir  string
	Specs      []shortcut.Spec // nil means shortcut.DefaultSpecs
	Diagnose   func() (string, error)
	Out        io.Writer
}

const checks = 4

// Run executes the diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg Config) int {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Specs == nil {
		cfg.Specs = shortcut.DefaultSpecs()
	}
	if cfg.Diagnose == nil {
		cfg.Diagnose = hotkey.Diagnose
	}
	w := cfg.Out

	fmt.Fprintln(w, "sharkhost doctor - system diagnostics")
	fmt.Fprintln(w, "=====================================")

	allPass := true
	for i, check := range []func(Config) bool{checkInput, checkHotkeys, checkSources, checkConfigDir} {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%d/%d] ", i+1, checks)
		if !check(cfg) {
			allPass = false
		}
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

func checkInput(cfg Config) bool {
	fmt.Fprintln(cfg.Out, "Keyboard access")
	msg, err := cfg.Diagnose()
	if err != nil {
		fmt.Fprintf(cfg.Out, "  FAIL: %v\n", err)
		return false
	}
	fmt.Fprintf(cfg.Out, "  PASS: %s\n", msg)
	return true
}

func checkHotkeys(cfg Config) bool {
	fmt.Fprintln(cfg.Out, "Default hotkey registration")
	pass := true
	for _, spec := range cfg.Specs {
		accepted := ""
		for _, accel := range spec.Defaults {
			if cfg.Registrar.Register(accel, func() {}) {
				cfg.Registrar.Unregister(accel)
				accepted = accel
				break
			}
		}
		if accepted == "" {
			fmt.Fprintf(cfg.Out, "  FAIL: %s: none of %v could be registered\n", spec.Action, spec.Defaults)
			pass = false
			continue
		}
		fmt.Fprintf(cfg.Out, "  PASS: %s -> %s\n", spec.Action, accepted)
	}
	return pass
}

func checkSources(cfg Config) bool {
	fmt.Fprintln(cfg.Out, "Capture sources")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cat, err := cfg.Enumerator.Enumerate(ctx)
	if err != nil {
		fmt.Fprintf(cfg.Out, "  FAIL: %v\n", err)
		return false
	}
	if cat.Empty() {
		fmt.Fprintln(cfg.Out, "  FAIL: no screens or windows found")
		return false
	}
	for _, s := range cat.Sources {
		fmt.Fprintf(cfg.Out, "  %-8s %-24s %s\n", s.Kind, s.ID, s.Name)
	}
	fmt.Fprintf(cfg.Out, "  PASS: %d source(s), %d audio process(es)\n", len(cat.Sources), len(cat.AudioProcesses))
	return true
}

func checkConfigDir(cfg Config) bool {
	fmt.Fprintln(cfg.Out, "Hotkey storage")
	dir := filepath.Join(cfg.ConfigDir, ".doctor")
	defer os.RemoveAll(dir)

	f := store.New(dir)
	want := store.Bindings{Mute: "Ctrl+Shift+M", Deafen: "Ctrl+Shift+D"}
	if err := f.Save(want); err != nil {
		fmt.Fprintf(cfg.Out, "  FAIL: %v\n", err)
		return false
	}
	if got := f.Load(); got != want {
		fmt.Fprintf(cfg.Out, "  FAIL: read back %+v\n", got)
		return false
	}
	fmt.Fprintf(cfg.Out, "  PASS: %s is writable\n", cfg.ConfigDir)
	return true
}

// InterruptExits makes Ctrl+C abort a running diagnosis.
func InterruptExits() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
