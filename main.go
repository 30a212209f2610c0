package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"sharkhost/capture"
	"sharkhost/doctor"
	"sharkhost/hotkey"
	"sharkhost/keys"
	"sharkhost/log"
	"sharkhost/negotiate"
	"sharkhost/shortcut"
	"sharkhost/shutdown"
	"sharkhost/store"
	"sharkhost/tui"
)

var version = "dev"

var guiMode bool

// hooks tears the host down in reverse order of construction.
var hooks shutdown.Hooks

type bindFlags []string

func (b *bindFlags) String() string { return strings.Join(*b, ",") }

func (b *bindFlags) Set(v string) error {
	action, _, ok := strings.Cut(v, "=")
	if !ok || !store.KnownAction(action) {
		return fmt.Errorf("want mute=<accelerator> or deafen=<accelerator>, got %q", v)
	}
	*b = append(*b, v)
	return nil
}

// host holds the long-lived services shared by every run mode.
type host struct {
	store       *store.File
	registrar   hotkey.Registrar
	dispatcher  *shortcut.Dispatcher
	coordinator *negotiate.Coordinator
}

type hostConfig struct {
	configDir string
	builtins  bool
	loopback  bool
	registrar hotkey.Registrar
	forwarder shortcut.Forwarder
	mirror    shortcut.Mirror
	enum      capture.Enumerator
	surfaces  negotiate.SurfaceFactory
}

func newHost(cfg hostConfig) *host {
	h := &host{
		store:     store.New(cfg.configDir),
		registrar: cfg.registrar,
	}
	h.dispatcher = shortcut.New(shortcut.Config{
		Registrar: cfg.registrar,
		Store:     h.store,
		Forwarder: cfg.forwarder,
		Mirror:    cfg.mirror,
		Builtins:  cfg.builtins,
	})
	h.coordinator = negotiate.New(cfg.enum, cfg.surfaces, negotiate.Options{Loopback: cfg.loopback})
	return h
}

// start registers hotkeys and the teardown steps that undo it.
func (h *host) start(binds []string) {
	b := h.dispatcher.Start()
	log.Infof("hotkeys loaded from %s: mute=%q deafen=%q", h.store.Path(), b.Mute, b.Deafen)

	for _, kv := range binds {
		action, accel, _ := strings.Cut(kv, "=")
		if _, err := h.dispatcher.SetBinding(action, accel); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	hooks.Add("hotkeys", h.dispatcher.Shutdown)
	hooks.Add("negotiations", h.coordinator.Shutdown)
}

// initCrashLog routes Go runtime crashes to crash_log.txt before any cgo
// code runs. The log directory is resolved from the raw arguments since
// flags are not parsed yet.
func initCrashLog() {
	flagPath := ""
	args := os.Args[1:]
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-logpath="), strings.HasPrefix(arg, "--logpath="):
			_, flagPath, _ = strings.Cut(arg, "=")
		case (arg == "-logpath" || arg == "--logpath") && i+1 < len(args):
			flagPath = args[i+1]
		}
	}

	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		return
	}
	crashFile, err := os.OpenFile(log.CrashPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// wantsGUI scans the raw arguments for -gui, which has to be known before
// flag parsing decides who owns the main thread.
func wantsGUI() bool {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-gui", "--gui", "-gui=true", "--gui=true":
			return true
		}
	}
	return false
}

func run() {
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	configFlag := flag.String("config", "", "config directory for hotkeys.json (default: OS user config dir)")
	flag.Bool("gui", false, "Run with the desktop window (requires -tags gui)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	pickFlag := flag.Bool("pick", false, "Negotiate one capture source in the terminal, print it as JSON and exit")
	loopbackFlag := flag.Bool("loopback", true, "Grant system audio loopback when no audio process is chosen")
	builtinFlag := flag.Bool("builtins", true, "Bind the default Ctrl+M / Ctrl+D spellings when nothing is saved")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	var binds bindFlags
	flag.Var(&binds, "bind", "Save a binding, e.g. -bind mute=Ctrl+Shift+M (repeatable, empty accelerator unbinds)")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	configDir, err := store.ResolveDir(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve config directory: %v\n", err)
		os.Exit(1)
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("sharkhost %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		doctor.InterruptExits()
		os.Exit(doctor.Run(doctor.Config{
			Registrar:  hotkey.New(),
			Enumerator: capture.Platform(nil),
			ConfigDir:  configDir,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	hooks.Add("log", func() {
		log.SessionEnd()
		log.Close()
	})

	switch {
	case *testFlag:
		log.SessionStart("test")
		runTestMode(configDir, *loopbackFlag, *builtinFlag)
	case *pickFlag:
		log.SessionStart("pick")
		os.Exit(runPick(*loopbackFlag))
	case guiMode:
		log.SessionStart("gui")
		runGUI(configDir, *loopbackFlag, *builtinFlag, binds)
	default:
		log.SessionStart("daemon")
		runDaemon(configDir, *loopbackFlag, *builtinFlag, binds)
	}
}

func runDaemon(configDir string, loopback, builtins bool, binds []string) {
	injector := keys.NewInjector()
	if err := injector.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: virtual keyboard unavailable: %v\n", err)
		fmt.Fprintln(os.Stderr, "Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
	}

	h := newHost(hostConfig{
		configDir: configDir,
		builtins:  builtins,
		loopback:  loopback,
		registrar: hotkey.New(),
		forwarder: injector,
		mirror:    store.NewKV(configDir),
		enum:      capture.Platform(nil),
		surfaces:  tui.Factory,
	})
	h.start(binds)

	fmt.Printf("sharkhost %s running (mute: %s, deafen: %s). Ctrl+C to quit.\n",
		version, boundOr(h, store.ActionMute), boundOr(h, store.ActionDeafen))

	trigger, how := shareTrigger()
	if trigger != nil {
		fmt.Printf("Choose a capture source with: %s\n", how)
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	serveShares(ctx, trigger, h.coordinator, func(o capture.Outcome) {
		fmt.Printf("capture: %s\n", o)
	})
	hooks.Run()
}

// serveShares opens one negotiation per trigger until ctx is done.
// Triggers arriving while a chooser is open are dropped.
func serveShares(ctx context.Context, trigger <-chan os.Signal, coord *negotiate.Coordinator, report func(capture.Outcome)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			if coord.Pending() > 0 {
				log.Warn("capture request ignored: a chooser is already open")
				continue
			}
			coord.Handle(ctx, negotiate.Resolver(report))
		}
	}
}

func boundOr(h *host, action string) string {
	if a := h.dispatcher.Bound(action); a != "" {
		return a
	}
	return "unbound"
}

type pickedSource struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind capture.Kind `json:"kind"`
}

type pickResult struct {
	Video     *pickedSource     `json:"video"`
	Audio     capture.AudioMode `json:"audio"`
	ProcessID string            `json:"processId,omitempty"`
}

func runPick(loopback bool) int {
	coord := negotiate.New(capture.Platform(nil), tui.Factory, negotiate.Options{Loopback: loopback})
	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	o := coord.Negotiate(ctx)
	hooks.Run()

	res := pickResult{Audio: o.Audio.Mode, ProcessID: o.Audio.ProcessID}
	if !o.IsNone() {
		res.Video = &pickedSource{ID: o.Video.ID, Name: o.Video.Name, Kind: o.Video.Kind}
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if o.IsNone() {
		return 1
	}
	return 0
}

func quitOnSignal(quit func()) {
	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	<-ctx.Done()
	quit()
}
