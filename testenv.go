package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sharkhost/capture"
	"sharkhost/hotkey"
	"sharkhost/log"
	"sharkhost/negotiate"
	"sharkhost/shortcut"
	"sharkhost/store"
)

var testCatalog = capture.Catalog{
	Sources: []capture.Source{
		{ID: "screen:0", Name: "Entire screen", Kind: capture.KindScreen, Thumbnail: capture.Placeholder(1920, 1080)},
		{ID: "window:0x1", Name: "Editor", Kind: capture.KindWindow},
	},
	AudioProcesses: []capture.AudioProcess{{ID: "4242", Label: "Music"}},
}

// runTestMode drives the host from stdin with fake OS integrations. Each
// command prints what the host did, one line per effect.
func runTestMode(configDir string, loopback, builtins bool) {
	reg := hotkey.NewFake()
	rec := shortcut.NewRecorder()
	surfaces := negotiate.NewFakeFactory()

	h := newHost(hostConfig{
		configDir: configDir,
		builtins:  builtins,
		loopback:  loopback,
		registrar: reg,
		forwarder: rec,
		mirror:    rec,
		enum:      capture.StaticEnumerator{Catalog: testCatalog},
		surfaces:  surfaces.Make,
	})
	h.start(nil)
	printBindings(h)

	var (
		current *negotiate.FakeSurface
		seen    int
	)
	outcomes := make(chan capture.Outcome, 8)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		arg := func(i int) string {
			if i < len(fields) {
				return fields[i]
			}
			return ""
		}

		switch fields[0] {
		case "CAPTURE":
			h.coordinator.Handle(context.Background(), func(o capture.Outcome) { outcomes <- o })
			select {
			case current = <-surfaces.Made():
				<-current.Shown()
				fmt.Println("SURFACE", len(current.Pushed()[0].Sources))
			case o := <-outcomes:
				fmt.Println("OUTCOME", o)
			}
		case "SELECT", "CANCEL", "CLOSE":
			if current == nil {
				fmt.Println("ERROR no surface")
				continue
			}
			switch fields[0] {
			case "SELECT":
				current.SimSelect(arg(1), arg(2))
			case "CANCEL":
				current.SimCancel()
			case "CLOSE":
				current.SimClosed()
			}
			select {
			case o := <-outcomes:
				fmt.Println("OUTCOME", o)
			case <-time.After(time.Second):
				fmt.Println("OUTCOME ignored")
			}
		case "FIRE":
			if !reg.Fire(arg(1)) {
				fmt.Println("UNBOUND", arg(1))
				continue
			}
			events := rec.Events()
			if len(events) == seen {
				fmt.Println("DEBOUNCED", arg(1))
			}
			for _, ev := range events[seen:] {
				fmt.Println("FORWARD", ev.Type, ev.KeyCode, strings.Join(ev.Modifiers, "+"))
			}
			seen = len(events)
		case "TAKE":
			reg.Take(arg(1))
		case "SET":
			accel := arg(2)
			if accel == "-" {
				accel = ""
			}
			if _, err := h.dispatcher.SetBinding(arg(1), accel); err != nil {
				fmt.Println("ERROR", err)
				continue
			}
			printBindings(h)
		case "RESTART":
			h.dispatcher.Start()
			printBindings(h)
		case "SLEEP":
			if ms, err := strconv.Atoi(arg(1)); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			hooks.Run()
			os.Exit(0)
		default:
			log.Warnf("test mode: unknown command %q", fields[0])
		}
	}
	hooks.Run()
}

func printBindings(h *host) {
	fmt.Printf("BOUND mute=%s deafen=%s\n", boundOr(h, store.ActionMute), boundOr(h, store.ActionDeafen))
}
