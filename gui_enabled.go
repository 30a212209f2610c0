//go:build gui

package main

import (
	"runtime"

	"sharkhost/capture"
	"sharkhost/gui"
	"sharkhost/hotkey"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func(*gui.App) {
		run()
	})
	err := gui.Run(guiApp)
	hooks.Run()
	if err != nil {
		panic(err)
	}
}

// runGUI wires the host into the window. It returns while the fyne loop
// keeps running; closing the window ends the process.
func runGUI(configDir string, loopback, builtins bool, binds []string) {
	h := newHost(hostConfig{
		configDir: configDir,
		builtins:  builtins,
		loopback:  loopback,
		registrar: hotkey.New(),
		forwarder: guiApp,
		mirror:    guiApp,
		enum:      capture.Platform(gui.Monitors{}),
		surfaces:  guiApp.NewChooser,
	})
	h.start(binds)

	guiApp.Attach(gui.Host{Dispatcher: h.dispatcher, Coordinator: h.coordinator})
	go quitOnSignal(guiApp.Quit)
}
