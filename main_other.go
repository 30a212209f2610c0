//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	initCrashLog()

	// The fyne loop owns the main thread in GUI mode; otherwise the
	// hotkey package needs it for its OS event loop.
	if wantsGUI() {
		initGUI()
		return
	}
	mainthread.Init(run)
}
