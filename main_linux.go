//go:build linux

package main

func main() {
	initCrashLog()

	// evdev and uinput have no main-thread requirement; only fyne does.
	if wantsGUI() {
		initGUI()
		return
	}
	run()
}
