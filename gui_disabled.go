//go:build !gui

package main

func initGUI() {
	panic("sharkhost: built without GUI support (rebuild with -tags gui)")
}

func runGUI(string, bool, bool, []string) {
	initGUI()
}
