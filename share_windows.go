//go:build windows

package main

import "os"

// No user signal on Windows; capture requests come from -pick or -gui.
func shareTrigger() (<-chan os.Signal, string) {
	return nil, ""
}
