//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// shareTrigger delivers SIGUSR1, which asks the daemon to open the chooser.
func shareTrigger() (<-chan os.Signal, string) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	return ch, fmt.Sprintf("kill -USR1 %d", os.Getpid())
}
