//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The global hotkey backend on macOS and Windows needs the main thread.
func main() {
	mainthread.Init(run)
}
