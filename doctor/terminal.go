package doctor

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"voiceink/shutdown"
)

// exitOnInterrupt leaves the terminal usable when a check is abandoned with
// Ctrl+C while the hotkey backend holds it in raw mode.
func exitOnInterrupt() {
	shutdown.OnSignal(context.Background(), func(os.Signal) {
		fmt.Println("\nInterrupted")
		resetTerminal()
		os.Exit(1)
	})
}

func resetTerminal() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	restoreTerminal()
}
