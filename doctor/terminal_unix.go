//go:build !windows

package doctor

import (
	"os"
	"os/exec"
)

func restoreTerminal() {
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}
