//go:build linux

package doctor

const keyboardHint = "Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput"
