package doctor

// The console is never left in raw mode on windows.
func restoreTerminal() {}
