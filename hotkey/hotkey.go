package hotkey

// Hotkey delivers press and release of the configured trigger key.
// Implementations never block the OS input thread; a full channel drops the
// event, and the Gesture treats duplicate or missing repeats as no-ops.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

func send(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
