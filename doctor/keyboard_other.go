//go:build !linux

package doctor

const keyboardHint = "Grant the terminal accessibility (macOS) or input permissions and retry"
