package audio

import (
	"errors"
	"fmt"
)

var errCaptureClosed = errors.New("capture device closed")

// CaptureError reports a device open or stream failure. It aborts the
// session that hit it but never the process.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
