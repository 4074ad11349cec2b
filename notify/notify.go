// Package notify shows desktop notifications for session status.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
)

const appName = "VoiceInk"

type Notifier interface {
	Notify(message string) error
}

// Desktop posts through the platform notification service. Failures are
// returned but are never fatal to a session.
type Desktop struct {
	enabled atomic.Bool
	send    func(title, message string) error
}

func NewDesktop(enabled bool) *Desktop {
	d := &Desktop{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
	d.enabled.Store(enabled)
	return d
}

func (d *Desktop) SetEnabled(v bool) { d.enabled.Store(v) }

func (d *Desktop) Notify(message string) error {
	if !d.enabled.Load() || message == "" {
		return nil
	}
	return d.send(appName, message)
}
