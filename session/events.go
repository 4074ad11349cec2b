package session

import (
	"fmt"
	"time"
)

// Event is delivered on Controller.Events. The concrete types below are
// the complete set.
type Event interface {
	isEvent()
}

type RecordingStarted struct {
	ID string
	At time.Time
}

// RecordingEnded fires once for every RecordingStarted. Cancelled means no
// TranscriptionCompleted will follow for this session.
type RecordingEnded struct {
	ID        string
	Held      time.Duration
	Cancelled bool
	Truncated bool
}

type TranscriptionCompleted struct {
	ID        string
	Text      string
	Timestamp time.Time
	Warning   error
}

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// StatusMessage is user-facing text. ID is empty for messages that do not
// belong to a session, such as an ignored tap.
type StatusMessage struct {
	ID    string
	Text  string
	Level Level
}

// AudioLevel is the RMS of recent input, 0..1. It is best-effort and
// dropped when the consumer falls behind.
type AudioLevel struct {
	Level float64
}

func (RecordingStarted) isEvent()       {}
func (RecordingEnded) isEvent()         {}
func (TranscriptionCompleted) isEvent() {}
func (StatusMessage) isEvent()          {}
func (AudioLevel) isEvent()             {}
