package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voiceink/encoder"
)

type Provider int

const (
	OpenAI Provider = iota
	Groq
	Custom
)

func (p Provider) String() string {
	switch p {
	case OpenAI:
		return "openai"
	case Groq:
		return "groq"
	case Custom:
		return "custom"
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "":
		return OpenAI, nil
	case "groq":
		return Groq, nil
	case "custom":
		return Custom, nil
	}
	return 0, fmt.Errorf("unknown transcription provider %q", s)
}

// Credentials locate one provider endpoint. TextPath is only used by the
// custom provider.
type Credentials struct {
	APIKey   string
	APIURL   string
	Model    string
	TextPath string
}

type Options struct {
	Timeout    time.Duration
	MaxRetry   int
	RetryDelay time.Duration
	// Client is shared between sessions so warm connections are reused.
	Client *TracedClient
}

// Request is one utterance to transcribe. Audio is already encoded in Format.
type Request struct {
	Audio    []byte
	Format   encoder.Format
	Language string
}

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	Attempts     int
	NoSpeechProb float64
	Duration     float64
	Segments     []Segment
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// New returns the transcriber for p. Missing credentials are reported by
// Transcribe as a *ConfigError before any request is made.
func New(p Provider, creds Credentials, opts Options) Transcriber {
	if opts.Client == nil {
		opts.Client = NewTracedClient()
	}
	switch p {
	case Groq:
		return newCompatible("groq", creds, opts, parseVerbose)
	case Custom:
		return newCustom(creds, opts)
	default:
		return newCompatible("openai", creds, opts, parseJSON)
	}
}
