// Package pipeline turns a finished recording into text: encode, transcribe,
// normalize and optionally post-process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voiceink/audio"
	"voiceink/encoder"
	"voiceink/log"
	"voiceink/postprocess"
	"voiceink/textproc"
	"voiceink/transcriber"
)

// ErrNoSpeech means the pipeline succeeded but produced no text worth
// inserting.
var ErrNoSpeech = errors.New("no speech detected")

// logProbThreshold pairs with NoSpeechThreshold: a segment is silence only
// when the model is both confident there is no speech and unsure of the text.
const logProbThreshold = -1.0

type Pipeline struct {
	Transcriber transcriber.Transcriber
	Normalizer  textproc.Normalizer
	// PostProcessor is nil when post-processing is disabled.
	PostProcessor postprocess.PostProcessor
	Format        encoder.Format
	Language      string
	// NoSpeechThreshold drops segments whose no-speech probability reaches
	// it. Zero keeps every segment.
	NoSpeechThreshold float64
}

type Result struct {
	Raw           string
	Normalized    string
	PostProcessed string
	// Warning is a non-fatal post-process failure. Text falls back to
	// Normalized when it is set.
	Warning error
	Metrics log.Metrics
}

// Text is the final text to insert.
func (r Result) Text() string {
	if r.PostProcessed != "" {
		return r.PostProcessed
	}
	return r.Normalized
}

// Run processes one buffer. Transcription failures abort with the
// transcriber's typed error and no text.
func (p *Pipeline) Run(ctx context.Context, buf *audio.Buffer) (Result, error) {
	var res Result
	if buf == nil || buf.Frames() == 0 {
		return res, ErrNoSpeech
	}
	res.Metrics.AudioLengthS = buf.Duration().Seconds()
	res.Metrics.RawSizeKB = float64(len(buf.Samples)*2) / 1024

	encStart := time.Now()
	data, err := encoder.Encode(p.Format, buf.Samples, buf.SampleRate, buf.Channels)
	if err != nil {
		return res, fmt.Errorf("encoding %s: %w", p.Format, err)
	}
	res.Metrics.EncodeTimeMs = float64(time.Since(encStart).Milliseconds())
	res.Metrics.UploadSizeKB = float64(len(data)) / 1024

	tr, err := p.Transcriber.Transcribe(ctx, transcriber.Request{
		Audio:    data,
		Format:   p.Format,
		Language: p.Language,
	})
	if err != nil {
		return res, err
	}
	res.Metrics.Attempts = tr.Attempts
	res.Metrics.RateLimit = tr.RateLimit
	res.Metrics.ProviderAudioS = tr.Duration
	res.Metrics.NoSpeechProb = tr.NoSpeechProb
	res.Metrics.Segments = len(tr.Segments)
	if m := tr.Metrics; m != nil {
		res.Metrics.DNSTimeMs = float64(m.DNS.Milliseconds())
		res.Metrics.TLSTimeMs = float64(m.TLS.Milliseconds())
		res.Metrics.TTFBMs = float64(m.TTFB.Milliseconds())
		res.Metrics.TotalTimeMs = float64(m.Sum().Milliseconds())
		res.Metrics.ConnReused = m.ConnReused
	}

	res.Raw = tr.Text
	speech, silent := p.speechText(tr)
	res.Metrics.SilentSegments = silent
	res.Normalized = p.Normalizer.Normalize(speech)
	if res.Normalized == "" {
		return res, ErrNoSpeech
	}

	if p.PostProcessor != nil {
		ppStart := time.Now()
		out, err := p.PostProcessor.Process(ctx, res.Normalized)
		res.Metrics.PostProcessMs = float64(time.Since(ppStart).Milliseconds())
		if err != nil {
			res.Warning = err
		} else if strings.TrimSpace(out) != "" {
			res.PostProcessed = strings.TrimSpace(out)
		}
	}
	return res, nil
}

// speechText rebuilds the transcript without the segments the model marks as
// silence. Whisper tends to invent stock phrases for quiet audio.
func (p *Pipeline) speechText(tr *transcriber.Result) (string, int) {
	if p.NoSpeechThreshold <= 0 || len(tr.Segments) == 0 {
		return tr.Text, 0
	}
	var b strings.Builder
	silent := 0
	for _, s := range tr.Segments {
		if s.NoSpeechProb >= p.NoSpeechThreshold && s.AvgLogProb < logProbThreshold {
			silent++
			continue
		}
		b.WriteString(s.Text)
	}
	if silent == 0 {
		return tr.Text, 0
	}
	return strings.TrimSpace(b.String()), silent
}
