package encoder

import "fmt"

const (
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns interleaved PCM16 blocks into an upload container.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

type Format string

const (
	WAV  Format = "wav"
	FLAC Format = "flac"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case WAV, FLAC:
		return Format(s), nil
	case "":
		return WAV, nil
	}
	return "", fmt.Errorf("unknown audio format %q", s)
}

func (f Format) MIME() string {
	if f == FLAC {
		return "audio/flac"
	}
	return "audio/wav"
}

// Filename is the multipart file name sent to transcription APIs, which
// sniff the container from the extension.
func (f Format) Filename() string {
	return "audio." + string(f)
}

func New(f Format, sampleRate, channels int) (Encoder, error) {
	switch f {
	case WAV:
		return NewWAV(sampleRate, channels), nil
	case FLAC:
		return NewFlac(sampleRate, channels)
	}
	return nil, fmt.Errorf("unknown audio format %q", f)
}

// Encode encodes a whole recording in BlockSize chunks.
func Encode(f Format, samples []int16, sampleRate, channels int) ([]byte, error) {
	enc, err := New(f, sampleRate, channels)
	if err != nil {
		return nil, err
	}
	step := BlockSize * channels
	for i := 0; i < len(samples); i += step {
		end := min(i+step, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing %s encoder: %w", f, err)
	}
	return enc.Bytes(), nil
}
