package encoder

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVEncoder writes 16-bit PCM WAV into memory.
type WAVEncoder struct {
	out         memFile
	enc         *wav.Encoder
	format      *audio.Format
	totalFrames uint64
	ints        []int
	mu          sync.Mutex
}

func NewWAV(sampleRate, channels int) *WAVEncoder {
	e := &WAVEncoder{
		format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
	}
	// 1 = PCM audio format tag
	e.enc = wav.NewEncoder(&e.out, sampleRate, BitsPerSample, channels, 1)
	return e
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ints = e.ints[:0]
	for _, s := range block {
		e.ints = append(e.ints, int(s))
	}
	buf := &audio.IntBuffer{Format: e.format, Data: e.ints, SourceBitDepth: BitsPerSample}
	if err := e.enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav block: %w", err)
	}
	e.totalFrames += uint64(len(block) / e.format.NumChannels)
	return nil
}

// Close finalizes the RIFF header sizes.
func (e *WAVEncoder) Close() error {
	return e.enc.Close()
}

func (e *WAVEncoder) Bytes() []byte {
	return e.out.buf
}

func (e *WAVEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("memFile: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memFile: negative position")
	}
	m.pos = int(abs)
	return abs, nil
}
