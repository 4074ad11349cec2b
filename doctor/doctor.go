// Package doctor runs interactive checks of everything a push-to-talk
// session depends on: configuration, hotkey, microphone, transcription and
// text insertion.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"voiceink/audio"
	"voiceink/clipboard"
	"voiceink/config"
	"voiceink/hotkey"
	"voiceink/pipeline"
	"voiceink/recorder"
)

const steps = 5

// Builder turns a configuration into a transcription pipeline.
type Builder func(config.Config) (*pipeline.Pipeline, error)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config, build Builder) int {
	resetTerminal()
	exitOnInterrupt()

	fmt.Println("voiceink doctor - interactive system diagnostics")
	fmt.Println("================================================")

	reader := bufio.NewReader(os.Stdin)
	allPass := checkConfig(cfg) && checkHotkey(cfg)
	if allPass {
		buf, ok := checkMicrophone(cfg)
		allPass = ok && checkTranscription(cfg, build, buf, reader)
	}
	if allPass {
		allPass = checkInsertion()
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func header(n int, title string) {
	fmt.Println()
	fmt.Printf("[%d/%d] %s\n", n, steps, title)
}

// configProblems lists settings that would make every session fail.
func configProblems(cfg config.Config) []string {
	var problems []string
	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	ep := cfg.TranscriptionEndpoint()
	if ep.APIURL == "" {
		problems = append(problems, fmt.Sprintf("transcription.%s.api_url is empty", cfg.Transcription.Provider))
	}
	if ep.APIKey == "" {
		problems = append(problems, fmt.Sprintf("transcription.%s.api_key is empty", cfg.Transcription.Provider))
	}
	if cfg.PostProcess.Enabled && cfg.PostProcessEndpoint().APIKey == "" {
		problems = append(problems, fmt.Sprintf("post_process.%s.api_key is empty", cfg.PostProcess.Provider))
	}
	return problems
}

func checkConfig(cfg config.Config) bool {
	header(1, "Configuration")
	problems := configProblems(cfg)
	for _, p := range problems {
		fmt.Printf("  FAIL: %s\n", p)
	}
	if len(problems) > 0 {
		return false
	}
	fmt.Printf("  PASS: provider %s, format %s, language %q\n",
		cfg.Transcription.Provider, cfg.Transcription.Format, cfg.Transcription.Language)
	return true
}

func checkHotkey(cfg config.Config) bool {
	header(2, "Hotkey detection")

	key, err := hotkey.ParseKey(cfg.Trigger.Key)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	msg, err := hotkey.Diagnose(key)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)

	hk, err := hotkey.New(key)
	if err == nil {
		err = hk.Register()
	}
	if err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	fmt.Printf("Press %s...\n", key)
	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The hotkey may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

const recordFor = 3 * time.Second

func checkMicrophone(cfg config.Config) (*audio.Buffer, bool) {
	header(3, "Microphone")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, false
	}
	defer ctx.Close()

	device, err := audio.FindDevice(ctx, cfg.Audio.Device)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil, false
	}
	name := "system default"
	if device != nil {
		name = device.Name
	}
	fmt.Printf("Using device: %s\n", name)
	if device != nil && audio.IsBluetooth(device.Name) {
		fmt.Println("  Warning: Bluetooth microphones often switch the headset to low quality")
	}

	fmt.Printf("Speak for %s", recordFor)
	wave := audio.NewWaveform(256)
	rec, err := recorder.Start(ctx, audio.StreamConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		FrameSize:  cfg.Audio.FrameSize,
		QueueSize:  cfg.Audio.QueueSize,
		Device:     device,
	}, cfg.Timing(), wave)
	if err != nil {
		fmt.Printf("\n  FAIL: %v\n", err)
		return nil, false
	}

	deadline := time.After(recordFor)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ticker.C:
			fmt.Print(".")
		case <-deadline:
			break wait
		}
	}
	out := rec.Stop(recordFor)
	fmt.Println(" done")

	if out.Buffer == nil {
		fmt.Println("  FAIL: no audio captured")
		return nil, false
	}
	var peak float64
	for _, l := range wave.Snapshot() {
		peak = max(peak, l)
	}
	fmt.Printf("  Captured %.1fs, peak level %.3f, %d frames dropped\n", out.Buffer.Duration().Seconds(), peak, rec.Dropped())
	if peak < 0.01 {
		fmt.Println("  Warning: input is nearly silent, check the microphone level")
	}
	fmt.Println("  PASS: microphone delivers audio")
	return out.Buffer, true
}

func checkTranscription(cfg config.Config, build Builder, buf *audio.Buffer, reader *bufio.Reader) bool {
	header(4, "Transcription")

	p, err := build(cfg)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	start := time.Now()
	res, err := p.Run(context.Background(), buf)
	switch {
	case errors.Is(err, pipeline.ErrNoSpeech):
		fmt.Println("  Transcribed text: (no speech detected)")
	case err != nil:
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	default:
		fmt.Printf("\n  Transcribed text: %s\n", res.Text())
	}
	fmt.Printf("  %s in %s (upload %.1f KB)\n\n", p.Transcriber.Name(), time.Since(start).Round(time.Millisecond), res.Metrics.UploadSizeKB)
	if res.Warning != nil {
		fmt.Printf("  Warning: %v\n", res.Warning)
	}

	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

type verifier interface {
	Verify() (string, error)
}

func checkInsertion() bool {
	header(5, "Clipboard and keystrokes")

	testStr := fmt.Sprintf("voiceink-doctor-%d", time.Now().UnixNano())
	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		sys := clipboard.System{}
		if err := sys.Write(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := sys.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung?)")
		return false
	}

	kb, ok := clipboard.NewKeyboard().(verifier)
	if !ok {
		return true
	}
	msg, err := kb.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		if keyboardHint != "" {
			fmt.Println("  " + keyboardHint)
		}
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}
