package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"voiceink/audio"
	"voiceink/clipboard"
	"voiceink/config"
	"voiceink/hotkey"
	"voiceink/session"
)

// runTestMode drives the controller from stdin with audio played from
// wavPath. Commands, one per line:
//
//	KEYDOWN | KEYUP | HOLD <ms> | SLEEP <ms> | WAIT | QUIT
//
// WAIT blocks until the previous gesture has settled.
func runTestMode(store *config.Store, wavPath string) int {
	fake, err := audio.NewFakeContext(wavPath, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}

	cfg := store.Snapshot()
	settled := make(chan string, 16)
	a := &app{
		store:    store,
		trigger:  cfg.Trigger.Key,
		keyboard: clipboard.NewKeyboard(),
		waveform: audio.NewWaveform(64),
	}
	deps := session.Deps{
		Audio:       fake,
		Config:      store.Snapshot,
		NewPipeline: newPipelineBuilder(nil),
		Inserter:    a,
		Settled: func(id string) {
			select {
			case settled <- id:
			default:
			}
		},
	}
	// Test mode never writes to the default history location.
	if path := cfg.History.Path; path != "" {
		a.history = &historySink{path: func() (string, error) { return path, nil }}
		deps.History = a.history
	}
	a.ctrl = session.New(deps)
	defer a.Close()

	hk := hotkey.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.ctrl.Run(ctx, hk)
	go a.dispatch(newConsoleSink(os.Stdout))

	return driveTest(os.Stdin, hk, settled)
}

func driveTest(r io.Reader, hk *hotkey.FakeHotkey, settled <-chan string) int {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		name, arg, _ := strings.Cut(cmd, " ")
		switch name {
		case "":
		case "KEYDOWN":
			hk.SimKeydown()
		case "KEYUP":
			hk.SimKeyup()
		case "HOLD":
			ms, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad HOLD: %q\n", arg)
				return 2
			}
			hk.Hold(time.Duration(ms) * time.Millisecond)
		case "SLEEP":
			ms, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad SLEEP: %q\n", arg)
				return 2
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
		case "WAIT":
			select {
			case <-settled:
			case <-time.After(2 * time.Minute):
				fmt.Fprintln(os.Stderr, "WAIT timed out")
				return 1
			}
		case "QUIT":
			return 0
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
			return 2
		}
	}
	return 0
}
