package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"voiceink/audio"
	"voiceink/config"
	"voiceink/doctor"
	"voiceink/history"
	"voiceink/log"
	"voiceink/shutdown"
)

var version = "dev"

func run() {
	configFlag := flag.String("config", "", "config file path (default: <user config dir>/voiceink/config.yaml)")
	initConfigFlag := flag.Bool("init-config", false, "Write a default config file and exit")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses the configured or system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	historyFlag := flag.Int("history", 0, "Print the last N transcriptions and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, audio from a WAV file)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voiceink %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *initConfigFlag {
		os.Exit(initConfig(*configFlag))
	}

	store, err := config.NewStore(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := store.Snapshot()

	if *doctorFlag {
		os.Exit(doctor.Run(cfg, newPipelineBuilder(nil)))
	}
	if *historyFlag > 0 {
		os.Exit(printHistory(cfg, *historyFlag))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.Infof("starting voiceink %s (config %q, provider %s, format %s)",
		version, store.Path(), cfg.Transcription.Provider, cfg.Transcription.Format)

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: voiceink -test <wav-file>")
			os.Exit(1)
		}
		os.Exit(runTestMode(store, args[0]))
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	device, err := resolveDevice(actx, cfg, *deviceFlag, *setupFlag)
	if err != nil {
		log.Warnf("device selection failed: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: %v, falling back to default device\n", err)
	}

	a, err := newApp(store, actx, device)
	if err != nil {
		log.Errorf("startup: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	hk, err := newHotkey(cfg)
	if err != nil {
		log.Errorf("hotkey: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	ctx, cancel := shutdown.OnSignal(context.Background(), func(sig os.Signal) {
		log.Info("shutdown: " + sig.String())
	})
	defer cancel()

	var sink eventSink
	if *tuiFlag {
		sink = newTUISink(a, device, cancel)
	} else {
		sink = newConsoleSink(os.Stdout)
		fmt.Printf("voiceink %s: hold %s to record\n", version, cfg.Trigger.Key)
	}

	go a.ctrl.Run(ctx, hk)
	go a.dispatch(sink)
	sink.Run(ctx)

	cancel()
	a.ctrl.Close()
	log.Info("shutdown: done")
}

func initConfig(path string) int {
	if path == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", path)
	return 0
}

func resolveDevice(actx audio.Context, cfg config.Config, name string, setup bool) (*audio.DeviceInfo, error) {
	if name == "" {
		name = cfg.Audio.Device
	}
	if setup {
		return audio.SelectDevice(actx)
	}
	return audio.FindDevice(actx, name)
}

func historyPath(cfg config.Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	dir, err := config.DefaultDir()
	if err != nil {
		return "", err
	}
	return history.DefaultPath(dir), nil
}

func printHistory(cfg config.Config, n int) int {
	path, err := historyPath(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("No history yet.")
		return 0
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.Recent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Printf("%s  %5.1fs  %-7s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Duration.Seconds(), e.Provider, e.Text)
	}
	return 0
}
