package main

import (
	"fmt"
	"sync"

	"voiceink/audio"
	"voiceink/beep"
	"voiceink/clipboard"
	"voiceink/config"
	"voiceink/hotkey"
	"voiceink/log"
	"voiceink/notify"
	"voiceink/session"
	"voiceink/transcriber"
)

// app owns the long-lived collaborators of one running process.
type app struct {
	store    *config.Store
	trigger  string
	keyboard clipboard.Keyboard
	history  *historySink
	notifier *notify.Desktop
	cues     *beep.Player
	waveform *audio.Waveform
	ctrl     *session.Controller

	insertMu sync.Mutex
}

func newApp(store *config.Store, actx audio.Context, device *audio.DeviceInfo) (*app, error) {
	cfg := store.Snapshot()
	a := &app{
		store:    store,
		trigger:  cfg.Trigger.Key,
		keyboard: clipboard.NewKeyboard(),
		notifier: notify.NewDesktop(cfg.General.Notify),
		cues:     beep.New(cfg.General.Beep),
		waveform: audio.NewWaveform(64),
	}

	a.history = newHistorySink(store)
	if cfg.History.Enabled {
		// Open early so a bad path shows up at startup. History stays
		// optional; transcription works without it.
		if _, err := a.history.open(); err != nil {
			log.Warnf("history unavailable: %v", err)
		}
	}

	deps := session.Deps{
		Audio:       actx,
		Device:      device,
		Config:      store.Snapshot,
		NewPipeline: newPipelineBuilder(transcriber.NewTracedClient()),
		Inserter:    a,
		Notifier:    a.notifier,
		Cues:        a.cues,
		History:     a.history,
		Waveform:    a.waveform,
	}
	a.ctrl = session.New(deps)

	store.OnChange(a.configChanged)
	store.Watch()
	return a, nil
}

func (a *app) configChanged(cfg config.Config, err error) {
	if err != nil {
		log.Warnf("config reload rejected, keeping previous settings: %v", err)
		return
	}
	log.Infof("config reloaded (provider %s, insert %s)", cfg.Transcription.Provider, cfg.General.InsertMethod)
	if cfg.Trigger.Key != a.trigger {
		log.Warnf("trigger key changed to %q; restart to apply", cfg.Trigger.Key)
	}
	if cfg.History.Enabled {
		if _, err := a.history.open(); err != nil {
			log.Warnf("history unavailable: %v", err)
		}
	}
	a.notifier.SetEnabled(cfg.General.Notify)
	a.cues.SetEnabled(cfg.General.Beep)
}

// Insert places text using the settings the session started with. Inserts
// are serialized so clipboard save and restore never interleave.
func (a *app) Insert(text string, settings config.GeneralConfig) error {
	method, err := clipboard.ParseMethod(settings.InsertMethod)
	if err != nil {
		return err
	}
	a.insertMu.Lock()
	defer a.insertMu.Unlock()
	in := &clipboard.Inserter{
		Method:    method,
		Clipboard: clipboard.System{},
		Keyboard:  a.keyboard,
		Restore:   settings.RestoreClipboard,
		Settle:    clipboard.DefaultSettle,
	}
	return in.Insert(text)
}

// dispatch forwards controller events to the display until the stream is
// closed.
func (a *app) dispatch(sink eventSink) {
	for ev := range a.ctrl.Events() {
		sink.Handle(ev)
	}
}

func (a *app) Close() {
	a.ctrl.Close()
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Warnf("history close: %v", err)
		}
	}
}

func newHotkey(cfg config.Config) (hotkey.Hotkey, error) {
	key, err := hotkey.ParseKey(cfg.Trigger.Key)
	if err != nil {
		return nil, err
	}
	hk, err := hotkey.New(key)
	if err != nil {
		return nil, err
	}
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("registering %s: %w", key, err)
	}
	log.Infof("hotkey registered: %s", key)
	return hk, nil
}
