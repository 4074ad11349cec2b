package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceink/beep"
	"voiceink/config"
	"voiceink/history"
	"voiceink/notify"
)

func historyConfig(t *testing.T, enabled bool) config.Config {
	cfg := config.Default()
	cfg.History.Enabled = enabled
	cfg.History.Path = filepath.Join(t.TempDir(), "history.sqlite")
	return cfg
}

func TestHistorySinkOpensOnFirstUse(t *testing.T) {
	cfg := historyConfig(t, false)
	sink := newHistorySink(config.NewStatic(cfg))
	t.Cleanup(func() { sink.Close() })

	_, err := os.Stat(cfg.History.Path)
	assert.True(t, os.IsNotExist(err), "database created before use")

	require.NoError(t, sink.Add(history.Entry{ID: "abc", Text: "hello", Timestamp: time.Now()}))
	_, err = sink.Prune(30)
	require.NoError(t, err)

	entries, err := sink.store.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)
}

func TestHistorySinkClosed(t *testing.T) {
	sink := newHistorySink(config.NewStatic(historyConfig(t, true)))
	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Add(history.Entry{ID: "x", Text: "x", Timestamp: time.Now()}), errHistoryClosed)
}

func TestReloadEnablesHistory(t *testing.T) {
	cfg := historyConfig(t, false)
	store := config.NewStatic(cfg)
	a := &app{
		store:    store,
		trigger:  cfg.Trigger.Key,
		history:  newHistorySink(store),
		notifier: notify.NewDesktop(false),
		cues:     beep.New(false),
	}
	t.Cleanup(func() { a.history.Close() })

	enabled := cfg
	enabled.History.Enabled = true
	a.configChanged(enabled, nil)

	_, err := os.Stat(cfg.History.Path)
	assert.NoError(t, err, "history database not opened after reload")
}
