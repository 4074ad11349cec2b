package main

import (
	"errors"
	"sync"

	"voiceink/config"
	"voiceink/history"
	"voiceink/log"
)

var errHistoryClosed = errors.New("history closed")

// historySink opens the history database on first use, so enabling
// history in a reloaded config takes effect without a restart. The
// controller only calls it for sessions that started with history on.
type historySink struct {
	path func() (string, error)

	mu     sync.Mutex
	store  *history.Store
	closed bool
}

func newHistorySink(store *config.Store) *historySink {
	return &historySink{path: func() (string, error) { return historyPath(store.Snapshot()) }}
}

func (h *historySink) open() (*history.Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errHistoryClosed
	}
	if h.store != nil {
		return h.store, nil
	}
	path, err := h.path()
	if err != nil {
		return nil, err
	}
	s, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	log.Infof("history: opened %s", path)
	h.store = s
	return s, nil
}

func (h *historySink) Add(e history.Entry) error {
	s, err := h.open()
	if err != nil {
		return err
	}
	return s.Add(e)
}

func (h *historySink) Prune(maxDays int) (int64, error) {
	s, err := h.open()
	if err != nil {
		return 0, err
	}
	return s.Prune(maxDays)
}

func (h *historySink) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	return err
}
