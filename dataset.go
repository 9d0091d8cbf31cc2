package main

import (
	"context"
	"sync"
	"time"
)

// datasetState guards the dataset currently being served. Reloads may overlap
// (the admin endpoint can fire while a slow fetch is still in flight), so
// every attempt takes a ticket and only the most recently started attempt may
// apply its result: a stale fetch finishing late never overwrites a newer
// dataset.
type datasetState struct {
	mu       sync.RWMutex
	current  *RegionDataset
	loadedAt time.Time
	applied  uint64
	started  uint64
}

func (s *datasetState) beginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return s.started
}

func (s *datasetState) applyLoad(ticket uint64, ds *RegionDataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.started {
		return false
	}
	s.current = ds
	s.loadedAt = time.Now()
	s.applied = ticket
	return true
}

func (s *datasetState) snapshot() (*RegionDataset, time.Time, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.loadedAt, s.applied
}

// reloadDataset runs one load attempt against the configured provider. On
// failure the previously applied dataset stays in place and the FetchError is
// returned to the caller.
func (a *App) reloadDataset(ctx context.Context) error {
	ticket := a.dataset.beginLoad()

	ds, err := a.provider.Load(ctx)
	if err != nil {
		a.log.Error("dataset load failed", "source", a.provider.Source(), "err", err)
		return err
	}

	if !a.dataset.applyLoad(ticket, ds) {
		a.log.Warn("discarded stale dataset load", "source", a.provider.Source(), "ticket", ticket)
		return nil
	}

	a.log.Info("dataset loaded",
		"source", a.provider.Source(),
		"provinces", len(ds.Provinces),
		"regencies", len(ds.Regencies),
		"districts", len(ds.Districts),
	)
	return nil
}

// currentDataset returns the served dataset, or nil before the first
// successful load.
func (a *App) currentDataset() *RegionDataset {
	ds, _, _ := a.dataset.snapshot()
	return ds
}
