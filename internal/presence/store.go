// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package presence tracks which devices are live right now.
//
// Every accepted sighting writes a TTL'd Badger entry keyed by sensor and
// device; entries expire after the configured live window (30s by default).
// The live visitor count is a prefix scan over unexpired keys, so it never
// touches DuckDB and is safe to poll frequently.
package presence

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
)

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("presence store is closed")

// keySeparator joins sensor ID and device key. Device keys are MAC addresses
// and sensor IDs are validated identifiers, so '|' cannot collide.
const keySeparator = "|"

var keyPrefix = []byte("live" + keySeparator)

// Store is a Badger-backed live-presence index.
type Store struct {
	db         *badger.DB
	liveWindow time.Duration

	mu     sync.RWMutex
	closed bool
}

// Open opens the presence store. An empty path runs Badger in memory, which
// is also the test configuration.
func Open(cfg *config.PresenceConfig) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open presence store: %w", err)
	}

	return &Store{
		db:         db,
		liveWindow: cfg.LiveWindow,
	}, nil
}

// Touch records that a device was just sighted at a sensor. The entry
// expires after the live window.
func (s *Store) Touch(sensorID, deviceKey string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	key := makeKey(sensorID, deviceKey)
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, nil).WithTTL(s.liveWindow)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to touch presence for %s/%s: %w", sensorID, deviceKey, err)
	}

	metrics.PresenceTouchesTotal.Inc()
	return nil
}

// LiveCount returns the number of distinct devices live at one sensor.
func (s *Store) LiveCount(sensorID string) (int, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrStoreClosed
	}
	s.mu.RUnlock()

	prefix := []byte("live" + keySeparator + sensorID + keySeparator)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // Only counting keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count live devices for %s: %w", sensorID, err)
	}

	metrics.PresenceLiveDevices.WithLabelValues(sensorID).Set(float64(count))
	return count, nil
}

// LiveCountAll returns the number of distinct devices live across all
// sensors. A device sighted by two sensors counts once.
func (s *Store) LiveCountAll() (int, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrStoreClosed
	}
	s.mu.RUnlock()

	devices := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			idx := strings.LastIndex(key, keySeparator)
			if idx < 0 {
				continue
			}
			devices[key[idx+len(keySeparator):]] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count live devices: %w", err)
	}

	return len(devices), nil
}

// RunGC runs one round of Badger value-log garbage collection.
// badger.ErrNoRewrite means there was nothing to collect.
func (s *Store) RunGC() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	// In-memory mode has no value log to compact.
	if !s.db.Opts().InMemory {
		err := s.db.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			return fmt.Errorf("presence GC failed: %w", err)
		}
		if err == nil {
			logging.Debug().Msg("Presence store value log compacted")
		}
	}

	metrics.PresenceGCRuns.Inc()
	return nil
}

// Close closes the underlying Badger database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func makeKey(sensorID, deviceKey string) []byte {
	return []byte("live" + keySeparator + sensorID + keySeparator + deviceKey)
}
