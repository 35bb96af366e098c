// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package journal persists per-iteration chain samples to an embedded
// BadgerDB store for post-hoc analysis: which kernels the chain visited,
// when, and at what score. The journal is append-only; entries are
// keyed by run id and iteration so a prefix scan replays one chain in
// order.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one recorded chain state.
type Entry struct {
	Iteration int       `json:"iteration"`
	Kernel    string    `json:"kernel"`
	Noise     float64   `json:"noise"`
	LogProb   float64   `json:"log_prob"`
	At        time.Time `json:"at"`
}

// Journal is a badger-backed sample store.
//
// Thread Safety: Safe for concurrent use; badger transactions isolate
// writers, and chains append under distinct run ids.
type Journal struct {
	db *badger.DB
}

// badgerLogger adapts slog to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (creating if needed) a journal at dir. A nil logger
// disables badger's internal logging.
func Open(dir string, logger *slog.Logger) (*Journal, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal: directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create journal directory %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// OpenInMemory opens a journal with no disk persistence, for tests.
func OpenInMemory() (*Journal, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append records one entry for the given run.
func (j *Journal) Append(runID string, e Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	key := entryKey(runID, e.Iteration)
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("append journal entry %s: %w", key, err)
	}
	return nil
}

// Entries returns all entries recorded for a run, in iteration order.
func (j *Journal) Entries(runID string) ([]Entry, error) {
	prefix := []byte(fmt.Sprintf("run/%s/", runID))
	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode journal entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal for run %s: %w", runID, err)
	}
	return entries, nil
}

// Close releases the underlying store.
func (j *Journal) Close() error {
	return j.db.Close()
}

// entryKey builds "run/{id}/{iteration}" with a fixed-width iteration so
// lexicographic key order matches iteration order.
func entryKey(runID string, iteration int) []byte {
	return []byte(fmt.Sprintf("run/%s/%010d", runID, iteration))
}
