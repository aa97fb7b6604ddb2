package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
)

// RunStore is a BadgerDB-backed implementation of run.Repository.
//
// Key layout:
//
//	prefix run:<id>               run JSON
//	prefix trace:<id>:<seq>       ledger entry JSON, seq is 8 bytes big-endian
//	prefix tseq:<id>              last trace sequence
type RunStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewRunStore creates a new BadgerDB run store with the given configuration.
func NewRunStore(cfg Config, opts ...Option) (*RunStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &RunStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// startGC starts the value log garbage collection goroutine.
func (s *RunStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for {
					if err := s.db.RunValueLogGC(discardRatio); err != nil {
						break
					}
				}
			}
		}
	}()
}

func (s *RunStore) runKey(id string) []byte {
	return []byte(s.keyPrefix + "run:" + id)
}

func (s *RunStore) tracePrefix(id string) []byte {
	return []byte(s.keyPrefix + "trace:" + id + ":")
}

func (s *RunStore) traceKey(id string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(s.tracePrefix(id), seq)
}

func (s *RunStore) seqKey(id string) []byte {
	return []byte(s.keyPrefix + "tseq:" + id)
}

// Save persists a new run.
func (s *RunStore) Save(ctx context.Context, r *agent.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return run.ErrInvalidRunID
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.runKey(r.ID)
		if _, err := txn.Get(key); err == nil {
			return run.ErrRunExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

// Get retrieves a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*agent.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, run.ErrInvalidRunID
	}

	var r agent.Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.runKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return run.ErrRunNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Update updates an existing run.
func (s *RunStore) Update(ctx context.Context, r *agent.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return run.ErrInvalidRunID
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.runKey(r.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return run.ErrRunNotFound
		} else if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete removes a run and its trace.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return run.ErrInvalidRunID
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.runKey(id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return run.ErrRunNotFound
		} else if err != nil {
			return err
		}

		keys := [][]byte{key, s.seqKey(id)}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.tracePrefix(id)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns runs matching the filter, newest first.
func (s *RunStore) List(ctx context.Context, filter run.ListFilter) ([]*agent.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var runs []*agent.Run
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(s.keyPrefix + "run:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r agent.Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				continue // Skip malformed entries
			}
			if filter.Matches(&r) {
				runs = append(runs, &r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartTime.Equal(runs[j].StartTime) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return run.Page(runs, filter), nil
}

// AppendEntries stores trace entries for a run atomically.
func (s *RunStore) AppendEntries(ctx context.Context, runID string, entries []ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return run.ErrInvalidRunID
	}
	if len(entries) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		seqKey := s.seqKey(runID)
		item, err := txn.Get(seqKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				if len(val) == 8 {
					seq = binary.BigEndian.Uint64(val)
				}
				return nil
			})
			if err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			seq++
			if err := txn.Set(s.traceKey(runID, seq), data); err != nil {
				return err
			}
		}

		return txn.Set(seqKey, binary.BigEndian.AppendUint64(nil, seq))
	})
}

// Entries returns the stored trace of a run in append order.
func (s *RunStore) Entries(ctx context.Context, runID string) ([]ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []ledger.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.runKey(runID)); errors.Is(err, badger.ErrKeyNotFound) {
			return run.ErrRunNotFound
		} else if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.tracePrefix(runID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e ledger.Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close stops GC and closes the database.
func (s *RunStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()
		err = s.db.Close()
	})
	return err
}

var _ run.Repository = (*RunStore)(nil)
