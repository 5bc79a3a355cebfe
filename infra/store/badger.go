package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
	"github.com/kilianp07/evtariff/infra/logger"
)

var _ pricecache.Store = (*BadgerStore)(nil)

// BadgerConfig configures the embedded Badger store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string        `json:"path"`
	InMemory   bool          `json:"in_memory"`
	SyncWrites bool          `json:"sync_writes"`
	GCInterval time.Duration `json:"gc_interval"`
}

// BadgerStore persists records in BadgerDB under "<partition>/<key>" keys.
type BadgerStore struct {
	db     *badger.DB
	log    logger.Logger
	stopCh chan struct{}
	once   sync.Once
}

// OpenBadger opens or creates a Badger database.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger store: path is required")
	}
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil).WithSyncWrites(cfg.SyncWrites).WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w", err)
	}
	s := &BadgerStore{db: db, log: logger.New("badger-store"), stopCh: make(chan struct{})}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 5 * time.Minute
	}
	if !cfg.InMemory {
		go s.runGC(cfg.GCInterval)
	}
	return s, nil
}

// Close closes the database and stops background goroutines.
func (s *BadgerStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stopCh)
		err = s.db.Close()
	})
	return err
}

func (s *BadgerStore) runGC(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.log.Debugf("value log gc: %v", err)
					}
					break
				}
			}
		}
	}
}

func prefixOf(p pricecache.Partition) []byte {
	return []byte(string(p) + "/")
}

func badgerKey(p pricecache.Partition, key string) []byte {
	return append(prefixOf(p), key...)
}

func (s *BadgerStore) Get(_ context.Context, p pricecache.Partition, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(p, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (s *BadgerStore) Put(_ context.Context, p pricecache.Partition, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(p, key), value)
	})
}

func (s *BadgerStore) Delete(_ context.Context, p pricecache.Partition, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(p, key))
	})
}

func (s *BadgerStore) Keys(_ context.Context, p pricecache.Partition) ([]string, error) {
	var keys []string
	prefix := prefixOf(p)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return keys, err
}

func (s *BadgerStore) Count(ctx context.Context, p pricecache.Partition) (int, error) {
	keys, err := s.Keys(ctx, p)
	return len(keys), err
}

func (s *BadgerStore) Clear(_ context.Context, p pricecache.Partition) error {
	return s.db.DropPrefix(prefixOf(p))
}
