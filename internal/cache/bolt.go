package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketCache = "cache" // key: <domain>:<owner> -> Entry JSON

// BoltStore is a [Store] backed by a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the cache file at path.
//
// bbolt holds an exclusive file lock; a second process waits up to one second before failing.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketCache))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(key string) ([]byte, bool, error) {
	var (
		out []byte
		ok  bool
	)

	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketCache)).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid for the life of the transaction
		out = append([]byte(nil), v...)
		ok = true
		return nil
	})

	return out, ok, err
}

func (b *BoltStore) Set(key string, value []byte) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketCache)).Put([]byte(key), value)
	})
}

func (b *BoltStore) Remove(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketCache)).Delete([]byte(key))
	})
}

// Keys returns every stored key in byte order.
func (b *BoltStore) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketCache)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Close releases the file lock.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
