package store

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"nodesync/logger"

	"git.mills.io/prologic/bitcask"
)

// Store is an on-disk cache for fetched option data (character maps, lora
// keywords). Values are gzip-compressed, keys are hashed.
type Store struct {
	db        *bitcask.Bitcask
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	// Increase the maximum value size to 10MB (from the default 65KB)
	db, err := bitcask.Open(path, bitcask.WithMaxValueSize(10*1024*1024))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, done: make(chan struct{})}, nil
}

// Close closes the underlying database and stops any MergeEvery loop. Safe
// to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Merge reclaims disk space from expired and overwritten entries.
func (s *Store) Merge() {
	logger.Info("Merging cache database to reclaim space...")
	if err := s.db.Merge(); err != nil {
		logger.Error("Error merging cache database", "error", err)
		return
	}
	logger.Info("Cache database merge complete.")
}

// MergeEvery merges the database on the given interval, returning once the
// store is closed. Call in a goroutine.
func (s *Store) MergeEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Merge()
		}
	}
}

// PutJSON stores v under key, JSON-encoded and compressed. A ttl of zero
// stores the entry without expiry.
func (s *Store) PutJSON(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	compressed, err := compress(data)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return s.db.Put(cacheKey(key), compressed)
	}
	return s.db.PutWithTTL(cacheKey(key), compressed, ttl)
}

// GetJSON loads the entry under key into v. The boolean reports whether the
// key was present (and not expired).
func (s *Store) GetJSON(key string, v any) (bool, error) {
	compressed, err := s.db.Get(cacheKey(key))
	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) || errors.Is(err, bitcask.ErrKeyExpired) {
			return false, nil
		}
		return false, err
	}
	data, err := decompress(compressed)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	return s.db.Has(cacheKey(key))
}

// Delete removes the entry under key.
func (s *Store) Delete(key string) error {
	return s.db.Delete(cacheKey(key))
}
