package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/MimeLyc/batch-sub-translator/internal/persistence"
)

type batchCheckpointStore interface {
	Load(ctx context.Context, texts []string) ([]string, bool)
	Save(ctx context.Context, texts []string, translated []string) error
}

// persistentBatchCheckpointStore caches successful batches in sqlite, keyed
// by a hash of the scope (language, style, model) and the source texts.
type persistentBatchCheckpointStore struct {
	store *persistence.SQLiteStore
	runID string
	scope string

	mu     sync.RWMutex
	cached map[string][]string
}

func newPersistentBatchCheckpointStore(store *persistence.SQLiteStore, runID, scope string) (*persistentBatchCheckpointStore, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if scope == "" {
		return nil, fmt.Errorf("checkpoint scope is empty")
	}
	return &persistentBatchCheckpointStore{
		store:  store,
		runID:  runID,
		scope:  scope,
		cached: make(map[string][]string),
	}, nil
}

func (s *persistentBatchCheckpointStore) Load(ctx context.Context, texts []string) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	key := checkpointKey(s.scope, texts)

	s.mu.RLock()
	ret, ok := s.cached[key]
	s.mu.RUnlock()
	if ok {
		return append([]string(nil), ret...), true
	}

	cp, ok, err := s.store.LoadBatchCheckpoint(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	s.mu.Lock()
	s.cached[key] = cp.TranslatedLines
	s.mu.Unlock()
	return append([]string(nil), cp.TranslatedLines...), true
}

func (s *persistentBatchCheckpointStore) Save(ctx context.Context, texts []string, translated []string) error {
	if s == nil {
		return nil
	}
	key := checkpointKey(s.scope, texts)
	copyData := append([]string(nil), translated...)
	if err := s.store.SaveBatchCheckpoint(ctx, key, s.runID, copyData); err != nil {
		return err
	}
	s.mu.Lock()
	s.cached[key] = copyData
	s.mu.Unlock()
	return nil
}

func checkpointKey(scope string, texts []string) string {
	h := sha256.New()
	h.Write([]byte(scope))
	for _, text := range texts {
		h.Write([]byte{0})
		h.Write([]byte(text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
