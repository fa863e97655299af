package badger

import (
	"context"
	"fmt"

	"github.com/bobmcallan/fairval/internal/common"
)

// PrefEntry is a stored preference key-value pair.
type PrefEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

type prefStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPrefStorage creates a PreferenceStorage backed by BadgerHold.
func NewPrefStorage(store *Store, logger *common.Logger) *prefStorage {
	return &prefStorage{store: store, logger: logger}
}

// Get returns the stored value, or fallback on any storage error.
func (s *prefStorage) Get(_ context.Context, key, fallback string) string {
	var entry PrefEntry
	if err := s.store.db.Get(prefKey(key), &entry); err != nil {
		return fallback
	}
	return entry.Value
}

func (s *prefStorage) Set(_ context.Context, key, value string) error {
	entry := PrefEntry{Key: key, Value: value}
	if err := s.store.db.Upsert(prefKey(key), &entry); err != nil {
		return fmt.Errorf("failed to set preference '%s': %w", key, err)
	}
	return nil
}

func prefKey(key string) string {
	return "pref:" + key
}
