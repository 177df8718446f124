// Package storage provides tender persistence backed by NATS JetStream KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/tendercheck/tender"
)

// BucketTenders is the KV bucket holding tenders.
const BucketTenders = "TENDERCHECK_TENDERS"

// Store provides tender storage operations backed by NATS KV. It
// implements tender.Repository.
type Store struct {
	tenders jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context. It
// creates the KV bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	tenders, err := getOrCreateBucket(ctx, js, BucketTenders)
	if err != nil {
		return nil, fmt.Errorf("create tenders bucket: %w", err)
	}

	return &Store{tenders: tenders}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Tendercheck tender storage",
		History:     5, // Keep last 5 revisions
	})
}

// FindByID retrieves a tender by ID.
func (s *Store) FindByID(ctx context.Context, id string) (*tender.Tender, error) {
	entry, err := s.tenders.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, tender.ErrNotFound
		}
		return nil, fmt.Errorf("get tender: %w", err)
	}

	var t tender.Tender
	if err := json.Unmarshal(entry.Value(), &t); err != nil {
		return nil, fmt.Errorf("unmarshal tender: %w", err)
	}

	return &t, nil
}

// Save persists a tender, creating or overwriting its KV entry.
func (s *Store) Save(ctx context.Context, t *tender.Tender) error {
	if t.ID == "" {
		return fmt.Errorf("tender ID is required")
	}
	t.UpdatedAt = time.Now()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tender: %w", err)
	}

	if _, err := s.tenders.Put(ctx, t.ID, data); err != nil {
		return fmt.Errorf("store tender: %w", err)
	}

	return nil
}

// List returns all stored tenders. Entries that fail to load or decode
// are skipped.
func (s *Store) List(ctx context.Context) ([]*tender.Tender, error) {
	keys, err := s.tenders.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list tender keys: %w", err)
	}

	tenders := make([]*tender.Tender, 0, len(keys))
	for _, key := range keys {
		entry, err := s.tenders.Get(ctx, key)
		if err != nil {
			continue
		}
		var t tender.Tender
		if err := json.Unmarshal(entry.Value(), &t); err != nil {
			continue
		}
		tenders = append(tenders, &t)
	}

	return tenders, nil
}

// Delete removes a tender from the store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.tenders.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return tender.ErrNotFound
		}
		return fmt.Errorf("delete tender: %w", err)
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
