// Package kv is the local key-value storage used for persisted client state
// such as the network mode and cached JSON responses.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	// ModeKey is the key holding the persisted network mode.
	ModeKey = "api_mode"

	// BaseURLKey holds an applied candidate origin that overrides the mode's origin.
	BaseURLKey = "api_base_url"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the store.
	Close() error
}

// PutJSON marshals v and stores it under key.
func PutJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return store.Set(ctx, key, string(data))
}

// GetJSON loads the value under key and unmarshals it into v.
func GetJSON(ctx context.Context, store Store, key string, v any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}
