package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore is a Store shared between server instances, backed by Valkey
// (or any Redis-compatible server)
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore connects to the Valkey server at addr. Keys are namespaced with
// prefix so several services can share one server.
func NewValkeyStore(addr, prefix string) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewValkeyStoreWithClient(client, prefix), nil
}

// NewValkeyStoreWithClient wraps an existing client
func NewValkeyStoreWithClient(client valkey.Client, prefix string) *ValkeyStore {
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get decodes the value for key into dst
func (s *ValkeyStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return true, nil
}

// Set stores value under key with an expiry of ttl. A ttl of zero or less is
// already expired, so nothing is written.
func (s *ValkeyStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}
	set := s.client.B().Set().Key(s.prefix + key).Value(string(b))
	var cmd valkey.Completed
	if ttl%time.Second == 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		// PX truncates to whole milliseconds; round up so a short TTL never
		// becomes zero
		cmd = set.Px(ttl + time.Millisecond - 1).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Close releases the client
func (s *ValkeyStore) Close() {
	s.client.Close()
}

var _ Store = (*ValkeyStore)(nil)
