package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

var (
	// ErrSecretMissing reports a lookup key absent from the secret payload.
	// Publishers treat this as fatal and never retry it.
	ErrSecretMissing = errors.New("secrets: secret not found")
	// ErrEmptyPayload reports an upstream payload with no data at all.
	ErrEmptyPayload = errors.New("secrets: no data in secret payload")
)

// Cache holds the deployment's secret payload, fetched once from the backing
// store on first use. It is created at startup and passed by reference into
// the components that need it; there is no package-level state.
type Cache struct {
	store  interfaces.SecretStore
	mu     sync.Mutex
	values map[string]string
}

// NewCache wraps the supplied store.
func NewCache(store interfaces.SecretStore) *Cache {
	return &Cache{store: store}
}

// Get returns the credential registered under key, fetching the payload from
// the store on the first call.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		payload, err := c.store.Fetch(ctx)
		if err != nil {
			return "", fmt.Errorf("secrets: fetch payload: %w", err)
		}
		if len(payload) == 0 {
			return "", ErrEmptyPayload
		}
		c.values = payload
	}

	value, ok := c.values[key]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretMissing, key)
	}
	return value, nil
}

// Static is a fixed-payload SecretStore for tests and local runs.
type Static map[string]string

// Fetch satisfies interfaces.SecretStore.
func (s Static) Fetch(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out, nil
}

// EnvStore reads secrets from environment variables sharing a prefix; the
// remainder of each variable name, lowercased, becomes the lookup key
// (CROSSPOST_SECRET_DEV → "dev").
type EnvStore struct {
	Prefix string
}

// Fetch satisfies interfaces.SecretStore.
func (s EnvStore) Fetch(context.Context) (map[string]string, error) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "CROSSPOST_SECRET_"
	}
	payload := map[string]string{}
	for _, pair := range os.Environ() {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if key != "" && value != "" {
			payload[key] = value
		}
	}
	return payload, nil
}
