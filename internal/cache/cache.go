package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key, e.g. Key("redirect", url)
func Key(namespace, raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return "borrowbot:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// GetStrings reads a JSON-encoded string slice. A nil cache always misses.
func GetStrings(c Cache, key string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	data, found := c.Get(key)
	if !found {
		return nil, false
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false
	}
	return values, true
}

// SetStrings stores a string slice as JSON. A nil cache is a no-op.
func SetStrings(c Cache, key string, values []string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
