// Package embedservice wraps a single embeddproviders.Provider with a
// content-addressed, persistent cache so repeated embedding requests for
// the same text never re-invoke the provider.
package embedservice

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"sync"

	errors "github.com/Laisky/errors/v2"
	"github.com/gofrs/flock"
)

// cache is a flat directory of files named by digest(text + provider
// dimension tag), each holding a raw float32 vector in a small portable
// binary layout (4-byte little-endian dimension count, then that many
// 4-byte little-endian IEEE-754 floats). Entries are immutable once
// written: concurrent writers of the same key race harmlessly because
// the provider is deterministic, so whichever write wins is correct.
type cache struct {
	dir  string
	lock *flock.Flock

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

func newCache(dir string) (*cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create embedding cache directory")
	}
	return &cache{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".write.lock")),
	}, nil
}

// digestKey derives the cache key for text under the given provider tag
// (name + dimension), e.g. "word-average-300".
func digestKey(text, providerTag string) string {
	h := sha256.Sum256([]byte(providerTag + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func (c *cache) path(key string) string {
	return filepath.Join(c.dir, key)
}

func (c *cache) get(key string) ([]float32, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	v, ok := decodeVector(data)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return v, ok
}

func (c *cache) put(key string, v []float32) error {
	if err := c.lock.Lock(); err != nil {
		return errors.Wrap(err, "acquire embedding cache lock")
	}
	defer c.lock.Unlock()

	data := encodeVector(v)
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write embedding cache entry")
	}
	return os.Rename(tmp, c.path(key))
}

func (c *cache) clear() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "create embedding cache directory")
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.Wrap(err, "read embedding cache directory")
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return errors.Wrap(err, "remove embedding cache entry")
		}
	}
	c.mu.Lock()
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
	return nil
}

func (c *cache) stats() (total int, hits, misses uint64) {
	entries, _ := os.ReadDir(c.dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".tmp" && e.Name() != ".write.lock" {
			total++
		}
	}
	c.mu.Lock()
	hits, misses = c.hits, c.misses
	c.mu.Unlock()
	return total, hits, misses
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4+4*len(v))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, bool) {
	if len(data) < 4 {
		return nil, false
	}
	n := binary.LittleEndian.Uint32(data[0:4])
	if len(data) != int(4+4*n) {
		return nil, false
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i : 8+4*i]))
	}
	return v, true
}
