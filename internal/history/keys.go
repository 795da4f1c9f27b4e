package history

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator produces location keys. Keys identify history entries.
// Implemented by UUIDv7KeyGenerator (production) and FixedKeyGenerator (tests).
type KeyGenerator interface {
	Generate() string
}

// UUIDv7KeyGenerator generates time-sortable UUIDv7 location keys.
//
// Thread-safety: UUIDv7KeyGenerator is stateless and safe for concurrent use.
type UUIDv7KeyGenerator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7KeyGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedKeyGenerator returns predetermined keys in order, then falls back to
// a numbered sequence "<prefix>-N" once the list is exhausted.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedKeyGenerator struct {
	mu     sync.Mutex
	keys   []string
	idx    int
	prefix string
}

// NewFixedKeyGenerator creates a generator that returns keys in order.
//
//	gen := NewFixedKeyGenerator("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // "key-3"
func NewFixedKeyGenerator(keys ...string) *FixedKeyGenerator {
	return &FixedKeyGenerator{keys: keys, prefix: "key"}
}

// NewSequentialKeyGenerator creates a generator returning "<prefix>-1",
// "<prefix>-2", and so on.
func NewSequentialKeyGenerator(prefix string) *FixedKeyGenerator {
	return &FixedKeyGenerator{prefix: prefix}
}

// Generate returns the next key.
func (g *FixedKeyGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.keys) {
		return g.keys[g.idx-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.idx)
}
