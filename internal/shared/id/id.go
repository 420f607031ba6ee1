// Package id provides centralized ULID generation for facet.
//
// IDs are lexicographically sortable and carry a type prefix (sess_, leaf_,
// card_) so logs stay readable and IDs cannot be mixed up across domains.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a client session.
type SessionID string

// LeafID identifies a module-tree leaf instance.
type LeafID string

// CardID identifies a collected report card.
type CardID string

const (
	SessionPrefix = "sess"
	LeafPrefix    = "leaf"
	CardPrefix    = "card"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewLeafID generates a new leaf ID.
func NewLeafID() LeafID {
	return LeafID(Default().GenerateWithPrefix(LeafPrefix))
}

// NewCardID generates a new report card ID.
func NewCardID() CardID {
	return CardID(Default().GenerateWithPrefix(CardPrefix))
}

func (id SessionID) String() string { return string(id) }
func (id LeafID) String() string    { return string(id) }
func (id CardID) String() string    { return string(id) }

// IsValid checks whether the payload after any type prefix is a valid ULID.
func IsValid(id string) bool {
	for i := 0; i < len(id); i++ {
		if id[i] == '_' {
			id = id[i+1:]
			break
		}
	}
	_, err := ulid.Parse(id)
	return err == nil
}
