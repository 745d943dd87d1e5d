// Package id generates the identifiers used across the shell.
//
// Revisions, subscriptions and API requests use prefixed ULIDs so that
// persisted workspace revisions sort by the time they were written. Tab identifiers are uuids
// assigned by the editor surface.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RevisionID identifies a persisted workspace revision
type RevisionID string

// SubscriptionID identifies a host event subscription
type SubscriptionID string

// RequestID correlates the log lines of an API request
type RequestID string

const (
	RevisionPrefix     = "rev"
	SubscriptionPrefix = "sub"
	RequestPrefix      = "req"
)

// Generator generates monotonic ULIDs
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator reading from entropy. ULIDs generated
// within the same millisecond are strictly increasing.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRevisionID generates a workspace revision ID
func NewRevisionID() RevisionID {
	return RevisionID(Default().WithPrefix(RevisionPrefix))
}

// NewSubscriptionID generates a subscription ID
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().WithPrefix(SubscriptionPrefix))
}

// NewRequestID generates an API request ID
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(RequestPrefix))
}

func (id RevisionID) String() string     { return string(id) }
func (id SubscriptionID) String() string { return string(id) }
func (id RequestID) String() string      { return string(id) }

// Timestamp extracts the creation time of a prefixed or bare ULID
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()), nil
}
