// Package id hands out time-sortable run identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULIDs that sort by creation time and stay increasing
// within the same millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator builds a Generator on the given entropy source. A nil source
// uses crypto/rand.
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = cryptoRand.Reader
	}
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// At returns an ID stamped with t instead of the wall clock.
func (g *Generator) At(t time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (g *Generator) New() string {
	id, err := g.At(g.now())
	if err != nil {
		panic(err)
	}
	return id
}

var std = NewGenerator(nil)

// New returns a ULID string from the package generator.
func New() string {
	return std.New()
}

// Time extracts the timestamp embedded in an ID.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
