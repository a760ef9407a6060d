// Package id generates identifiers for transactions and events.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

var (
	generatorLock sync.Mutex
	generator     IDGenerator
)

// NewIDGenerator returns a sequential generator whose first ID is "1".
// Sequential IDs keep seeded runs reproducible.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewParallelIDGenerator returns a generator that is safe to share across
// goroutines without coordination. Its IDs are not deterministic.
func NewParallelIDGenerator() IDGenerator {
	return parallelIDGenerator{}
}

// Generate returns an ID from the process-wide generator.
func Generate() string {
	generatorLock.Lock()
	if generator == nil {
		generator = NewIDGenerator()
	}
	g := generator
	generatorLock.Unlock()

	return g.Generate()
}

// UseGenerator replaces the process-wide generator.
func UseGenerator(g IDGenerator) {
	generatorLock.Lock()
	generator = g
	generatorLock.Unlock()
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type parallelIDGenerator struct {
}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
