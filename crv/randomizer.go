package crv

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sarchlab/verikit/txn"
)

// DefaultMaxAttempts is the number of independent draws tried before the
// randomizer falls back to enumerating the solution space.
const DefaultMaxAttempts = 1000

// A Randomizer draws constrained-random transactions. Two randomizers with
// the same seed produce the same sequence for the same specs.
type Randomizer struct {
	seed        int64
	rng         *rand.Rand
	MaxAttempts int
}

// NewRandomizer creates a randomizer with the given seed.
func NewRandomizer(seed int64) *Randomizer {
	return &Randomizer{
		seed:        seed,
		rng:         rand.New(rand.NewSource(seed)),
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Seed returns the seed the randomizer was created with.
func (r *Randomizer) Seed() int64 {
	return r.seed
}

// Draw returns an assignment of every field in the spec that satisfies all
// the constraints.
func (r *Randomizer) Draw(s *Spec) (Assignment, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		a := make(Assignment, len(s.fields))

		for i, f := range s.fields {
			a[f.Name] = r.pick(s.narrowed[i])
		}

		if holdsAll(s.remaining, a) {
			return a, nil
		}
	}

	return r.drawByEnumeration(s)
}

func (r *Randomizer) drawByEnumeration(s *Spec) (Assignment, error) {
	size, ok := s.spaceSize()
	if !ok || size > s.enumerLimit {
		return nil, fmt.Errorf("%w: no solution after %d attempts",
			ErrSearchExhausted, r.MaxAttempts)
	}

	var solutions []Assignment

	s.enumerate(func(a Assignment) bool {
		sol := make(Assignment, len(a))
		for k, v := range a {
			sol[k] = v
		}

		solutions = append(solutions, sol)

		return true
	})

	if len(solutions) == 0 {
		return nil, fmt.Errorf("%w: no combination satisfies %d constraints",
			ErrUnsatisfiable, len(s.constraints))
	}

	return solutions[r.rng.Intn(len(solutions))], nil
}

func (r *Randomizer) pick(d Domain) uint64 {
	if rd, ok := d.(rangeDomain); ok {
		if rd.full() {
			return r.rng.Uint64()
		}

		return rd.lo + r.below(rd.hi-rd.lo+1)
	}

	return d.At(r.below(d.Size()))
}

// below returns a uniform value in [0, n).
func (r *Randomizer) below(n uint64) uint64 {
	if n > math.MaxInt64 {
		for {
			v := r.rng.Uint64()
			if v < n {
				return v
			}
		}
	}

	return uint64(r.rng.Int63n(int64(n)))
}

// Generate draws a new transaction. Fields that the spec does not declare
// are left zero.
func (r *Randomizer) Generate(s *Spec) (*txn.Transaction, error) {
	a, err := r.Draw(s)
	if err != nil {
		return nil, err
	}

	t := txn.New()

	for _, f := range s.fields {
		if err := t.Set(f.Name, a[f.Name]); err != nil {
			return nil, err
		}
	}

	return t, nil
}
