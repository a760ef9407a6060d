package crv

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsatisfiable is returned when no value combination satisfies the
// declared domains and constraints.
var ErrUnsatisfiable = errors.New("crv: constraints unsatisfiable")

// ErrSearchExhausted is returned when random draws found no solution and the
// space is too large to enumerate. The spec may still be satisfiable.
var ErrSearchExhausted = errors.New("crv: constraint search exhausted")

// ErrInvalidSpec is returned for malformed randomization specs.
var ErrInvalidSpec = errors.New("crv: invalid spec")

// DefaultEnumerationLimit bounds how many values or combinations are ever
// enumerated.
const DefaultEnumerationLimit = 1 << 20

// A Field is a randomized field and its domain.
type Field struct {
	Name   string
	Domain Domain
}

// A Spec declares the randomized fields of a transaction and the
// constraints they must satisfy. A spec must not be changed once it has been
// used for generation.
type Spec struct {
	fields      []Field
	constraints []Constraint

	prepared    bool
	narrowed    []Domain
	remaining   []Constraint
	prepareErr  error
	enumerLimit uint64
}

// NewSpec creates an empty spec.
func NewSpec() *Spec {
	return &Spec{enumerLimit: DefaultEnumerationLimit}
}

// Rand declares a randomized field.
func (s *Spec) Rand(name string, d Domain) *Spec {
	s.fields = append(s.fields, Field{Name: name, Domain: d})
	s.prepared = false

	return s
}

// Constrain adds constraints.
func (s *Spec) Constrain(cs ...Constraint) *Spec {
	s.constraints = append(s.constraints, cs...)
	s.prepared = false

	return s
}

// Fields returns the declared fields in declaration order.
func (s *Spec) Fields() []Field {
	return s.fields
}

// Constraints returns the declared constraints.
func (s *Spec) Constraints() []Constraint {
	return s.constraints
}

// Validate checks that the spec is well formed.
func (s *Spec) Validate() error {
	names := make(map[string]bool, len(s.fields))

	for _, f := range s.fields {
		if names[f.Name] {
			return fmt.Errorf("%w: field %q declared twice", ErrInvalidSpec, f.Name)
		}

		if f.Domain == nil || f.Domain.Size() == 0 {
			return fmt.Errorf("%w: field %q has an empty domain",
				ErrInvalidSpec, f.Name)
		}

		names[f.Name] = true
	}

	for _, c := range s.constraints {
		if len(c.Fields) == 0 {
			return fmt.Errorf("%w: constraint %q uses no field",
				ErrInvalidSpec, c.Name)
		}

		for _, f := range c.Fields {
			if !names[f] {
				return fmt.Errorf("%w: constraint %q uses undeclared field %q",
					ErrInvalidSpec, c.Name, f)
			}
		}
	}

	return nil
}

// CheckSatisfiable reports ErrUnsatisfiable if it can prove that no
// combination satisfies the spec. Interval and value-set constraints are
// decided exactly. Specs whose remaining space is too large to enumerate are
// assumed satisfiable.
func (s *Spec) CheckSatisfiable() error {
	if err := s.prepare(); err != nil {
		return err
	}

	size, ok := s.spaceSize()
	if !ok || size > s.enumerLimit {
		return nil
	}

	found := false
	s.enumerate(func(Assignment) bool {
		found = true
		return false
	})

	if !found {
		return fmt.Errorf("%w: no combination satisfies %d constraints",
			ErrUnsatisfiable, len(s.constraints))
	}

	return nil
}

func (s *Spec) prepare() error {
	if s.prepared {
		return s.prepareErr
	}

	s.prepared = true
	s.prepareErr = s.Validate()

	if s.prepareErr != nil {
		return s.prepareErr
	}

	s.narrowed = make([]Domain, len(s.fields))
	handled := make([]bool, len(s.constraints))

	for i, f := range s.fields {
		d := s.narrow(f, handled)
		if d.Size() == 0 {
			s.prepareErr = fmt.Errorf("%w: no value of %q in %s satisfies its constraints",
				ErrUnsatisfiable, f.Name, f.Domain)
			return s.prepareErr
		}

		s.narrowed[i] = d
	}

	s.remaining = nil
	for i, c := range s.constraints {
		if !handled[i] {
			s.remaining = append(s.remaining, c)
		}
	}

	return nil
}

// narrow applies a field's single-field constraints to its domain and marks
// the constraints it has applied in handled. Interval and value-set
// constraints are applied directly. Other predicates are applied by visiting
// the values, which is skipped for domains too large to enumerate.
func (s *Spec) narrow(f Field, handled []bool) Domain {
	d := f.Domain

	var rest []int

	for i, c := range s.constraints {
		if len(c.Fields) != 1 || c.Fields[0] != f.Name {
			continue
		}

		switch {
		case c.bounded:
			d = clip(d, c.lo, c.hi)
		case c.set != nil:
			d = c.set.filter(d.Contains)
		default:
			rest = append(rest, i)
			continue
		}

		handled[i] = true
	}

	if len(rest) == 0 || d.Size() > s.enumerLimit {
		return d
	}

	values := make([]uint64, 0)
	a := Assignment{}

	for i := uint64(0); i < d.Size(); i++ {
		v := d.At(i)
		a[f.Name] = v

		if s.holdsAt(rest, a) {
			values = append(values, v)
		}
	}

	for _, i := range rest {
		handled[i] = true
	}

	return Values(values...)
}

func (s *Spec) holdsAt(indexes []int, a Assignment) bool {
	for _, i := range indexes {
		if !s.constraints[i].Holds(a) {
			return false
		}
	}

	return true
}

func clip(d Domain, lo, hi uint64) Domain {
	switch d := d.(type) {
	case rangeDomain:
		return d.clip(lo, hi)
	case valueDomain:
		return d.filter(func(v uint64) bool { return v >= lo && v <= hi })
	default:
		values := make([]uint64, 0)
		for i := uint64(0); i < d.Size(); i++ {
			if v := d.At(i); v >= lo && v <= hi {
				values = append(values, v)
			}
		}

		return Values(values...)
	}
}

func (s *Spec) spaceSize() (uint64, bool) {
	size := uint64(1)

	for _, d := range s.narrowed {
		if d.Size() > math.MaxUint64/size {
			return 0, false
		}

		size *= d.Size()
	}

	return size, true
}

// enumerate visits every solution in lexicographic order until visit
// returns false.
func (s *Spec) enumerate(visit func(a Assignment) bool) {
	a := make(Assignment, len(s.fields))
	s.enumerateFrom(0, a, visit)
}

func (s *Spec) enumerateFrom(
	i int,
	a Assignment,
	visit func(a Assignment) bool,
) bool {
	if i == len(s.fields) {
		if !holdsAll(s.remaining, a) {
			return true
		}

		return visit(a)
	}

	d := s.narrowed[i]
	for j := uint64(0); j < d.Size(); j++ {
		a[s.fields[i].Name] = d.At(j)

		if !s.enumerateFrom(i+1, a, visit) {
			return false
		}
	}

	return true
}

func holdsAll(cs []Constraint, a Assignment) bool {
	for _, c := range cs {
		if !c.Holds(a) {
			return false
		}
	}

	return true
}
