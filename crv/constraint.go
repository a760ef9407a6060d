package crv

import (
	"fmt"
	"math"
)

// An Assignment maps field names to drawn values.
type Assignment map[string]uint64

// A Constraint is a named predicate over one or more fields.
//
// Single-field constraints built by this package also know the values they
// allow, as a closed interval or a value set, so that a domain can be
// narrowed without visiting its values.
type Constraint struct {
	Name   string
	Fields []string
	pred   func(a Assignment) bool

	bounded bool
	lo, hi  uint64
	set     *valueDomain
}

// Holds evaluates the constraint.
func (c Constraint) Holds(a Assignment) bool {
	return c.pred(a)
}

// Where creates a constraint from an arbitrary predicate over the listed
// fields.
func Where(
	name string,
	fields []string,
	pred func(a Assignment) bool,
) Constraint {
	return Constraint{Name: name, Fields: fields, pred: pred}
}

func single(field, name string, pred func(v uint64) bool) Constraint {
	return Constraint{
		Name:   name,
		Fields: []string{field},
		pred: func(a Assignment) bool {
			return pred(a[field])
		},
	}
}

func interval(field, name string, lo, hi uint64) Constraint {
	c := single(field, name, func(x uint64) bool { return x >= lo && x <= hi })
	c.bounded = true
	c.lo, c.hi = lo, hi

	return c
}

// Equal requires field == v.
func Equal(field string, v uint64) Constraint {
	return interval(field, fmt.Sprintf("%s == %d", field, v), v, v)
}

// NotEqual requires field != v.
func NotEqual(field string, v uint64) Constraint {
	return single(field, fmt.Sprintf("%s != %d", field, v),
		func(x uint64) bool { return x != v })
}

// LessThan requires field < v.
func LessThan(field string, v uint64) Constraint {
	name := fmt.Sprintf("%s < %d", field, v)
	if v == 0 {
		return interval(field, name, 1, 0)
	}

	return interval(field, name, 0, v-1)
}

// AtMost requires field <= v.
func AtMost(field string, v uint64) Constraint {
	return interval(field, fmt.Sprintf("%s <= %d", field, v), 0, v)
}

// AtLeast requires field >= v.
func AtLeast(field string, v uint64) Constraint {
	return interval(field, fmt.Sprintf("%s >= %d", field, v), v, math.MaxUint64)
}

// InRange requires lo <= field <= hi.
func InRange(field string, lo, hi uint64) Constraint {
	return interval(field, fmt.Sprintf("%s in [%d, %d]", field, lo, hi), lo, hi)
}

// OneOf requires field to be one of the listed values.
func OneOf(field string, vs ...uint64) Constraint {
	d := Values(vs...).(valueDomain)

	c := single(field, fmt.Sprintf("%s in %s", field, d), d.Contains)
	c.set = &d

	return c
}
