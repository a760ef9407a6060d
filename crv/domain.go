// Package crv provides constrained-random generation of transactions.
//
// Each randomized field draws from a finite domain. Constraints are named
// predicates over one or more fields. The randomizer first narrows each
// domain by the constraints that only involve that field, then draws fields
// independently and re-draws until the multi-field constraints hold.
package crv

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// A Domain is a finite, enumerable set of legal values. Size saturates at
// math.MaxUint64, so the full 64-bit range reports one value less than it
// holds.
type Domain interface {
	Size() uint64
	At(i uint64) uint64
	Contains(v uint64) bool
	String() string
}

type rangeDomain struct {
	lo, hi uint64
}

// Range returns the domain of all values from lo to hi, both included. The
// domain is empty if lo > hi.
func Range(lo, hi uint64) Domain {
	return rangeDomain{lo: lo, hi: hi}
}

func (d rangeDomain) Size() uint64 {
	if d.lo > d.hi {
		return 0
	}

	if d.full() {
		return math.MaxUint64
	}

	return d.hi - d.lo + 1
}

func (d rangeDomain) full() bool {
	return d.lo == 0 && d.hi == math.MaxUint64
}

// clip returns the part of d within [lo, hi].
func (d rangeDomain) clip(lo, hi uint64) rangeDomain {
	return rangeDomain{lo: max(d.lo, lo), hi: min(d.hi, hi)}
}

func (d rangeDomain) At(i uint64) uint64 {
	if i >= d.Size() {
		panic(fmt.Sprintf("crv: index %d out of range %s", i, d))
	}

	return d.lo + i
}

func (d rangeDomain) Contains(v uint64) bool {
	return v >= d.lo && v <= d.hi
}

func (d rangeDomain) String() string {
	return fmt.Sprintf("[%d, %d]", d.lo, d.hi)
}

type valueDomain struct {
	values []uint64
}

// Values returns the domain made of the given values. Duplicates are
// removed and the values are kept in ascending order.
func Values(vs ...uint64) Domain {
	seen := make(map[uint64]bool, len(vs))
	values := make([]uint64, 0, len(vs))

	for _, v := range vs {
		if seen[v] {
			continue
		}

		seen[v] = true
		values = append(values, v)
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return valueDomain{values: values}
}

func (d valueDomain) Size() uint64 {
	return uint64(len(d.values))
}

func (d valueDomain) At(i uint64) uint64 {
	return d.values[i]
}

func (d valueDomain) Contains(v uint64) bool {
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= v })
	return i < len(d.values) && d.values[i] == v
}

func (d valueDomain) filter(keep func(v uint64) bool) valueDomain {
	values := make([]uint64, 0, len(d.values))

	for _, v := range d.values {
		if keep(v) {
			values = append(values, v)
		}
	}

	return valueDomain{values: values}
}

func (d valueDomain) String() string {
	parts := make([]string, len(d.values))
	for i, v := range d.values {
		parts[i] = fmt.Sprint(v)
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
