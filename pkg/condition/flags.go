// Package condition defines model condition flags: the fixed-width bitset
// describing a drawable's visual state (damaged, night, moving, ...).
package condition

import (
	"fmt"
	"math/bits"
	"strings"
)

const words = 2

// Fails to compile if Count outgrows the backing array.
const _ = uint(words*64 - Count)

// Flags is a fixed-width set of condition bits. It is a value type and
// may be used as a map key.
type Flags [words]uint64

// None returns the empty set.
func None() Flags { return Flags{} }

// New returns a set with the given bits set.
func New(bs ...Bit) Flags {
	var f Flags
	for _, b := range bs {
		f.Set(b, true)
	}
	return f
}

// Parse builds a set from condition names. Names are matched ignoring case.
// The name "NONE" is accepted and contributes no bits.
func Parse(names []string) (Flags, error) {
	var f Flags
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), "NONE") {
			continue
		}
		b, err := ParseBit(name)
		if err != nil {
			return Flags{}, err
		}
		f.Set(b, true)
	}
	return f, nil
}

func checkBit(b Bit) {
	if !b.Valid() {
		panic(fmt.Sprintf("condition: bit %d out of range [0,%d)", int(b), Count))
	}
}

// Test reports whether bit b is set.
func (f Flags) Test(b Bit) bool {
	checkBit(b)
	return f[b/64]&(1<<(uint(b)%64)) != 0
}

// Set sets or clears bit b.
func (f *Flags) Set(b Bit, val bool) {
	checkBit(b)
	if val {
		f[b/64] |= 1 << (uint(b) % 64)
	} else {
		f[b/64] &^= 1 << (uint(b) % 64)
	}
}

// Clear clears every bit present in mask.
func (f *Flags) Clear(mask Flags) {
	for i := range f {
		f[i] &^= mask[i]
	}
}

// Cleared returns a copy of f with the bits of mask removed.
func (f Flags) Cleared(mask Flags) Flags {
	f.Clear(mask)
	return f
}

// Union returns the bits set in either f or o.
func (f Flags) Union(o Flags) Flags {
	for i := range f {
		f[i] |= o[i]
	}
	return f
}

// Any reports whether any bit is set.
func (f Flags) Any() bool {
	for _, w := range f {
		if w != 0 {
			return true
		}
	}
	return false
}

// AnyIntersectionWith reports whether f and o share a set bit.
func (f Flags) AnyIntersectionWith(o Flags) bool {
	for i := range f {
		if f[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (f Flags) Count() int {
	n := 0
	for _, w := range f {
		n += bits.OnesCount64(w)
	}
	return n
}

// CountIntersection returns the number of bits set in both f and o.
func (f Flags) CountIntersection(o Flags) int {
	n := 0
	for i := range f {
		n += bits.OnesCount64(f[i] & o[i])
	}
	return n
}

// CountInverseIntersection returns the number of bits set in o but not in f.
// With f as a query and o as an authored pattern, this counts the pattern
// bits the query does not ask for.
func (f Flags) CountInverseIntersection(o Flags) int {
	n := 0
	for i := range f {
		n += bits.OnesCount64(o[i] &^ f[i])
	}
	return n
}

// Bits returns the set bits in ascending order.
func (f Flags) Bits() []Bit {
	var out []Bit
	for i, w := range f {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, Bit(i*64+tz))
			w &^= 1 << uint(tz)
		}
	}
	return out
}

// String renders the set bits by name, e.g. "DAMAGED NIGHT".
// The empty set renders as "NONE".
func (f Flags) String() string {
	bs := f.Bits()
	if len(bs) == 0 {
		return "NONE"
	}
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.String()
	}
	return strings.Join(names, " ")
}
