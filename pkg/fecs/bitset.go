package fecs

import (
	"strings"

	"github.com/argus-labs/fecs/pkg/assert"
	"github.com/bits-and-blooms/bitset"
	"github.com/rotisserie/eris"
)

// Bitset is a fixed length bit vector. A component signature is a Bitset with one bit per registered
// component type. The length is set by NewBitset and never changes; indexing past it and combining
// bitsets of different lengths are programmer errors and panic.
//
// Bitset values share their backing words. Use Clone to get an independent copy.
type Bitset struct {
	bits *bitset.BitSet
}

// NewBitset returns a Bitset of n unset bits.
func NewBitset(n int) Bitset {
	assert.That(n >= 0, "negative bitset length %d", n)
	return Bitset{bits: bitset.New(uint(n))}
}

// Len returns the number of bits in the set.
func (b Bitset) Len() int {
	return int(b.words().Len()) //nolint:gosec // lengths come from int
}

// Set sets bit i.
func (b Bitset) Set(i int) {
	b.checkIndex(i)
	b.bits.Set(uint(i))
}

// Reset clears bit i.
func (b Bitset) Reset(i int) {
	b.checkIndex(i)
	b.bits.Clear(uint(i))
}

// Flip toggles bit i.
func (b Bitset) Flip(i int) {
	b.checkIndex(i)
	b.bits.Flip(uint(i))
}

// Test reports whether bit i is set.
func (b Bitset) Test(i int) bool {
	b.checkIndex(i)
	return b.bits.Test(uint(i))
}

// And returns b & other.
func (b Bitset) And(other Bitset) Bitset {
	b.checkLen(other)
	return b.wrap(b.words().Intersection(other.words()))
}

// Or returns b | other.
func (b Bitset) Or(other Bitset) Bitset {
	b.checkLen(other)
	return b.wrap(b.words().Union(other.words()))
}

// Xor returns b ^ other.
func (b Bitset) Xor(other Bitset) Bitset {
	b.checkLen(other)
	return b.wrap(b.words().SymmetricDifference(other.words()))
}

// Not returns the complement of b. Only the Len bits are flipped.
func (b Bitset) Not() Bitset {
	return b.wrap(b.words().Complement())
}

// AndAssign sets b to b & other.
func (b Bitset) AndAssign(other Bitset) {
	b.checkLen(other)
	b.words().InPlaceIntersection(other.words())
}

// OrAssign sets b to b | other.
func (b Bitset) OrAssign(other Bitset) {
	b.checkLen(other)
	b.words().InPlaceUnion(other.words())
}

// XorAssign sets b to b ^ other.
func (b Bitset) XorAssign(other Bitset) {
	b.checkLen(other)
	b.words().InPlaceSymmetricDifference(other.words())
}

// Contains reports whether every bit set in sub is also set in b.
func (b Bitset) Contains(sub Bitset) bool {
	b.checkLen(sub)
	return b.words().IsSuperSet(sub.words())
}

// Equal reports whether both bitsets have the same length and bits.
func (b Bitset) Equal(other Bitset) bool {
	return b.words().Equal(other.words())
}

// Count returns the number of set bits.
func (b Bitset) Count() int {
	return int(b.words().Count()) //nolint:gosec // bounded by Len
}

// None reports whether no bit is set.
func (b Bitset) None() bool {
	return b.words().None()
}

// ClearAll clears every bit.
func (b Bitset) ClearAll() {
	if b.bits != nil {
		b.bits.ClearAll()
	}
}

// Range calls fn with the index of every set bit in ascending order.
func (b Bitset) Range(fn func(i int)) {
	bits := b.words()
	for i, ok := bits.NextSet(0); ok; i, ok = bits.NextSet(i + 1) {
		fn(int(i)) //nolint:gosec // bounded by Len
	}
}

// Clone returns an independent copy of b.
func (b Bitset) Clone() Bitset {
	return Bitset{bits: b.words().Clone()}
}

// String renders the bits most significant first, e.g. "0101" for bits 0 and 2 of a 4 bit set.
func (b Bitset) String() string {
	var sb strings.Builder
	sb.Grow(b.Len())
	bits := b.words()
	for i := b.Len() - 1; i >= 0; i-- {
		if bits.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// words returns the backing set, treating the zero Bitset as a set of length 0.
func (b Bitset) words() *bitset.BitSet {
	if b.bits == nil {
		return bitset.New(0)
	}
	return b.bits
}

func (b Bitset) wrap(bits *bitset.BitSet) Bitset {
	assert.That(int(bits.Len()) == b.Len(), "bitset operator changed length") //nolint:gosec // it's ok
	return Bitset{bits: bits}
}

// checkIndex panics in every build, release included, since the backing set would otherwise grow
// past Len on Set.
func (b Bitset) checkIndex(i int) {
	if i < 0 || i >= b.Len() {
		panic(eris.Wrapf(ErrIndexOutOfRange, "bit %d not in [0, %d)", i, b.Len()))
	}
}

func (b Bitset) checkLen(other Bitset) {
	if b.Len() != other.Len() {
		panic(eris.Wrapf(ErrLengthMismatch, "%d != %d", b.Len(), other.Len()))
	}
}
