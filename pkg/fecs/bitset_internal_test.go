package fecs

import (
	"math/rand/v2"
	"testing"

	"github.com/argus-labs/fecs/pkg/testutils"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomBits returns a random Bitset of length n together with the same bits as a bool slice.
func randomBits(prng *rand.Rand, n int) (Bitset, []bool) {
	b := NewBitset(n)
	ref := make([]bool, n)
	for i := range n {
		if prng.IntN(2) == 1 {
			b.Set(i)
			ref[i] = true
		}
	}
	return b, ref
}

func assertBits(t *testing.T, want []bool, got Bitset) {
	t.Helper()
	require.Equal(t, len(want), got.Len())
	for i, bit := range want {
		require.Equal(t, bit, got.Test(i), "bit %d", i)
	}
}

func TestBitset_SetResetFlip(t *testing.T) {
	t.Parallel()

	b := NewBitset(10)
	assert.Equal(t, 10, b.Len())
	assert.True(t, b.None())

	b.Set(3)
	b.Set(9)
	assert.True(t, b.Test(3))
	assert.True(t, b.Test(9))
	assert.False(t, b.Test(0))
	assert.Equal(t, 2, b.Count())

	b.Reset(3)
	assert.False(t, b.Test(3))
	b.Flip(0)
	b.Flip(9)
	assert.True(t, b.Test(0))
	assert.False(t, b.Test(9))
	assert.Equal(t, 1, b.Count())

	b.ClearAll()
	assert.True(t, b.None())
	assert.Equal(t, 10, b.Len())
}

func TestBitset_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   func(b Bitset)
	}{
		{name: "set past end", op: func(b Bitset) { b.Set(4) }},
		{name: "reset negative", op: func(b Bitset) { b.Reset(-1) }},
		{name: "flip past end", op: func(b Bitset) { b.Flip(100) }},
		{name: "test past end", op: func(b Bitset) { b.Test(4) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, eris.Is(err, ErrIndexOutOfRange))
			}()
			tt.op(NewBitset(4))
		})
	}
}

// TestBitset_Algebra compares every operator against the same operation on bool slices for random
// inputs of lengths on and around word boundaries.
func TestBitset_Algebra(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	for _, n := range []int{0, 1, 7, 63, 64, 65, 128, 200} {
		for range 20 {
			a, refA := randomBits(prng, n)
			b, refB := randomBits(prng, n)

			and := make([]bool, n)
			or := make([]bool, n)
			xor := make([]bool, n)
			not := make([]bool, n)
			superset := true
			for i := range n {
				and[i] = refA[i] && refB[i]
				or[i] = refA[i] || refB[i]
				xor[i] = refA[i] != refB[i]
				not[i] = !refA[i]
				if refB[i] && !refA[i] {
					superset = false
				}
			}

			assertBits(t, and, a.And(b))
			assertBits(t, or, a.Or(b))
			assertBits(t, xor, a.Xor(b))
			assertBits(t, not, a.Not())
			assert.Equal(t, superset, a.Contains(b))

			// Operators don't touch their operands.
			assertBits(t, refA, a)
			assertBits(t, refB, b)

			c := a.Clone()
			c.AndAssign(b)
			assertBits(t, and, c)
			c = a.Clone()
			c.OrAssign(b)
			assertBits(t, or, c)
			c = a.Clone()
			c.XorAssign(b)
			assertBits(t, xor, c)
			assertBits(t, refA, a)
		}
	}
}

func TestBitset_Contains(t *testing.T) {
	t.Parallel()

	sig := NewBitset(8)
	sig.Set(0)
	sig.Set(2)

	tests := []struct {
		name string
		bits []int
		want bool
	}{
		{name: "empty requirement", bits: nil, want: true},
		{name: "subset", bits: []int{2}, want: true},
		{name: "equal", bits: []int{0, 2}, want: true},
		{name: "extra bit", bits: []int{0, 1}, want: false},
		{name: "disjoint", bits: []int{5}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := NewBitset(8)
			for _, bit := range tt.bits {
				req.Set(bit)
			}
			assert.Equal(t, tt.want, sig.Contains(req))
		})
	}
}

func TestBitset_LengthMismatchPanics(t *testing.T) {
	t.Parallel()

	a := NewBitset(8)
	b := NewBitset(9)

	ops := map[string]func(){
		"and":      func() { a.And(b) },
		"or":       func() { a.Or(b) },
		"xor":      func() { a.Xor(b) },
		"and eq":   func() { a.AndAssign(b) },
		"or eq":    func() { a.OrAssign(b) },
		"xor eq":   func() { a.XorAssign(b) },
		"contains": func() { a.Contains(b) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, eris.Is(err, ErrLengthMismatch))
			}()
			op()
		})
	}
}

func TestBitset_EqualCloneString(t *testing.T) {
	t.Parallel()

	a := NewBitset(4)
	a.Set(0)
	a.Set(2)
	assert.Equal(t, "0101", a.String())

	c := a.Clone()
	assert.True(t, a.Equal(c))
	c.Set(3)
	assert.False(t, a.Equal(c))
	assert.Equal(t, "0101", a.String())
	assert.Equal(t, "1101", c.String())

	// Same bits but different lengths are not equal.
	assert.False(t, NewBitset(4).Equal(NewBitset(5)))

	var zero Bitset
	assert.Equal(t, 0, zero.Len())
	assert.True(t, zero.None())
	assert.Empty(t, zero.String())
}

func TestBitset_Range(t *testing.T) {
	t.Parallel()

	b := NewBitset(130)
	want := []int{0, 63, 64, 129}
	for _, i := range want {
		b.Set(i)
	}

	var got []int
	b.Range(func(i int) { got = append(got, i) })
	assert.Equal(t, want, got)
}
