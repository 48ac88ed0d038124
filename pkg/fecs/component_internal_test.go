package fecs

import (
	"testing"

	. "github.com/argus-labs/fecs/pkg/testutils"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComponentRegistry(width int) componentRegistry {
	return newComponentRegistry(newSignatureIndex(width, 0), 0)
}

func TestComponentType_Identity(t *testing.T) {
	t.Parallel()

	// Distinct Go types are distinct components even when their layout matches.
	assert.NotEqual(t, TypeOf[Position](), TypeOf[Velocity]())
	assert.NotEqual(t, TypeOf[uint32](), TypeOf[Counter]())
	assert.Equal(t, TypeOf[Health](), TypeOf[Health]())

	tests := []struct {
		name  string
		ctype ComponentType
		want  string
	}{
		{name: "Namer", ctype: TypeOf[Health](), want: "Health"},
		{name: "named type", ctype: TypeOf[Position](), want: "Position"},
		{name: "builtin", ctype: TypeOf[uint32](), want: "uint32"},
		{name: "unnamed type", ctype: TypeOf[[]int](), want: "[]int"},
		{name: "pointer to Namer", ctype: TypeOf[*Health](), want: "*testutils.Health"},
		{name: "Namer interface", ctype: TypeOf[Namer](), want: "Namer"},
		{name: "empty interface", ctype: TypeOf[any](), want: "interface {}"},
		{name: "zero", ctype: ComponentType{}, want: "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctype.Name())
			assert.Equal(t, tt.want, tt.ctype.String())
		})
	}
}

func TestComponentRegistry_Register(t *testing.T) {
	t.Parallel()

	cr := newTestComponentRegistry(2)

	s, created, err := register[Position](&cr)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, s.bit())

	again, created, err := register[Position](&cr)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)

	s2, created, err := register[uint32](&cr)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, s2.bit())
	assert.Equal(t, TypeOf[uint32](), s2.componentType())

	// Capacity is checked before anything is created.
	_, _, err = register[Velocity](&cr)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCapacityExceeded))
	assert.Nil(t, storeFor[Velocity](&cr))
	assert.Len(t, cr.byBit, 2)
	_, ok := cr.signatures.bit(TypeOf[Velocity]())
	assert.False(t, ok)

	// Known types still register at capacity.
	_, created, err = register[Position](&cr)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestComponentRegistry_AttachDetach(t *testing.T) {
	t.Parallel()

	cr := newTestComponentRegistry(8)
	e := newEntity(3, 0)

	require.NoError(t, attach(&cr, e, Health{Value: 10}))
	require.NoError(t, attach(&cr, e, Position{X: 1}))
	assert.True(t, has[Health](&cr, e))
	assert.True(t, has[Position](&cr, e))
	assert.False(t, has[Velocity](&cr, e))

	sig := cr.signatures.signatureOf(e)
	assert.Equal(t, "00000011", sig.String())

	// Overwrite keeps one value.
	require.NoError(t, attach(&cr, e, Health{Value: 20}))
	n, err := length[Health](&cr)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, ok := get[Health](&cr, e)
	assert.True(t, ok)
	assert.Equal(t, 20, got.Value)

	p, ok := getMut[Position](&cr, e)
	require.True(t, ok)
	p.Y = 5
	pos, _ := get[Position](&cr, e)
	assert.Equal(t, Position{X: 1, Y: 5}, pos)

	require.NoError(t, detach[Health](&cr, e))
	assert.False(t, has[Health](&cr, e))
	assert.Equal(t, "00000010", cr.signatures.signatureOf(e).String())

	err = detach[Health](&cr, e)
	assert.True(t, eris.Is(err, ErrComponentNotPresent))

	err = detach[Velocity](&cr, e)
	assert.True(t, eris.Is(err, ErrComponentNotRegistered))

	_, err = length[Velocity](&cr)
	assert.True(t, eris.Is(err, ErrComponentNotRegistered))

	_, ok = get[Velocity](&cr, e)
	assert.False(t, ok)
	_, ok = getMut[Velocity](&cr, e)
	assert.False(t, ok)
}

func TestComponentRegistry_DetachAll(t *testing.T) {
	t.Parallel()

	cr := newTestComponentRegistry(8)
	a := newEntity(0, 0)
	b := newEntity(1, 0)

	require.NoError(t, attach(&cr, a, Health{Value: 1}))
	require.NoError(t, attach(&cr, a, Counter(7)))
	require.NoError(t, attach(&cr, b, Health{Value: 2}))

	cr.detachAll(a)

	assert.False(t, has[Health](&cr, a))
	assert.False(t, has[Counter](&cr, a))
	assert.True(t, cr.signatures.signatureOf(a).None())
	assert.False(t, cr.signatures.signatures.Has(a))

	// b moved into a's dense slot and is still intact.
	got, ok := get[Health](&cr, b)
	assert.True(t, ok)
	assert.Equal(t, 2, got.Value)
	assertSparseInvariants(t, storeFor[Health](&cr).SparseSet)

	// Entities without components are a no-op.
	cr.detachAll(newEntity(9, 0))
}

func TestComponentRegistry_GetAbstract(t *testing.T) {
	t.Parallel()

	cr := newTestComponentRegistry(4)
	e := newEntity(0, 0)
	require.NoError(t, attach(&cr, e, PlayerTag{Tag: "p1"}))

	s, ok := cr.lookup(TypeOf[PlayerTag]())
	require.True(t, ok)

	value, ok := s.getAbstract(e)
	require.True(t, ok)
	assert.Equal(t, PlayerTag{Tag: "p1"}, value)
	assert.Equal(t, []Entity{e}, s.entities())

	_, ok = s.getAbstract(newEntity(1, 0))
	assert.False(t, ok)

	_, ok = cr.lookup(TypeOf[Velocity]())
	assert.False(t, ok)
}

func TestSignatureIndex(t *testing.T) {
	t.Parallel()

	si := newSignatureIndex(4, 0)
	pos, err := si.assign(TypeOf[Position]())
	require.NoError(t, err)
	vel, err := si.assign(TypeOf[Velocity]())
	require.NoError(t, err)
	_, err = si.assign(TypeOf[Health]())
	require.NoError(t, err)

	again, err := si.assign(TypeOf[Position]())
	require.NoError(t, err)
	assert.Equal(t, pos, again)

	a := newEntity(0, 0)
	b := newEntity(1, 0)
	si.set(a, pos)
	si.set(a, vel)
	si.set(b, vel)

	req, ok := si.required([]ComponentType{TypeOf[Position](), TypeOf[Velocity]()})
	require.True(t, ok)
	assert.Equal(t, 2, req.Count())
	assert.True(t, si.matches(a, req))
	assert.False(t, si.matches(b, req))

	// Untouched entities only match the empty requirement.
	assert.False(t, si.matches(newEntity(2, 0), req))
	assert.True(t, si.matches(newEntity(2, 0), NewBitset(4)))

	_, ok = si.required([]ComponentType{TypeOf[Position](), TypeOf[Counter]()})
	assert.False(t, ok)

	only, _ := si.required([]ComponentType{TypeOf[Velocity]()})
	found := si.scan(only)
	assert.Equal(t, 2, found.Count())
	assert.True(t, found.Contains(0))
	assert.True(t, found.Contains(1))

	// signatureOf hands out copies.
	sig := si.signatureOf(a)
	sig.ClearAll()
	assert.True(t, si.matches(a, req))

	si.reset(a, vel)
	assert.False(t, si.matches(a, req))
	assert.Panics(t, func() { si.reset(newEntity(3, 0), vel) })

	si.drop(a)
	assert.True(t, si.signatureOf(a).None())
}
