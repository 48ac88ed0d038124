package fecs

import (
	"reflect"

	"github.com/argus-labs/fecs/pkg/assert"
	"github.com/rotisserie/eris"
)

// Component is any value stored against an entity. Every distinct Go type is its own component
// type, so a plain uint32 works as well as a struct.
type Component = any

// Namer can be implemented by a component to choose the name it is known by in searches and logs.
// Components that don't implement it use their Go type name.
type Namer interface {
	Name() string
}

// ComponentType identifies a component type. It is comparable and unique per Go type.
type ComponentType struct {
	typ reflect.Type
}

// TypeOf returns the ComponentType of T.
func TypeOf[T Component]() ComponentType {
	return ComponentType{typ: reflect.TypeFor[T]()}
}

// Name returns the component's display name.
func (c ComponentType) Name() string {
	if c.typ == nil {
		return "<nil>"
	}
	// Interface and pointer types have no zero value that can answer Name.
	if kind := c.typ.Kind(); kind != reflect.Pointer && kind != reflect.Interface && c.typ.Implements(namerType) {
		return reflect.Zero(c.typ).Interface().(Namer).Name() //nolint:forcetypeassert // checked above
	}
	if name := c.typ.Name(); name != "" {
		return name
	}
	return c.typ.String()
}

func (c ComponentType) String() string {
	return c.Name()
}

var namerType = reflect.TypeFor[Namer]() //nolint:gochecknoglobals // immutable

// -------------------------------------------------------------------------------------------------
// Type-erased storage
// -------------------------------------------------------------------------------------------------

// abstractStore is the capability set the registry needs from a component set without knowing
// its value type.
type abstractStore interface {
	componentType() ComponentType
	bit() int
	len() int
	has(e Entity) bool
	remove(e Entity) bool
	getAbstract(e Entity) (Component, bool)
	entities() []Entity
	reserve(n int)
	pageCount() int
}

var _ abstractStore = &store[int]{}

// store is the SparseSet holding every value of one component type.
type store[T Component] struct {
	*SparseSet[T]
	ctype     ComponentType
	signature int // Signature bit assigned to the component type
}

func newStore[T Component](bit, pageSize int) *store[T] {
	return &store[T]{
		SparseSet: NewSparseSet[T](pageSize),
		ctype:     TypeOf[T](),
		signature: bit,
	}
}

func (s *store[T]) componentType() ComponentType { return s.ctype }

func (s *store[T]) bit() int { return s.signature }

func (s *store[T]) len() int { return s.Len() }

func (s *store[T]) has(e Entity) bool { return s.Has(e) }

func (s *store[T]) remove(e Entity) bool { return s.Remove(e) }

func (s *store[T]) getAbstract(e Entity) (Component, bool) {
	value, ok := s.Get(e)
	if !ok {
		return nil, false
	}
	return value, true
}

// entities exposes the dense owners without copying. Callers must not keep it across mutations.
func (s *store[T]) entities() []Entity { return s.SparseSet.entities }

func (s *store[T]) reserve(n int) { s.Reserve(n) }

func (s *store[T]) pageCount() int { return s.SparseSet.pageCount() }

// -------------------------------------------------------------------------------------------------
// Component registry
// -------------------------------------------------------------------------------------------------

// componentRegistry owns one store per registered component type. Stores are created on first
// registration and never removed. Every store has a signature bit, assigned before the store is
// created, so a store never exists without one.
type componentRegistry struct {
	stores     map[ComponentType]abstractStore
	byBit      []abstractStore // Signature bit -> store
	signatures *signatureIndex
	pageSize   int
}

func newComponentRegistry(signatures *signatureIndex, pageSize int) componentRegistry {
	return componentRegistry{
		stores:     make(map[ComponentType]abstractStore),
		byBit:      make([]abstractStore, 0, signatures.width),
		signatures: signatures,
		pageSize:   pageSize,
	}
}

// lookup returns the store of a component type.
func (cr *componentRegistry) lookup(ctype ComponentType) (abstractStore, bool) {
	s, ok := cr.stores[ctype]
	return s, ok
}

// storeFor returns the store of T, nil if T isn't registered.
func storeFor[T Component](cr *componentRegistry) *store[T] {
	s, ok := cr.stores[TypeOf[T]()]
	if !ok {
		return nil
	}
	concrete, ok := s.(*store[T])
	assert.That(ok, "store registered for %s holds the wrong type", TypeOf[T]())
	return concrete
}

// register makes sure T has a signature bit and a store. It is a no-op for known types.
func register[T Component](cr *componentRegistry) (*store[T], bool, error) {
	if s := storeFor[T](cr); s != nil {
		return s, false, nil
	}

	ctype := TypeOf[T]()
	bit, err := cr.signatures.assign(ctype)
	if err != nil {
		return nil, false, eris.Wrapf(err, "failed to register component %s", ctype)
	}

	s := newStore[T](bit, cr.pageSize)
	cr.stores[ctype] = s
	assert.That(bit == len(cr.byBit), "signature bit %d assigned out of order", bit)
	cr.byBit = append(cr.byBit, s)
	return s, true, nil
}

// attach stores value for e, then marks the component in e's signature.
func attach[T Component](cr *componentRegistry, e Entity, value T) error {
	s, _, err := register[T](cr)
	if err != nil {
		return err
	}
	s.Insert(e, value)
	cr.signatures.set(e, s.signature)
	return nil
}

// detach removes e's T value and clears its signature bit. Both conditions are checked before
// anything is mutated.
func detach[T Component](cr *componentRegistry, e Entity) error {
	s := storeFor[T](cr)
	if s == nil {
		return eris.Wrapf(ErrComponentNotRegistered, "detach %s", TypeOf[T]())
	}
	if !s.Has(e) {
		return eris.Wrapf(ErrComponentNotPresent, "detach %s from %s", TypeOf[T](), e)
	}

	ok := s.Remove(e)
	assert.That(ok, "%s vanished from store during detach", e)
	cr.signatures.reset(e, s.signature)
	return nil
}

// detachAll removes every component of e.
func (cr *componentRegistry) detachAll(e Entity) {
	cr.signatures.signatureOf(e).Range(func(bit int) {
		ok := cr.byBit[bit].remove(e)
		assert.That(ok, "signature of %s has bit %d without a stored component", e, bit)
	})
	cr.signatures.drop(e)
}

func get[T Component](cr *componentRegistry, e Entity) (T, bool) {
	s := storeFor[T](cr)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.Get(e)
}

func getMut[T Component](cr *componentRegistry, e Entity) (*T, bool) {
	s := storeFor[T](cr)
	if s == nil {
		return nil, false
	}
	return s.GetMut(e)
}

func has[T Component](cr *componentRegistry, e Entity) bool {
	s := storeFor[T](cr)
	return s != nil && s.Has(e)
}

func length[T Component](cr *componentRegistry) (int, error) {
	s := storeFor[T](cr)
	if s == nil {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "len %s", TypeOf[T]())
	}
	return s.Len(), nil
}
