package fecs

import (
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Registry is the entity-component store. It issues entities, stores their components and answers
// queries over them.
//
// Mutations (Create, Destroy, Attach, Detach, Register, Reserve) take the registry exclusively and
// fail with ErrIterationInProgress while an Each is running. Reads can run concurrently with each
// other. Pointers from GetMut are only valid until the next mutation.
type Registry struct {
	mu        sync.RWMutex
	iterating atomic.Int32 // Number of Each calls in flight

	entities   *EntityAllocator
	signatures *signatureIndex
	components componentRegistry
	strategy   QueryStrategy
	log        zerolog.Logger
}

// NewRegistry creates a registry. Options left zero are read from the environment (see
// registryConfig), falling back to the defaults.
func NewRegistry(opts Options) (*Registry, error) {
	options := newDefaultOptions()

	cfg, err := loadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}
	cfg.applyToOptions(&options)
	options.apply(opts)

	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid options")
	}

	signatures := newSignatureIndex(options.MaxComponents, options.PageSize)
	r := &Registry{
		entities:   NewEntityAllocator(options.InitialCapacity),
		signatures: signatures,
		components: newComponentRegistry(signatures, options.PageSize),
		strategy:   options.QueryStrategy,
		log:        *options.Logger,
	}
	r.signatures.signatures.Reserve(options.InitialCapacity)

	r.log.Debug().
		Int("max_components", options.MaxComponents).
		Int("page_size", options.PageSize).
		Str("query_strategy", string(options.QueryStrategy)).
		Msg("registry created")
	return r, nil
}

// lock acquires the registry for a mutation.
func (r *Registry) lock() error {
	r.mu.Lock()
	if r.iterating.Load() > 0 {
		r.mu.Unlock()
		return ErrIterationInProgress
	}
	return nil
}

// warnDead logs a read through a handle that isn't alive.
func (r *Registry) warnDead(op string, e Entity) {
	r.log.Warn().
		Str("op", op).
		Uint32("index", e.Index()).
		Uint32("version", e.Version()).
		Msg("entity is not alive")
}

// Create issues a new entity without components.
func (r *Registry) Create() (Entity, error) {
	if err := r.lock(); err != nil {
		return NullEntity, err
	}
	defer r.mu.Unlock()

	return r.entities.Create()
}

// Destroy removes every component of e and invalidates the handle. Fails with ErrEntityNotFound if
// e isn't alive.
func (r *Registry) Destroy(e Entity) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.entities.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotFound, "destroy %s", e)
	}
	r.components.detachAll(e)
	return r.entities.Destroy(e)
}

// Alive reports whether e refers to a live entity.
func (r *Registry) Alive(e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.entities.IsAlive(e)
}

// Count returns the number of live entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.entities.Len()
}

// SignatureOf returns a copy of e's signature. It is all unset for entities without components and
// for dead handles.
func (r *Registry) SignatureOf(e Entity) Bitset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.entities.IsAlive(e) {
		r.warnDead("signature", e)
		return NewBitset(r.signatures.width)
	}
	return r.signatures.signatureOf(e)
}

// Reserve makes room for n entities in the allocator, the signatures and every registered
// component type.
func (r *Registry) Reserve(n int) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.mu.Unlock()

	r.entities.Reserve(n)
	r.signatures.signatures.Reserve(n)
	for _, s := range r.components.byBit {
		s.reserve(n)
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Component operations
// -------------------------------------------------------------------------------------------------

// Register registers T as a component type. Registering a known type is a no-op. Fails with
// ErrCapacityExceeded when the configured number of component types is used up.
func Register[T Component](r *Registry) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.mu.Unlock()

	return r.register(registerFn[T])
}

// registerFn adapts register to a non-generic signature for Registry.register.
func registerFn[T Component](cr *componentRegistry) (abstractStore, bool, error) {
	return register[T](cr)
}

// register runs fn and logs newly registered component types. Expects the lock to be held.
func (r *Registry) register(fn func(*componentRegistry) (abstractStore, bool, error)) error {
	s, created, err := fn(&r.components)
	if err != nil {
		return err
	}
	if created {
		r.log.Debug().
			Str("component", s.componentType().Name()).
			Int("bit", s.bit()).
			Msg("component registered")
	}
	return nil
}

// Attach sets e's T component to value, adding it if e doesn't have one. T is registered on first
// use. Fails with ErrInvalidEntity if e isn't alive.
func Attach[T Component](r *Registry, e Entity, value T) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.entities.IsAlive(e) {
		return eris.Wrapf(ErrInvalidEntity, "attach %s to %s", TypeOf[T](), e)
	}
	if err := r.register(registerFn[T]); err != nil {
		return err
	}
	return attach(&r.components, e, value)
}

// Detach removes e's T component. Fails with ErrInvalidEntity if e isn't alive,
// ErrComponentNotRegistered if T was never registered and ErrComponentNotPresent if e doesn't
// have T.
func Detach[T Component](r *Registry, e Entity) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.entities.IsAlive(e) {
		return eris.Wrapf(ErrInvalidEntity, "detach %s from %s", TypeOf[T](), e)
	}
	return detach[T](&r.components, e)
}

// Get returns a copy of e's T component. It returns false if e doesn't have T, T isn't registered
// or e isn't alive.
func Get[T Component](r *Registry, e Entity) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.entities.IsAlive(e) {
		r.warnDead("get", e)
		var zero T
		return zero, false
	}
	return get[T](&r.components, e)
}

// GetMut returns a pointer to e's T component for in-place updates. The pointer must not be used
// after the next mutation of the registry.
func GetMut[T Component](r *Registry, e Entity) (*T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.entities.IsAlive(e) {
		r.warnDead("get_mut", e)
		return nil, false
	}
	return getMut[T](&r.components, e)
}

// Has reports whether e is alive and has a T component.
func Has[T Component](r *Registry, e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.entities.IsAlive(e) {
		r.warnDead("has", e)
		return false
	}
	return has[T](&r.components, e)
}

// Len returns the number of entities with a T component. Fails with ErrComponentNotRegistered if T
// was never registered.
func Len[T Component](r *Registry) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return length[T](&r.components)
}

// Each calls fn for every entity with a T component, in storage order, with a pointer to the
// component. Mutating the registry from fn fails with ErrIterationInProgress; reads are allowed.
func Each[T Component](r *Registry, fn func(Entity, *T)) {
	r.mu.RLock()
	s := storeFor[T](&r.components)
	r.iterating.Add(1)
	r.mu.RUnlock()
	defer r.iterating.Add(-1)

	if s == nil {
		return
	}
	s.Each(fn)
}
