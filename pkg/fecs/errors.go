package fecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when an entity handle's index was never issued or its version
	// no longer matches the slot, e.g. on a double destroy.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrInvalidEntity is returned by registry operations called with a dead or stale handle.
	ErrInvalidEntity = eris.New("entity handle is not alive")

	// ErrComponentNotRegistered is returned when operating on a component type that has no storage.
	ErrComponentNotRegistered = eris.New("component type is not registered")

	// ErrComponentNotPresent is returned when detaching a component the entity doesn't hold.
	ErrComponentNotPresent = eris.New("entity does not have component")

	// ErrCapacityExceeded is returned when the entity index space or the configured number of
	// component types is exhausted.
	ErrCapacityExceeded = eris.New("capacity exceeded")

	// ErrLengthMismatch is the panic value of bitset operators applied to bitsets of different
	// lengths.
	ErrLengthMismatch = eris.New("bitset lengths must match")

	// ErrIndexOutOfRange is the panic value of bitset accessors given a bit index outside the set.
	ErrIndexOutOfRange = eris.New("bit index out of range")

	// ErrIterationInProgress is returned by structural mutations attempted during Each.
	ErrIterationInProgress = eris.New("registry is being iterated")

	// ErrInvalidSearch is returned for malformed search parameters.
	ErrInvalidSearch = eris.New("invalid search parameters")
)
