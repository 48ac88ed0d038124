package fecs

import (
	"math"

	"github.com/argus-labs/fecs/pkg/assert"
)

// DefaultPageSize is the number of sparse slots per page when none is configured.
const DefaultPageSize = 2048

// npos marks a sparse slot whose entity has no value in the set.
const npos = math.MaxUint32

// SparseSet maps entities to values of type T. Values live contiguously in dense in no particular
// order, entities[i] owns dense[i], and the paged sparse array maps an entity's index to its dense
// position. Pages are allocated the first time an index inside them is written.
//
// Lookups compare the full handle, so a stale handle whose index is now owned by a newer entity is
// reported as absent.
type SparseSet[T any] struct {
	pageSize int
	pages    [][]uint32 // Entity index -> dense position, npos if absent
	dense    []T        // Values
	entities []Entity   // Owner of each dense value
}

// NewSparseSet creates an empty set. A pageSize <= 0 selects DefaultPageSize.
func NewSparseSet[T any](pageSize int) *SparseSet[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SparseSet[T]{
		pageSize: pageSize,
		pages:    make([][]uint32, 0),
		dense:    make([]T, 0),
		entities: make([]Entity, 0),
	}
}

// Insert stores value for e. If e already has a value it is overwritten in place.
func (s *SparseSet[T]) Insert(e Entity, value T) {
	slot := s.slot(e.Index())
	if pos := *slot; pos != npos {
		// The index is already mapped. Either e itself or an older version of e's slot holds it; in
		// both cases the slot belongs to e now.
		s.dense[pos] = value
		s.entities[pos] = e
		return
	}

	*slot = uint32(len(s.dense)) //nolint:gosec // bounded by MaxIndex
	s.dense = append(s.dense, value)
	s.entities = append(s.entities, e)
}

// Remove deletes e's value and reports whether it was present. The last value is moved into the
// hole so dense stays packed.
func (s *SparseSet[T]) Remove(e Entity) bool {
	pos, ok := s.position(e)
	if !ok {
		return false
	}

	last := len(s.dense) - 1
	if pos != last {
		// Move the last value into the hole and point its owner's slot at the new position.
		moved := s.entities[last]
		s.dense[pos] = s.dense[last]
		s.entities[pos] = moved
		*s.slot(moved.Index()) = uint32(pos) //nolint:gosec // bounded by MaxIndex
	}

	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	*s.slot(e.Index()) = npos

	assert.That(len(s.dense) == len(s.entities), "dense values and entities out of sync")
	return true
}

// Get returns e's value.
func (s *SparseSet[T]) Get(e Entity) (T, bool) {
	pos, ok := s.position(e)
	if !ok {
		var zero T
		return zero, false
	}
	return s.dense[pos], true
}

// GetMut returns a pointer to e's value. The pointer is invalidated by the next Insert of a new
// entity, Remove or Clear.
func (s *SparseSet[T]) GetMut(e Entity) (*T, bool) {
	pos, ok := s.position(e)
	if !ok {
		return nil, false
	}
	return &s.dense[pos], true
}

// Has reports whether e has a value.
func (s *SparseSet[T]) Has(e Entity) bool {
	_, ok := s.position(e)
	return ok
}

// EntityAt returns the owner of the value at dense position i. Expects 0 <= i < Len().
func (s *SparseSet[T]) EntityAt(i int) Entity {
	assert.That(i >= 0 && i < len(s.entities), "dense index %d out of range [0, %d)", i, len(s.entities))
	return s.entities[i]
}

// Len returns the number of values in the set.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// Entities returns a copy of the owners in dense order.
func (s *SparseSet[T]) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Each calls fn with every entity and a pointer to its value in dense order. fn must not insert or
// remove values.
func (s *SparseSet[T]) Each(fn func(Entity, *T)) {
	for i := range s.dense {
		fn(s.entities[i], &s.dense[i])
	}
}

// Reserve grows the set so that entities with index < n can be inserted without allocating.
func (s *SparseSet[T]) Reserve(n int) {
	if n <= 0 {
		return
	}
	n = min(n, MaxIndex+1)
	if n > cap(s.dense) {
		dense := make([]T, len(s.dense), n)
		copy(dense, s.dense)
		s.dense = dense

		entities := make([]Entity, len(s.entities), n)
		copy(entities, s.entities)
		s.entities = entities
	}
	s.slot(uint32(n - 1)) //nolint:gosec // bounded by MaxIndex
}

// Clear removes every value but keeps the allocated pages.
func (s *SparseSet[T]) Clear() {
	for _, page := range s.pages {
		if page == nil {
			continue
		}
		for i := range page {
			page[i] = npos
		}
	}
	clear(s.dense)
	s.dense = s.dense[:0]
	s.entities = s.entities[:0]
}

// pageCount returns the number of allocated pages.
func (s *SparseSet[T]) pageCount() int {
	n := 0
	for _, page := range s.pages {
		if page != nil {
			n++
		}
	}
	return n
}

// position returns e's dense position if e is in the set.
func (s *SparseSet[T]) position(e Entity) (int, bool) {
	index := int(e.Index())
	page := index / s.pageSize
	if page >= len(s.pages) || s.pages[page] == nil {
		return 0, false
	}

	pos := s.pages[page][index%s.pageSize]
	if pos == npos {
		return 0, false
	}

	assert.That(int(pos) < len(s.entities), "sparse slot %d points past dense end", index)
	if s.entities[pos] != e {
		return 0, false
	}
	return int(pos), true
}

// slot returns the sparse slot for index, allocating its page if needed.
func (s *SparseSet[T]) slot(index uint32) *uint32 {
	page := int(index) / s.pageSize
	if page >= len(s.pages) {
		pages := make([][]uint32, page+1)
		copy(pages, s.pages)
		s.pages = pages
	}
	if s.pages[page] == nil {
		s.pages[page] = newPage(s.pageSize)
	}
	return &s.pages[page][int(index)%s.pageSize]
}

func newPage(size int) []uint32 {
	page := make([]uint32, size)
	for i := range page {
		page[i] = npos
	}
	return page
}
