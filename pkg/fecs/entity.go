package fecs

import (
	"fmt"

	"github.com/argus-labs/fecs/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Entity is an opaque handle to a logical record. The low IndexBits bits select a storage slot and
// the high VersionBits bits count how many times that slot has been recycled. Two handles refer to
// the same entity only if both fields are equal.
type Entity uint32

const (
	IndexBits   = 20
	VersionBits = 32 - IndexBits

	indexMask   = 1<<IndexBits - 1
	versionMask = 1<<VersionBits - 1

	// MaxIndex is the largest slot index the allocator hands out.
	MaxIndex = indexMask
	// maxVersion is never issued. A slot whose version reaches it is retired.
	maxVersion = versionMask
)

// NullEntity is never issued by an allocator.
const NullEntity Entity = 1<<32 - 1

// newEntity packs a slot index and version into a handle.
func newEntity(index, version uint32) Entity {
	return Entity((version&versionMask)<<IndexBits | index&indexMask)
}

// Index returns the slot index of the entity.
func (e Entity) Index() uint32 {
	return uint32(e) & indexMask
}

// Version returns the generation of the entity's slot at the time the handle was issued.
func (e Entity) Version() uint32 {
	return uint32(e) >> IndexBits
}

func (e Entity) String() string {
	if e == NullEntity {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Version())
}

// EntityAllocator issues and recycles entity handles. Freed indices are reused LIFO, the most
// recently freed index first, which keeps the sparse arrays of component storage small. Because of
// this, the handle returned by Create depends on the order of previous Destroy calls.
type EntityAllocator struct {
	versions []uint32      // Current version of every slot ever allocated
	free     []uint32      // Stack of recyclable slot indices
	alive    bitmap.Bitmap // Indices of live entities
	count    int           // Number of live entities
}

// NewEntityAllocator creates an allocator with room for capacity entities before growing.
func NewEntityAllocator(capacity int) *EntityAllocator {
	capacity = max(capacity, 0)
	return &EntityAllocator{
		versions: make([]uint32, 0, capacity),
		free:     make([]uint32, 0),
		alive:    make(bitmap.Bitmap, 0, (capacity+63)/64),
		count:    0,
	}
}

// Create issues a live entity handle. It fails with ErrCapacityExceeded once every index is live
// or retired.
func (a *EntityAllocator) Create() (Entity, error) {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if len(a.versions) > MaxIndex {
			return NullEntity, eris.Wrapf(ErrCapacityExceeded, "all %d entity indices are in use", MaxIndex+1)
		}
		index = uint32(len(a.versions)) //nolint:gosec // bounded by MaxIndex
		a.versions = append(a.versions, 0)
	}

	version := a.versions[index]
	assert.That(version < maxVersion, "retired slot %d was recycled", index)

	a.alive.Set(index)
	a.count++
	return newEntity(index, version), nil
}

// Destroy invalidates the handle and releases its slot. Destroying a dead or unknown handle fails
// with ErrEntityNotFound and changes nothing.
func (a *EntityAllocator) Destroy(e Entity) error {
	if !a.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotFound, "destroy %s", e)
	}

	index := e.Index()
	a.versions[index]++
	a.alive.Remove(index)
	a.count--

	// Recycling a slot at the last version would reissue a handle that was already given out.
	if a.versions[index] < maxVersion {
		a.free = append(a.free, index)
	}
	return nil
}

// IsAlive reports whether the handle was issued by this allocator and not destroyed since.
func (a *EntityAllocator) IsAlive(e Entity) bool {
	index := e.Index()
	if int(index) >= len(a.versions) {
		return false
	}
	return a.versions[index] == e.Version() && a.alive.Contains(index)
}

// Len returns the number of live entities.
func (a *EntityAllocator) Len() int {
	return a.count
}

// Reserve grows the slot table so that n entities can be created without reallocating.
func (a *EntityAllocator) Reserve(n int) {
	n = min(n, MaxIndex+1)
	if n <= cap(a.versions) {
		return
	}
	versions := make([]uint32, len(a.versions), n)
	copy(versions, a.versions)
	a.versions = versions
	a.alive.Grow(uint32(n - 1)) //nolint:gosec // bounded by MaxIndex
}

// entityAt returns the live entity occupying index.
func (a *EntityAllocator) entityAt(index uint32) (Entity, bool) {
	if int(index) >= len(a.versions) || !a.alive.Contains(index) {
		return NullEntity, false
	}
	return newEntity(index, a.versions[index]), true
}

// Each calls fn for every live entity in ascending index order.
func (a *EntityAllocator) Each(fn func(Entity)) {
	a.alive.Range(func(index uint32) {
		fn(newEntity(index, a.versions[index]))
	})
}
