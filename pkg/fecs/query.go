package fecs

import (
	"github.com/argus-labs/fecs/pkg/assert"
)

// Query returns every live entity whose signature holds all of the given component types. Entities
// with additional components match too. The result is a snapshot in unspecified order and stays
// valid across later mutations.
//
// With no types every live entity is returned. If any type was never registered the result is
// empty.
func (r *Registry) Query(types ...ComponentType) []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(types) == 0 {
		out := make([]Entity, 0, r.entities.Len())
		r.entities.Each(func(e Entity) {
			out = append(out, e)
		})
		return out
	}

	req, ok := r.signatures.required(types)
	if !ok {
		return []Entity{}
	}

	switch r.strategy {
	case QueryStrategyScan:
		return r.queryScan(req)
	case QueryStrategySmallest, QueryStrategyUndefined:
		return r.querySmallest(types, req)
	default:
		assert.That(false, "unknown query strategy %q", r.strategy)
		return nil
	}
}

// querySmallest walks the owners of the least populated requested store. Every match has to be in
// it, so only those candidates are checked against req.
func (r *Registry) querySmallest(types []ComponentType, req Bitset) []Entity {
	var smallest abstractStore
	for _, ctype := range types {
		s, ok := r.components.lookup(ctype)
		assert.That(ok, "component %s has a bit but no store", ctype)
		if smallest == nil || s.len() < smallest.len() {
			smallest = s
		}
	}

	candidates := smallest.entities()
	out := make([]Entity, 0, len(candidates))
	for _, e := range candidates {
		if r.signatures.matches(e, req) {
			out = append(out, e)
		}
	}
	return out
}

// queryScan tests every tracked signature and maps the matching indices back to live handles.
func (r *Registry) queryScan(req Bitset) []Entity {
	found := r.signatures.scan(req)
	out := make([]Entity, 0, found.Count())
	found.Range(func(index uint32) {
		e, ok := r.entities.entityAt(index)
		assert.That(ok, "signature tracked for dead index %d", index)
		out = append(out, e)
	})
	return out
}
