// Package fecs is an in-memory entity-component store.
//
// Entities are generational handles issued by an EntityAllocator. Components of each Go type live
// in their own paged SparseSet, and every entity's set of component types is kept as a Bitset
// signature so that Query can match entities holding a given set of types:
//
//	r, _ := fecs.NewRegistry(fecs.Options{})
//	e, _ := r.Create()
//	_ = fecs.Attach(r, e, Position{X: 1})
//	for _, e := range r.Query(fecs.TypeOf[Position]()) {
//		p, _ := fecs.GetMut[Position](r, e)
//		p.X++
//	}
package fecs
