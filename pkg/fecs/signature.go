package fecs

import (
	"github.com/argus-labs/fecs/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// signatureIndex records which component types every entity holds. Component types get a bit in
// registration order and keep it for the lifetime of the index, so bit numbers differ between runs
// that register in a different order.
type signatureIndex struct {
	width      int                   // Length of every signature, the max number of component types
	bits       map[ComponentType]int // Component type -> signature bit
	signatures *SparseSet[Bitset]    // Entity -> signature, only for entities that were touched
}

func newSignatureIndex(width, pageSize int) *signatureIndex {
	return &signatureIndex{
		width:      width,
		bits:       make(map[ComponentType]int),
		signatures: NewSparseSet[Bitset](pageSize),
	}
}

// assign returns the bit of a component type, assigning the next free bit to new types.
func (si *signatureIndex) assign(ctype ComponentType) (int, error) {
	if bit, ok := si.bits[ctype]; ok {
		return bit, nil
	}
	if len(si.bits) >= si.width {
		return 0, eris.Wrapf(ErrCapacityExceeded, "cannot register more than %d component types", si.width)
	}
	bit := len(si.bits)
	si.bits[ctype] = bit
	return bit, nil
}

// bit returns the bit of a component type.
func (si *signatureIndex) bit(ctype ComponentType) (int, bool) {
	bit, ok := si.bits[ctype]
	return bit, ok
}

// set marks bit in e's signature.
func (si *signatureIndex) set(e Entity, bit int) {
	sig, ok := si.signatures.Get(e)
	if !ok {
		sig = NewBitset(si.width)
		si.signatures.Insert(e, sig)
	}
	sig.Set(bit)
}

// reset clears bit in e's signature.
func (si *signatureIndex) reset(e Entity, bit int) {
	sig, ok := si.signatures.Get(e)
	assert.That(ok, "clearing bit %d of untracked %s", bit, e)
	sig.Reset(bit)
}

// signatureOf returns a copy of e's signature, all unset if e was never touched.
func (si *signatureIndex) signatureOf(e Entity) Bitset {
	sig, ok := si.signatures.Get(e)
	if !ok {
		return NewBitset(si.width)
	}
	return sig.Clone()
}

// drop forgets e's signature.
func (si *signatureIndex) drop(e Entity) {
	si.signatures.Remove(e)
}

// required builds the signature an entity needs to match a query for the given types. ok is false
// if any type was never registered, in which case no entity can match.
func (si *signatureIndex) required(types []ComponentType) (Bitset, bool) {
	req := NewBitset(si.width)
	for _, ctype := range types {
		bit, ok := si.bits[ctype]
		if !ok {
			return req, false
		}
		mask := NewBitset(si.width)
		mask.Set(bit)
		req.OrAssign(mask)
	}
	return req, true
}

// matches reports whether e's signature holds every bit of req. Entities with components beyond
// req still match.
func (si *signatureIndex) matches(e Entity, req Bitset) bool {
	sig, ok := si.signatures.Get(e)
	if !ok {
		return req.None()
	}
	return sig.Contains(req)
}

// scan returns the indices of every tracked entity whose signature holds req.
func (si *signatureIndex) scan(req Bitset) bitmap.Bitmap {
	var found bitmap.Bitmap
	si.signatures.Each(func(e Entity, sig *Bitset) {
		if sig.Contains(req) {
			found.Set(e.Index())
		}
	})
	return found
}
