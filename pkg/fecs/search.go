package fecs

import (
	"github.com/argus-labs/fecs/pkg/assert"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// SearchParam contains parameters for a search.
// The where clause is an expr expression evaluated against each entity's components, see
// https://expr-lang.org/docs/getting-started.
type SearchParam struct {
	Find  []string    // Names of the components to search for
	Match SearchMatch // How the entity signature is compared, defaults to MatchContains
	Where string      // Optional expr expression to filter the results
}

// SearchMatch is the type of match to use for the search.
type SearchMatch string

const (
	// MatchContains matches entities that have the listed components and possibly others.
	MatchContains SearchMatch = "contains"
	// MatchExact matches entities that have exactly the listed components.
	MatchExact SearchMatch = "exact"
)

// validateAndGetFilter validates the search parameters and compiles the where clause. The program
// is nil if there is no where clause.
func (s *SearchParam) validateAndGetFilter() (*vm.Program, error) {
	if len(s.Find) == 0 {
		return nil, eris.Wrap(ErrInvalidSearch, "component list cannot be empty")
	}

	if s.Match == "" {
		s.Match = MatchContains
	}
	if s.Match != MatchExact && s.Match != MatchContains {
		return nil, eris.Wrapf(ErrInvalidSearch, "match must be either '%s' or '%s'", MatchExact, MatchContains)
	}

	if len(s.Where) == 0 {
		return nil, nil //nolint:nilnil // no filter
	}

	filter, err := expr.Compile(s.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidSearch, "failed to parse where clause: %v", err)
	}
	return filter, nil
}

// Search returns the components of every entity matching params, one map per entity keyed by
// component name. The entity handle is stored under "_id".
func (r *Registry) Search(params SearchParam) ([]map[string]any, error) {
	filter, err := params.validateAndGetFilter()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ComponentType, 0, len(params.Find))
	for _, name := range params.Find {
		ctype, lookupErr := r.components.byName(name)
		if lookupErr != nil {
			return nil, lookupErr
		}
		types = append(types, ctype)
	}

	req, ok := r.signatures.required(types)
	assert.That(ok, "resolved component has no signature bit")

	var candidates []Entity
	if r.strategy == QueryStrategyScan {
		candidates = r.queryScan(req)
	} else {
		candidates = r.querySmallest(types, req)
	}

	results := make([]map[string]any, 0)
	for _, e := range candidates {
		sig := r.signatures.signatureOf(e)
		if params.Match == MatchExact && !sig.Equal(req) {
			continue
		}

		entityMap := r.toMap(e, sig)
		if filter == nil {
			results = append(results, entityMap)
			continue
		}

		// The environment is only known per entity, so expr.Compile can't prove the clause is boolean
		// when it reads component fields.
		output, runErr := expr.Run(filter, entityMap)
		if runErr != nil {
			return nil, eris.Wrap(runErr, "failed to run filter expression")
		}
		isMatch, ok := output.(bool)
		if !ok {
			return nil, eris.Wrap(ErrInvalidSearch, "where clause must evaluate to a bool")
		}
		if isMatch {
			results = append(results, entityMap)
		}
	}
	return results, nil
}

// toMap collects e's components by name, plus its handle under "_id".
func (r *Registry) toMap(e Entity, sig Bitset) map[string]any {
	data := make(map[string]any, sig.Count()+1)

	// expr compares numbers as int or uint32, not as Entity.
	data["_id"] = uint32(e)

	sig.Range(func(bit int) {
		s := r.components.byBit[bit]
		value, ok := s.getAbstract(e)
		if !ok {
			return
		}
		data[s.componentType().Name()] = value
	})
	return data
}

// byName resolves a component name used in a search. Names are not required to be unique, so a
// name shared by two registered types is rejected.
func (cr *componentRegistry) byName(name string) (ComponentType, error) {
	var (
		found ComponentType
		n     int
	)
	for _, s := range cr.byBit {
		if s.componentType().Name() == name {
			found = s.componentType()
			n++
		}
	}
	switch n {
	case 0:
		return ComponentType{}, eris.Wrapf(ErrComponentNotRegistered, "component %s", name)
	case 1:
		return found, nil
	default:
		return ComponentType{}, eris.Wrapf(ErrInvalidSearch, "component name %s is ambiguous", name)
	}
}
