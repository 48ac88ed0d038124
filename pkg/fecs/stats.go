package fecs

// Stats is a point in time summary of a registry's storage.
type Stats struct {
	Entities   int              `json:"entities"`
	Pages      int              `json:"signature_pages"` // Allocated signature pages
	Components []ComponentStats `json:"components"`      // In registration order
}

// ComponentStats summarizes the storage of one component type.
type ComponentStats struct {
	Name  string `json:"name"`
	Bit   int    `json:"bit"`
	Len   int    `json:"len"`
	Pages int    `json:"pages"`
}

// Stats returns the current storage statistics.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	components := make([]ComponentStats, 0, len(r.components.byBit))
	for _, s := range r.components.byBit {
		components = append(components, ComponentStats{
			Name:  s.componentType().Name(),
			Bit:   s.bit(),
			Len:   s.len(),
			Pages: s.pageCount(),
		})
	}
	return Stats{
		Entities:   r.entities.Len(),
		Pages:      r.signatures.signatures.pageCount(),
		Components: components,
	}
}
