package catalog

import "fmt"

// Registry holds item definitions indexed by id.
// It is read-only once built and safe for concurrent lookups.
type Registry struct {
	items map[uint32]*Item
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{items: make(map[uint32]*Item)}
}

// NewRegistryFrom builds a Registry from items, failing on duplicate ids.
func NewRegistryFrom(items []*Item) (*Registry, error) {
	r := NewRegistry()
	for _, it := range items {
		if err := r.Register(it); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds it to the registry.
//
// Precondition:  it must not be nil.
// Postcondition: Lookup(it.ID) returns (it, true); returns error if it.ID already registered.
func (r *Registry) Register(it *Item) error {
	if _, exists := r.items[it.ID]; exists {
		return fmt.Errorf("catalog: Registry.Register: item ID %d already registered", it.ID)
	}
	r.items[it.ID] = it
	return nil
}

// Lookup returns the Item for the given id and whether it was found.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Lookup(id uint32) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	return len(r.items)
}
