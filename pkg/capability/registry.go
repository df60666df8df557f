package capability

import (
	"fmt"
	"sort"
)

// Entry binds a capability to its routing metadata. Keywords are exact
// trigger phrases that bypass semantic scoring; Priority orders keyword
// matches and breaks score ties (higher wins).
type Entry struct {
	Capability Capability
	Priority   int
	Keywords   []string
}

// Registry is an ordered, read-only set of capabilities. It is built once at
// process startup and never mutated afterward, so it needs no locking.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry builds a registry from entries. Entries are ordered by
// descending priority; registration order is preserved among equal
// priorities and serves as the stable tie-break for scoring.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(entries))}

	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for i, entry := range ordered {
		if entry.Capability == nil {
			return nil, fmt.Errorf("registry entry %d has no capability", i)
		}
		name := entry.Capability.Name()
		if name == "" {
			return nil, fmt.Errorf("registry entry %d has an empty name", i)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate capability %q", name)
		}
		r.byName[name] = i
		r.entries = append(r.entries, entry)
	}

	return r, nil
}

// Get returns the entry for a capability name.
func (r *Registry) Get(name string) (Entry, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Entries returns all entries in registry order. Callers must not mutate
// the returned slice.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Capabilities returns the capabilities in registry order.
func (r *Registry) Capabilities() []Capability {
	caps := make([]Capability, len(r.entries))
	for i, entry := range r.entries {
		caps[i] = entry.Capability
	}
	return caps
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	return len(r.entries)
}
