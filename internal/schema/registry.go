package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrKindNotFound is returned when a kind is not part of the loaded schema.
var ErrKindNotFound = errors.New("kind not found")

// Set is an immutable collection of kinds from one schema payload.
type Set struct {
	kinds    map[string]*NodeSchema
	order    []string
	nodes    []string
	generics []string
	profiles []string
	hash     string
}

// NewSet builds a Set from node, generic and profile records. Later records
// with a duplicate kind replace earlier ones.
func NewSet(nodes, generics, profiles []NodeSchema) *Set {
	s := &Set{kinds: make(map[string]*NodeSchema)}
	add := func(list []NodeSchema, generic, profile bool, names *[]string) {
		for i := range list {
			ns := list[i]
			if ns.Kind == "" {
				continue
			}
			ns.Generic = generic
			ns.Profile = profile
			if _, dup := s.kinds[ns.Kind]; !dup {
				*names = append(*names, ns.Kind)
			}
			s.kinds[ns.Kind] = &ns
		}
	}
	add(nodes, false, false, &s.nodes)
	add(generics, true, false, &s.generics)
	add(profiles, false, true, &s.profiles)

	for k := range s.kinds {
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
	sort.Strings(s.nodes)
	sort.Strings(s.generics)
	sort.Strings(s.profiles)
	s.hash = s.computeHash()
	return s
}

// EmptySet returns a set with no kinds. Views built from it are empty.
func EmptySet() *Set {
	return NewSet(nil, nil, nil)
}

// Kind returns the schema for a kind, or nil if unknown.
func (s *Set) Kind(kind string) *NodeSchema {
	if s == nil {
		return nil
	}
	return s.kinds[kind]
}

// Has reports whether kind is known. It lets the set act as a peer resolver.
func (s *Set) Has(kind string) bool {
	return s.Kind(kind) != nil
}

// Lookup is Kind with a descriptive error carrying a suggestion.
func (s *Set) Lookup(kind string) (*NodeSchema, error) {
	if ns := s.Kind(kind); ns != nil {
		return ns, nil
	}
	if hint := SuggestFrom(kind, s.Kinds(), 3); hint != "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrKindNotFound, kind, hint)
	}
	return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
}

// Kinds returns every kind in sorted order.
func (s *Set) Kinds() []string {
	if s == nil {
		return nil
	}
	return s.order
}

// Nodes returns the concrete node kinds in sorted order.
func (s *Set) Nodes() []string {
	if s == nil {
		return nil
	}
	return s.nodes
}

// Generics returns the generic kinds in sorted order.
func (s *Set) Generics() []string {
	if s == nil {
		return nil
	}
	return s.generics
}

// Profiles returns the profile kinds in sorted order.
func (s *Set) Profiles() []string {
	if s == nil {
		return nil
	}
	return s.profiles
}

// Len returns the number of kinds.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Hash identifies the content of the set.
func (s *Set) Hash() string {
	if s == nil {
		return ""
	}
	return s.hash
}

// KindLabels returns the kind-name map used to render __typename values.
func (s *Set) KindLabels() map[string]string {
	labels := make(map[string]string, s.Len())
	if s == nil {
		return labels
	}
	for k, ns := range s.kinds {
		labels[k] = ns.DisplayName()
	}
	return labels
}

// Payload returns the set in the backend's /api/schema shape.
func (s *Set) Payload() Payload {
	var p Payload
	if s == nil {
		return p
	}
	for _, k := range s.nodes {
		p.Nodes = append(p.Nodes, *s.kinds[k])
	}
	for _, k := range s.generics {
		p.Generics = append(p.Generics, *s.kinds[k])
	}
	for _, k := range s.profiles {
		p.Profiles = append(p.Profiles, *s.kinds[k])
	}
	return p
}

func (s *Set) computeHash() string {
	data, err := json.Marshal(s.Payload())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Registry holds the current schema Set per branch. It is safe for
// concurrent use; a replaced Set is swapped in atomically.
type Registry struct {
	mu       sync.RWMutex
	branches map[string]*entry
}

type entry struct {
	set      *Set
	loadedAt time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{branches: make(map[string]*entry)}
}

// Replace installs set as the schema of branch. It reports whether the
// content changed.
func (r *Registry) Replace(branch string, set *Set) bool {
	if set == nil {
		set = EmptySet()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.branches[branch]
	r.branches[branch] = &entry{set: set, loadedAt: time.Now()}
	return !ok || prev.set.Hash() != set.Hash()
}

// Set returns the schema of branch. Unknown branches yield an empty set so
// callers always get degraded, never failing, views.
func (r *Registry) Set(branch string) *Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.branches[branch]; ok {
		return e.set
	}
	return EmptySet()
}

// LoadedAt returns when branch's schema was installed.
func (r *Registry) LoadedAt(branch string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.branches[branch]
	if !ok {
		return time.Time{}, false
	}
	return e.loadedAt, true
}

// Branches returns the branches with an installed schema, sorted.
func (r *Registry) Branches() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.branches))
	for b := range r.branches {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
