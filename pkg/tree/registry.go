package tree

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gobwas/glob"
	"golang.org/x/text/cases"
)

// Registry maps region keys to their ordered patch descriptors. It is
// populated once at initialization and is read-only afterwards, so Lookup
// is safe for concurrent use.
type Registry struct {
	exact    map[RegionKey][]Descriptor
	patterns []pattern
}

type pattern struct {
	source string
	glob   glob.Glob
	descs  []Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[RegionKey][]Descriptor)}
}

// Register appends descs to the patch list of key.
func (r *Registry) Register(key RegionKey, descs ...Descriptor) {
	r.exact[key] = append(r.exact[key], descs...)
}

// RegisterPattern registers descs for every key whose "region/locality"
// form matches the glob pattern. The pattern is folded the same way keys
// are.
func (r *Registry) RegisterPattern(p string, descs ...Descriptor) error {
	src := cases.Fold().String(p) // Casers are stateful
	g, err := glob.Compile(src, '/')
	if err != nil {
		return fmt.Errorf("failed to compile region pattern %q: %w", p, err)
	}
	for i := range r.patterns {
		if r.patterns[i].source == src {
			r.patterns[i].descs = append(r.patterns[i].descs, descs...)
			return nil
		}
	}
	r.patterns = append(r.patterns, pattern{source: src, glob: g, descs: descs})
	return nil
}

// Lookup returns the descriptors for key: an exact registration wins,
// then the first matching pattern in registration order. Unknown keys
// resolve to an empty list.
func (r *Registry) Lookup(key RegionKey) []Descriptor {
	if r == nil {
		return nil
	}
	if descs, ok := r.exact[key]; ok {
		return slices.Clone(descs)
	}
	s := key.String()
	for _, p := range r.patterns {
		if p.glob.Match(s) {
			return slices.Clone(p.descs)
		}
	}
	return nil
}

// Regions returns the exactly registered keys, sorted.
func (r *Registry) Regions() []RegionKey {
	if r == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(r.exact), RegionKey.Compare)
}

// Patterns returns the registered patterns in registration order.
func (r *Registry) Patterns() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.source
	}
	return out
}
