package config

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"

	"github.com/hktouw/formtree/internal/util"
	"github.com/hktouw/formtree/pkg/tree"
)

// Catalog data structures: the base trees and the regional patch sets that
// apply to them.

var (
	ErrUnknownTree = errors.New("unknown tree")
	ErrInvalidTree = errors.New("invalid tree")
)

// Metadata describes the catalog file itself.
type Metadata struct {
	Description string `json:"description,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// Root is the top-level catalog structure.
type Root struct {
	Metadata  Metadata             `json:"metadata"`
	Trees     map[string]*Tree     `json:"trees,omitempty"`
	PatchSets map[string]*PatchSet `json:"patch_sets,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// UnmarshalYAML decodes a catalog with ordered mappings, so tree definitions
// keep the order their children were written in.
func (r *Root) UnmarshalYAML(bs []byte) error {
	type rawRoot Root // avoid recursive calls to UnmarshalYAML by type aliasing
	var raw rawRoot

	if err := yaml.UnmarshalWithOptions(bs, &raw, yaml.UseOrderedMap()); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw)
	return r.unmarshal()
}

func (r *Root) unmarshal() error {
	for name := range r.Trees {
		r.Trees[name] = cmp.Or(r.Trees[name], &Tree{})
		r.Trees[name].Name = name
		if _, err := tree.ParseApplyPolicy(r.Trees[name].Policy); err != nil {
			return fmt.Errorf("tree %q: %w", name, err)
		}
	}

	for name := range r.PatchSets {
		r.PatchSets[name] = cmp.Or(r.PatchSets[name], &PatchSet{})
		r.PatchSets[name].Name = name
		if err := r.PatchSets[name].validate(r.Trees); err != nil {
			return fmt.Errorf("patch set %q: %w", name, err)
		}
	}

	// Decode every definition once so errors surface at load time.
	for _, t := range r.SortedTrees() {
		if _, err := t.Base(); err != nil {
			return err
		}
		if _, err := r.Registry(t.Name); err != nil {
			return err
		}
	}

	return nil
}

func (r *Root) SortedTrees() iter.Seq2[int, *Tree] {
	return iterator(r.Trees, func(t *Tree) string { return t.Name })
}

func (r *Root) SortedPatchSets() iter.Seq2[int, *PatchSet] {
	return iterator(r.PatchSets, func(ps *PatchSet) string { return ps.Name })
}

func (r *Root) TreeNames() []string {
	return slices.Sorted(maps.Keys(r.Trees))
}

func (r *Root) Tree(name string) (*Tree, error) {
	t, ok := r.Trees[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTree, name)
	}
	return t, nil
}

// Registry collects the patch sets targeting the named tree. Patch sets are
// registered in name order, so when several cover the same region their
// descriptors are concatenated in that order.
func (r *Root) Registry(name string) (*tree.Registry, error) {
	t, err := r.Tree(name)
	if err != nil {
		return nil, err
	}

	reg := tree.NewRegistry()
	for _, ps := range r.SortedPatchSets() {
		if !ps.Targets(name) {
			continue
		}
		descs, err := ps.Descriptors(t.Keys)
		if err != nil {
			return nil, fmt.Errorf("patch set %q: %w", ps.Name, err)
		}
		for _, region := range ps.Regions {
			if !IsRegionPattern(region) {
				reg.Register(tree.ParseRegionKey(region), descs...)
				continue
			}
			if err := reg.RegisterPattern(region, descs...); err != nil {
				return nil, fmt.Errorf("patch set %q: %w", ps.Name, err)
			}
		}
	}
	return reg, nil
}

// Builder returns a builder for the named tree with the patches registered
// for key. Descriptors with an unknown patch kind are reported to skipped and
// left out.
func (r *Root) Builder(name string, key tree.RegionKey, skipped func(tree.Descriptor, error)) (*tree.Builder, error) {
	t, err := r.Tree(name)
	if err != nil {
		return nil, err
	}
	reg, err := r.Registry(name)
	if err != nil {
		return nil, err
	}
	policy, err := tree.ParseApplyPolicy(t.Policy)
	if err != nil {
		return nil, err
	}
	return tree.New().
		WithPolicy(policy).
		WithPatches(tree.Compile(reg.Lookup(key), skipped)), nil
}

func (r *Root) Equal(other *Root) bool {
	return util.FastEqual(r, other, func(r, other *Root) bool {
		return r.Metadata.Description == other.Metadata.Description &&
			maps.EqualFunc(r.Trees, other.Trees, (*Tree).Equal) &&
			maps.EqualFunc(r.PatchSets, other.PatchSets, (*PatchSet).Equal)
	})
}

func iterator[V any](m map[string]V, name func(V) string) func(func(int, V) bool) {
	names := make([]string, 0, len(m))
	for _, v := range m {
		names = append(names, name(v))
	}

	sort.Strings(names)

	return func(yield func(int, V) bool) {
		for i, name := range names {
			if !yield(i, m[name]) {
				return
			}
		}
	}
}

func Validate(data []byte) error {
	var config any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	return rootSchema.Validate(config)
}

// Tree defines a base tree: its attribute spelling, how patches are applied
// to it and the definition itself.
type Tree struct {
	Name   string    `json:"-"`
	Keys   tree.Keys `json:"keys,omitzero"`
	Policy string    `json:"policy,omitempty" enum:"first_match_consume,multi_apply"`
	Root   any       `json:"root"`

	_ struct{} `additionalProperties:"false"`
}

// Base decodes the definition into a fresh raw tree.
func (t *Tree) Base() (*tree.RawNode, error) {
	n, err := decodeNode(t.Root, t.Keys, nil)
	if err != nil {
		return nil, fmt.Errorf("tree %q: %w", t.Name, err)
	}
	return n, nil
}

func (t *Tree) Equal(other *Tree) bool {
	return util.FastEqual(t, other, func(t, other *Tree) bool {
		return t.Name == other.Name &&
			t.Keys == other.Keys &&
			t.Policy == other.Policy &&
			reflect.DeepEqual(t.Root, other.Root)
	})
}

// PatchSet attaches patches to regions. Regions are "region/locality" keys or
// glob patterns over them ("ca/*"). A patch set without trees applies to
// every tree.
type PatchSet struct {
	Name    string   `json:"-"`
	Regions []string `json:"regions" required:"true"`
	Trees   []string `json:"trees,omitempty"`
	Patches []Patch  `json:"patches"`

	_ struct{} `additionalProperties:"false"`
}

func (ps *PatchSet) validate(trees map[string]*Tree) error {
	for _, name := range ps.Trees {
		if _, ok := trees[name]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownTree, name)
		}
	}
	for _, region := range ps.Regions {
		if !IsRegionPattern(region) {
			continue
		}
		if _, err := glob.Compile(region, '/'); err != nil {
			return fmt.Errorf("failed to compile region pattern %q: %w", region, err)
		}
	}
	return nil
}

func (ps *PatchSet) Targets(name string) bool {
	return len(ps.Trees) == 0 || slices.Contains(ps.Trees, name)
}

// Descriptors decodes the patches with the attribute spelling of the tree
// they are applied to.
func (ps *PatchSet) Descriptors(keys tree.Keys) ([]tree.Descriptor, error) {
	descs := make([]tree.Descriptor, 0, len(ps.Patches))
	for i, p := range ps.Patches {
		d, err := p.Descriptor(keys)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (ps *PatchSet) Equal(other *PatchSet) bool {
	return util.FastEqual(ps, other, func(ps, other *PatchSet) bool {
		return ps.Name == other.Name &&
			slices.Equal(ps.Regions, other.Regions) &&
			slices.Equal(ps.Trees, other.Trees) &&
			slices.EqualFunc(ps.Patches, other.Patches, Patch.Equal)
	})
}

// Patch is one patch descriptor as written in a catalog.
type Patch struct {
	Conditions []Condition `json:"conditions,omitempty"`
	Kind       string      `json:"kind" required:"true"`
	Payload    any         `json:"payload,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

func (p Patch) Descriptor(keys tree.Keys) (tree.Descriptor, error) {
	d := tree.Descriptor{
		Kind:    tree.ParsePatchKind(p.Kind),
		RawKind: p.Kind,
	}
	for _, c := range p.Conditions {
		d.Conditions = append(d.Conditions, keys.Condition(c.Key, c.Match))
	}
	payload, err := decodeChildren(p.Payload, keys, []string{"payload"})
	if err != nil {
		return tree.Descriptor{}, err
	}
	d.Payload = payload
	return d, nil
}

func (p Patch) Equal(other Patch) bool {
	return slices.Equal(p.Conditions, other.Conditions) &&
		p.Kind == other.Kind &&
		reflect.DeepEqual(p.Payload, other.Payload)
}

type Condition struct {
	Key   string `json:"key"`
	Match string `json:"match"`

	_ struct{} `additionalProperties:"false"`
}

// IsRegionPattern reports whether a region entry is a glob pattern rather
// than an exact key.
func IsRegionPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func ParseFile(filename string) (root *Root, err error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", filename, err)
	}

	return Parse(bs)
}

func Parse(bs []byte) (*Root, error) {
	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := root.UnmarshalYAML(bs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	return &root, nil
}
