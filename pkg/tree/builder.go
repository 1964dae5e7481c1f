package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNilTree   = errors.New("nil base tree")
	ErrEmptyTree = errors.New("tree is empty after patching")
	ErrCycle     = errors.New("cycle in tree")
)

// ApplyPolicy decides how compiled patches are applied during a tree walk.
type ApplyPolicy int

const (
	// FirstMatchConsume applies, at each node, the first remaining patch that
	// matches, and removes it from the pool for the rest of the walk. Every
	// patch fires at most once, on the first qualifying node in pre-order.
	FirstMatchConsume ApplyPolicy = iota

	// MultiApply applies every patch, in order, at every node.
	MultiApply
)

var applyPolicyNames = map[string]ApplyPolicy{
	"":                    FirstMatchConsume,
	"first_match_consume": FirstMatchConsume,
	"multi_apply":         MultiApply,
}

// ParseApplyPolicy resolves a policy name. The empty string selects the
// default policy.
func ParseApplyPolicy(s string) (ApplyPolicy, error) {
	p, ok := applyPolicyNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown apply policy %q", s)
	}
	return p, nil
}

func (p ApplyPolicy) String() string {
	switch p {
	case FirstMatchConsume:
		return "first_match_consume"
	case MultiApply:
		return "multi_apply"
	default:
		return fmt.Sprintf("ApplyPolicy(%d)", int(p))
	}
}

// Builder materializes patched trees. A Builder is immutable once
// configured and may be shared by concurrent callers: each Build call keeps
// its own copy of the base tree and its own pool of remaining patches.
type Builder struct {
	patches []Patch
	policy  ApplyPolicy
}

// New returns a Builder with no patches and the FirstMatchConsume policy.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) WithPatches(patches []Patch) *Builder {
	b.patches = slices.Clone(patches)
	return b
}

func (b *Builder) WithPolicy(p ApplyPolicy) *Builder {
	b.policy = p
	return b
}

func (b *Builder) Policy() ApplyPolicy { return b.policy }

// Application records one patch applied to one node.
type Application struct {
	// Patch is the index of the patch in the builder's patch list.
	Patch int
	Path  []string
}

// Report describes what happened during a build.
type Report struct {
	Applied []Application

	// Unused lists the indexes of patches that never applied anywhere in the
	// tree.
	Unused []int
}

// Result is the outcome of Run.
type Result struct {
	Root   *Node
	Report Report
}

// Build walks a deep copy of base, applies the builder's patches and
// returns the materialized root.
func (b *Builder) Build(base *RawNode) (*Node, error) {
	res, err := b.Run(base)
	if err != nil {
		return nil, err
	}
	return res.Root, nil
}

// Run is Build with a report of the applied and unused patches.
func (b *Builder) Run(base *RawNode) (*Result, error) {
	if base == nil {
		return nil, ErrNilTree
	}
	scratch, err := base.Clone()
	if err != nil {
		return nil, err
	}

	w := walk{patches: b.patches, policy: b.policy, used: make([]bool, len(b.patches))}
	for i := range b.patches {
		w.remaining = append(w.remaining, i)
	}

	root, err := w.build("", scratch, nil)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrEmptyTree
	}

	res := &Result{Root: root, Report: Report{Applied: w.applied}}
	for i, used := range w.used {
		if !used {
			res.Report.Unused = append(res.Report.Unused, i)
		}
	}
	return res, nil
}

// walk is the scratch state of one Run call.
type walk struct {
	patches   []Patch
	policy    ApplyPolicy
	remaining []int
	used      []bool
	applied   []Application
}

func (w *walk) build(key string, n *RawNode, path []string) (*Node, error) {
	n, err := w.apply(n, path)
	if err != nil {
		return nil, err
	}
	if n.IsEmpty() {
		return nil, nil
	}

	var children []*Node
	for childKey, child := range n.Children.All() {
		c, err := w.build(childKey, child, append(slices.Clip(path), childKey))
		if err != nil {
			return nil, err
		}
		if c != nil {
			children = append(children, c)
		}
	}
	return newNode(key, n, children), nil
}

func (w *walk) apply(n *RawNode, path []string) (*RawNode, error) {
	if n == nil {
		return nil, nil
	}
	switch w.policy {
	case MultiApply:
		for i, p := range w.patches {
			out, ok, err := p.Apply(n)
			if err != nil {
				return nil, w.wrap(err, i, path)
			}
			if ok {
				w.record(i, path)
				n = out
			}
		}
		return n, nil
	default:
		for j, i := range w.remaining {
			out, ok, err := w.patches[i].Apply(n)
			if err != nil {
				return nil, w.wrap(err, i, path)
			}
			if ok {
				w.record(i, path)
				w.remaining = slices.Delete(w.remaining, j, j+1)
				return out, nil
			}
		}
		return n, nil
	}
}

func (w *walk) record(i int, path []string) {
	w.used[i] = true
	w.applied = append(w.applied, Application{Patch: i, Path: slices.Clone(path)})
}

func (w *walk) wrap(err error, i int, path []string) error {
	return fmt.Errorf("patch %d (%s) at %s: %w", i, w.patches[i].Descriptor, formatPath(path), err)
}

func formatPath(path []string) string {
	return "/" + strings.Join(path, "/")
}
