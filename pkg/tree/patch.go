package tree

import (
	"errors"
	"fmt"
	"strings"
)

// PatchKind selects how a patch payload is merged into a matching node.
type PatchKind int

const (
	PatchKindUnknown PatchKind = iota

	// AppendChildren merges the payload into the node's children, payload
	// keys winning on conflict. It only touches the children mapping.
	AppendChildren

	// ReplaceIfEmptyElseMerge replaces a childless node with a node holding
	// only the payload as children; otherwise it behaves like AppendChildren.
	// It may drop every attribute of the node it replaces.
	ReplaceIfEmptyElseMerge
)

var patchKindNames = map[string]PatchKind{
	"append_to_children":          AppendChildren,
	"append-children":             AppendChildren,
	"replace_if_empty_else_merge": ReplaceIfEmptyElseMerge,
	"replace-if-empty-else-merge": ReplaceIfEmptyElseMerge,
}

// ParsePatchKind resolves a kind name as written in a catalog. Unknown names
// yield PatchKindUnknown.
func ParsePatchKind(s string) PatchKind {
	return patchKindNames[strings.ToLower(strings.TrimSpace(s))]
}

func (k PatchKind) String() string {
	switch k {
	case AppendChildren:
		return "append_to_children"
	case ReplaceIfEmptyElseMerge:
		return "replace_if_empty_else_merge"
	default:
		return "unknown"
	}
}

// ErrUnknownPatchKind is returned by CompileOne for descriptors whose kind is
// not recognized.
var ErrUnknownPatchKind = errors.New("unknown patch kind")

// Descriptor is the declarative form of a patch.
type Descriptor struct {
	Conditions []Condition
	Kind       PatchKind

	// RawKind is the kind as spelled in the catalog, kept for diagnostics.
	RawKind string

	// Payload maps child keys to child nodes. It is shared, read-only data:
	// compiled patches copy it into the tree they are applied to.
	Payload *Children
}

func (d Descriptor) String() string {
	conds := make([]string, len(d.Conditions))
	for i, c := range d.Conditions {
		conds[i] = c.String()
	}
	kind := d.Kind.String()
	if d.Kind == PatchKindUnknown && d.RawKind != "" {
		kind = d.RawKind
	}
	return fmt.Sprintf("%s if [%s] with %v", kind, strings.Join(conds, ", "), d.Payload.Keys())
}

// Patch is a compiled Descriptor.
type Patch struct {
	Descriptor Descriptor
	apply      func(*RawNode) (*RawNode, bool, error)
}

// Apply runs the patch against n. The boolean is false when the patch did
// not apply, in which case n is returned unchanged. A patch that applied
// may return a different node than n, or an empty one.
func (p Patch) Apply(n *RawNode) (*RawNode, bool, error) {
	return p.apply(n)
}

// CompileOne turns one descriptor into an executable patch.
func CompileOne(d Descriptor) (Patch, error) {
	switch d.Kind {
	case AppendChildren:
		return Patch{Descriptor: d, apply: appendChildren(d.Conditions, d.Payload)}, nil
	case ReplaceIfEmptyElseMerge:
		return Patch{Descriptor: d, apply: replaceIfEmptyElseMerge(d.Conditions, d.Payload)}, nil
	}
	kind := d.RawKind
	if kind == "" {
		kind = d.Kind.String()
	}
	return Patch{}, fmt.Errorf("%w %q", ErrUnknownPatchKind, kind)
}

// Compile compiles descriptors in order. Descriptors that cannot be compiled
// are dropped rather than failing the whole set, so a catalog written for a
// newer engine still builds; every dropped descriptor is passed to skipped
// when it is non-nil.
func Compile(descs []Descriptor, skipped func(Descriptor, error)) []Patch {
	patches := make([]Patch, 0, len(descs))
	for _, d := range descs {
		p, err := CompileOne(d)
		if err != nil {
			if skipped != nil {
				skipped(d, err)
			}
			continue
		}
		patches = append(patches, p)
	}
	return patches
}

func appendChildren(conds []Condition, payload *Children) func(*RawNode) (*RawNode, bool, error) {
	return func(n *RawNode) (*RawNode, bool, error) {
		if !Matches(conds, n) {
			return n, false, nil
		}
		if err := mergeChildren(n, payload); err != nil {
			return n, false, err
		}
		return n, true, nil
	}
}

func replaceIfEmptyElseMerge(conds []Condition, payload *Children) func(*RawNode) (*RawNode, bool, error) {
	return func(n *RawNode) (*RawNode, bool, error) {
		if !Matches(conds, n) {
			return n, false, nil
		}
		if n.HasChildren() {
			if err := mergeChildren(n, payload); err != nil {
				return n, false, err
			}
			return n, true, nil
		}
		children, err := payload.Clone()
		if err != nil {
			return n, false, err
		}
		return &RawNode{Children: children}, true, nil
	}
}

func mergeChildren(n *RawNode, payload *Children) error {
	add, err := payload.Clone()
	if err != nil {
		return err
	}
	if n.Children == nil {
		n.Children = NewChildren()
	}
	n.Children.Merge(add)
	return nil
}
