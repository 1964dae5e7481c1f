package tree

import (
	"fmt"
	"maps"
	"slices"
)

// Canonical attribute names understood by RawNode.Attr. Any other name is
// looked up in the Extra bag.
const (
	AttrLabel = "label"
	AttrKind  = "kind"
	AttrName  = "name"
	AttrValue = "value"
)

// RawNode is one row of a base tree before patching. Empty strings mean the
// attribute is absent. RawNodes are scratch data: the builder deep-copies the
// base tree before mutating anything.
type RawNode struct {
	Label string
	Kind  string
	Name  string
	Value string

	// Extra holds attributes outside the recognized set, e.g. "id". They
	// take part in condition matching and are carried to the output Node.
	Extra map[string]string

	Children *Children
}

// Attr returns the stringified attribute named key, or "" if it is absent.
func (n *RawNode) Attr(key string) string {
	switch key {
	case AttrLabel:
		return n.Label
	case AttrKind:
		return n.Kind
	case AttrName:
		return n.Name
	case AttrValue:
		return n.Value
	}
	return n.Extra[key]
}

// HasChildren reports whether the node has a non-empty children mapping.
func (n *RawNode) HasChildren() bool {
	return n.Children.Len() > 0
}

// IsEmpty reports whether the node carries neither attributes nor children.
// Empty nodes are dropped from the built tree.
func (n *RawNode) IsEmpty() bool {
	if n == nil {
		return true
	}
	return n.Label == "" && n.Kind == "" && n.Name == "" && n.Value == "" &&
		len(n.Extra) == 0 && !n.HasChildren()
}

// Clone returns a deep copy of the node and its whole subtree. Cycles are
// reported as ErrCycle.
func (n *RawNode) Clone() (*RawNode, error) {
	return cloneNode(n, make(map[*RawNode]struct{}), nil)
}

// MustClone is like Clone but panics on error. It is meant for static test
// fixtures.
func (n *RawNode) MustClone() *RawNode {
	c, err := n.Clone()
	if err != nil {
		panic(err)
	}
	return c
}

func cloneNode(n *RawNode, visiting map[*RawNode]struct{}, path []string) (*RawNode, error) {
	if n == nil {
		return nil, nil
	}
	if _, ok := visiting[n]; ok {
		return nil, fmt.Errorf("%w at %s", ErrCycle, formatPath(path))
	}
	visiting[n] = struct{}{}
	defer delete(visiting, n)

	out := &RawNode{
		Label: n.Label,
		Kind:  n.Kind,
		Name:  n.Name,
		Value: n.Value,
	}
	if len(n.Extra) > 0 {
		out.Extra = maps.Clone(n.Extra)
	}
	if n.Children != nil {
		out.Children = NewChildren()
		for _, key := range n.Children.keys {
			child, err := cloneNode(n.Children.nodes[key], visiting, append(path, key))
			if err != nil {
				return nil, err
			}
			out.Children.Set(key, child)
		}
	}
	return out, nil
}

// Children is an ordered mapping of child key to child node. Keys are
// unique; the insertion order of keys is the order of the built children.
// The zero value is not usable, use NewChildren. A nil *Children behaves as
// an empty read-only mapping.
type Children struct {
	keys  []string
	nodes map[string]*RawNode
}

// NewChildren returns an empty mapping.
func NewChildren() *Children {
	return &Children{nodes: make(map[string]*RawNode)}
}

// ChildrenOf builds a mapping from key/node pairs, in order.
func ChildrenOf(kvs ...KeyNode) *Children {
	c := NewChildren()
	for _, kv := range kvs {
		c.Set(kv.Key, kv.Node)
	}
	return c
}

// KeyNode pairs a child key with its node.
type KeyNode struct {
	Key  string
	Node *RawNode
}

// Len returns the number of children.
func (c *Children) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the child keys in order.
func (c *Children) Keys() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.keys)
}

// Get returns the child stored under key.
func (c *Children) Get(key string) (*RawNode, bool) {
	if c == nil {
		return nil, false
	}
	n, ok := c.nodes[key]
	return n, ok
}

// Set stores n under key. Overwriting an existing key keeps its position;
// new keys are appended.
func (c *Children) Set(key string, n *RawNode) {
	if _, ok := c.nodes[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.nodes[key] = n
}

// Merge copies every entry of other into c, other winning on conflict.
func (c *Children) Merge(other *Children) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		c.Set(key, other.nodes[key])
	}
}

// All iterates the children in order.
func (c *Children) All() func(yield func(string, *RawNode) bool) {
	return func(yield func(string, *RawNode) bool) {
		if c == nil {
			return
		}
		for _, key := range c.keys {
			if !yield(key, c.nodes[key]) {
				return
			}
		}
	}
}

// Clone deep-copies the mapping and every subtree in it.
func (c *Children) Clone() (*Children, error) {
	if c == nil {
		return nil, nil
	}
	n, err := (&RawNode{Children: c}).Clone()
	if err != nil {
		return nil, err
	}
	return n.Children, nil
}
