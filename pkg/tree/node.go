package tree

import (
	"maps"
	"slices"
)

// Node is an immutable materialized tree element, produced by a Builder and
// consumed by a rendering layer. The label is opaque: it is usually an i18n
// lookup key resolved by the renderer.
type Node struct {
	key      string
	label    string
	kind     string
	name     string
	value    string
	extra    map[string]string
	children []*Node
}

func newNode(key string, raw *RawNode, children []*Node) *Node {
	n := &Node{
		key:      key,
		label:    raw.Label,
		kind:     raw.Kind,
		name:     raw.Name,
		value:    raw.Value,
		children: children,
	}
	if len(raw.Extra) > 0 {
		n.extra = maps.Clone(raw.Extra)
	}
	return n
}

// Key is the child key the node was stored under in its parent. The root
// has an empty key.
func (n *Node) Key() string { return n.key }

func (n *Node) Label() string { return n.label }

// Kind is the semantic display type of the node, e.g. "title" or
// "basic_checkbox".
func (n *Node) Kind() string { return n.kind }

func (n *Node) Name() string { return n.name }

func (n *Node) Value() string { return n.value }

// Attr returns the attribute named key, using the same lookup rules as
// RawNode.Attr.
func (n *Node) Attr(key string) string {
	switch key {
	case AttrLabel:
		return n.label
	case AttrKind:
		return n.kind
	case AttrName:
		return n.name
	case AttrValue:
		return n.value
	}
	return n.extra[key]
}

// Extra returns a copy of the uninterpreted attributes.
func (n *Node) Extra() map[string]string {
	return maps.Clone(n.extra)
}

// Children returns a copy of the ordered child nodes.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// HasChildren is derived from the children sequence and is never stored.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// Find follows child keys from n and returns the node at the end of the
// path.
func (n *Node) Find(path ...string) (*Node, bool) {
	cur := n
	for _, key := range path {
		i := slices.IndexFunc(cur.children, func(c *Node) bool { return c.key == key })
		if i == -1 {
			return nil, false
		}
		cur = cur.children[i]
	}
	return cur, true
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(path []string, n *Node) bool) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool) {
	if !fn(path, n) {
		return
	}
	for _, c := range n.children {
		c.walk(append(slices.Clip(path), c.key), fn)
	}
}

// Equal reports structural equality, children compared in order.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	return n.key == other.key &&
		n.label == other.label &&
		n.kind == other.kind &&
		n.name == other.name &&
		n.value == other.value &&
		maps.Equal(n.extra, other.extra) &&
		slices.EqualFunc(n.children, other.children, (*Node).Equal)
}

// Materialize converts a raw tree into Nodes without applying any patch.
func Materialize(raw *RawNode) (*Node, error) {
	return New().Build(raw)
}
