package tree_test

import (
	"github.com/hktouw/formtree/pkg/tree"
)

func kn(key string, n *tree.RawNode) tree.KeyNode {
	return tree.KeyNode{Key: key, Node: n}
}

func checkbox(label, value string) *tree.RawNode {
	return &tree.RawNode{Label: label, Kind: "basic_checkbox", Name: "gradeLevels", Value: value}
}

func gradeLevels(name string) *tree.RawNode {
	return &tree.RawNode{
		Label: "Grade Level",
		Kind:  "title",
		Name:  name,
		Children: tree.ChildrenOf(
			kn("p", checkbox("Preschool", "p")),
			kn("e", checkbox("Elementary", "e")),
			kn("m", checkbox("Middle", "m")),
			kn("h", checkbox("High", "h")),
		),
	}
}

// simpleTemplate mirrors the base template set: a primary column holding the
// grade level title.
func simpleTemplate(name string) *tree.RawNode {
	return &tree.RawNode{
		Kind:     "template_column_primary",
		Children: tree.ChildrenOf(kn("gradeLevels", gradeLevels(name))),
	}
}

func superSenior(kind tree.PatchKind) tree.Descriptor {
	return tree.Descriptor{
		Conditions: []tree.Condition{
			{Key: "kind", Match: "title"},
			{Key: "name", Match: "gradeLevels"},
		},
		Kind:    kind,
		Payload: tree.ChildrenOf(kn("s", checkbox("Super Senior", "s"))),
	}
}

func childKeys(n *tree.Node) []string {
	var keys []string
	for _, c := range n.Children() {
		keys = append(keys, c.Key())
	}
	return keys
}

func bayArea() *tree.Registry {
	reg := tree.NewRegistry()
	reg.Register(tree.NewRegionKey("ca", "oakland"), superSenior(tree.AppendChildren))
	reg.Register(tree.NewRegionKey("ca", "san francisco"), superSenior(tree.AppendChildren))
	return reg
}
