// Package tree derives regional variants of a UI form element tree from one
// shared base definition.
//
// A base tree is a nested definition of form elements (titles, checkboxes,
// columns...). Regions differ from the base only by a few small patches, so
// instead of maintaining a full tree per region, each region registers an
// ordered list of patch descriptors that are applied while the base tree is
// materialized into immutable Nodes.
//
// # Basic Usage
//
//	base := &tree.RawNode{
//	    Kind: "title",
//	    Name: "gradeLevels",
//	    Children: tree.ChildrenOf(
//	        tree.KeyNode{Key: "p", Node: &tree.RawNode{Label: "Preschool", Kind: "basic_checkbox", Value: "p"}},
//	        tree.KeyNode{Key: "e", Node: &tree.RawNode{Label: "Elementary", Kind: "basic_checkbox", Value: "e"}},
//	    ),
//	}
//
//	reg := tree.NewRegistry()
//	reg.Register(tree.NewRegionKey("CA", "Oakland"), tree.Descriptor{
//	    Conditions: []tree.Condition{{Key: "kind", Match: "title"}, {Key: "name", Match: "gradeLevels"}},
//	    Kind:       tree.AppendChildren,
//	    Payload: tree.ChildrenOf(
//	        tree.KeyNode{Key: "s", Node: &tree.RawNode{Label: "Super Senior", Kind: "basic_checkbox", Value: "s"}},
//	    ),
//	})
//
//	patches := tree.Compile(reg.Lookup(tree.NewRegionKey("ca", "oakland")), nil)
//	root, err := tree.New().WithPatches(patches).Build(base)
//
// # Patch Kinds
//
// AppendChildren merges the payload into the children of the matching node,
// payload keys winning on conflict, and never touches any other attribute.
// ReplaceIfEmptyElseMerge does the same for nodes that already have children
// but replaces a childless node by the payload. Descriptors of any other kind
// are dropped by Compile and reported to its callback.
//
// # Apply Policies
//
// With FirstMatchConsume (the default) each patch fires at most once: at each
// node the first remaining patch whose conditions match is applied and
// removed from the pool. This lets a patch target a single node even when its
// conditions are not unique in the tree. With MultiApply every patch is tried
// at every node.
//
// # Attribute Names
//
// Definitions spell the display type and the children mapping differently
// depending on the tree flavour ("partial"/"templates" for templates,
// "display_type"/"filters" for filters). Keys translates those spellings to
// the canonical attribute names used by conditions and RawNode.Attr.
package tree
