package tree

// Keys names the attributes of a tree flavour whose spelling differs between
// definitions: the display type and the children mapping. Template trees use
// "partial"/"templates", filter trees "display_type"/"filters".
type Keys struct {
	Kind     string `json:"kind,omitempty"`
	Children string `json:"children,omitempty"`
}

var (
	DefaultKeys  = Keys{Kind: AttrKind, Children: "children"}
	TemplateKeys = Keys{Kind: "partial", Children: "templates"}
	FilterKeys   = Keys{Kind: "display_type", Children: "filters"}
)

// OrDefault fills unset names from DefaultKeys.
func (k Keys) OrDefault() Keys {
	if k.Kind == "" {
		k.Kind = DefaultKeys.Kind
	}
	if k.Children == "" {
		k.Children = DefaultKeys.Children
	}
	return k
}

// Canonical maps an attribute name as spelled in a definition to the name
// used by RawNode.Attr.
func (k Keys) Canonical(key string) string {
	if key == k.OrDefault().Kind {
		return AttrKind
	}
	return key
}

// Spelled is the inverse of Canonical.
func (k Keys) Spelled(attr string) string {
	if attr == AttrKind {
		return k.OrDefault().Kind
	}
	return attr
}

// Condition returns a condition on the attribute spelled key.
func (k Keys) Condition(key, match string) Condition {
	return Condition{Key: k.Canonical(key), Match: match}
}
