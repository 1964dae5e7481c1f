package tree

import (
	"bytes"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"
)

// MapSlice renders the node in definition form, attribute names spelled with
// keys. Children are nested under keys.Children in order, so the output can
// be read back as a base tree.
func (n *Node) MapSlice(keys Keys) yaml.MapSlice {
	keys = keys.OrDefault()
	var out yaml.MapSlice
	add := func(k, v string) {
		if v != "" {
			out = append(out, yaml.MapItem{Key: k, Value: v})
		}
	}
	add(AttrLabel, n.label)
	add(keys.Kind, n.kind)
	add(AttrName, n.name)
	add(AttrValue, n.value)
	for _, k := range slices.Sorted(maps.Keys(n.extra)) {
		add(k, n.extra[k])
	}
	if len(n.children) > 0 {
		children := make(yaml.MapSlice, 0, len(n.children))
		for _, c := range n.children {
			children = append(children, yaml.MapItem{Key: c.key, Value: c.MapSlice(keys)})
		}
		out = append(out, yaml.MapItem{Key: keys.Children, Value: children})
	}
	return out
}

// EncodeYAML renders the node as a YAML document in definition form.
func (n *Node) EncodeYAML(keys Keys) ([]byte, error) {
	return yaml.Marshal(n.MapSlice(keys))
}

// EncodeJSON renders the node as JSON in definition form. Object keys keep
// the tree order.
func (n *Node) EncodeJSON(keys Keys) ([]byte, error) {
	bs, err := yaml.MarshalWithOptions(n.MapSlice(keys), yaml.JSON())
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(bs), nil
}

// MarshalJSON renders the node with DefaultKeys.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.EncodeJSON(DefaultKeys)
}
