package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"

	"github.com/hktouw/formtree/pkg/tree"
)

// attributes is the scalar part of a node definition. Anything that is not a
// known attribute or the children mapping ends up in Extra.
type attributes struct {
	Label string         `mapstructure:"label"`
	Kind  string         `mapstructure:"kind"`
	Name  string         `mapstructure:"name"`
	Value string         `mapstructure:"value"`
	Extra map[string]any `mapstructure:",remain"`
}

// decodeNode converts an ordered mapping, as produced by the YAML decoder,
// into a raw node. The attribute spelled keys.Kind becomes the node kind and
// the mapping under keys.Children holds the children.
func decodeNode(v any, keys tree.Keys, path []string) (*tree.RawNode, error) {
	keys = keys.OrDefault()

	if v == nil {
		return &tree.RawNode{}, nil
	}
	ms, err := mapping(v, path)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(ms))
	var children any
	for _, item := range ms {
		k := fmt.Sprint(item.Key)
		switch {
		case k == keys.Children:
			children = item.Value
			continue
		case item.Value == nil:
			continue
		}
		switch item.Value.(type) {
		case yaml.MapSlice, map[string]any, []any:
			return nil, invalid(path, "attribute %q must be a scalar", k)
		}
		attr := keys.Canonical(k)
		if _, ok := fields[attr]; ok {
			return nil, invalid(path, "attribute %q is set more than once", attr)
		}
		fields[attr] = item.Value
	}

	var attrs attributes
	if err := decode(fields, &attrs); err != nil {
		return nil, invalid(path, "%v", err)
	}

	n := &tree.RawNode{
		Label: attrs.Label,
		Kind:  attrs.Kind,
		Name:  attrs.Name,
		Value: attrs.Value,
	}
	if len(attrs.Extra) > 0 {
		n.Extra = make(map[string]string, len(attrs.Extra))
		for k, v := range attrs.Extra {
			n.Extra[k] = fmt.Sprint(v)
		}
	}

	n.Children, err = decodeChildren(children, keys, path)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// decodeChildren converts an ordered mapping of child definitions. A nil
// value yields nil children.
func decodeChildren(v any, keys tree.Keys, path []string) (*tree.Children, error) {
	if v == nil {
		return nil, nil
	}
	ms, err := mapping(v, path)
	if err != nil {
		return nil, err
	}
	children := tree.NewChildren()
	for _, item := range ms {
		k := fmt.Sprint(item.Key)
		child, err := decodeNode(item.Value, keys, append(path[:len(path):len(path)], k))
		if err != nil {
			return nil, err
		}
		children.Set(k, child)
	}
	return children, nil
}

func mapping(v any, path []string) (yaml.MapSlice, error) {
	switch v := v.(type) {
	case yaml.MapSlice:
		return v, nil
	case map[string]any:
		// Unordered input, e.g. from JSON. Keys are taken in sorted order.
		var ms yaml.MapSlice
		for _, k := range slices.Sorted(maps.Keys(v)) {
			ms = append(ms, yaml.MapItem{Key: k, Value: v[k]})
		}
		return ms, nil
	default:
		return nil, invalid(path, "expected a mapping, got %T", v)
	}
}

func invalid(path []string, format string, args ...any) error {
	return fmt.Errorf("%w at /%s: %s", ErrInvalidTree, strings.Join(path, "/"), fmt.Sprintf(format, args...))
}

// we use this one so scalars of any type read as their YAML spelling
func decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		DecodeHook:       stringify,
		WeaklyTypedInput: true,
		Metadata:         nil,
		Result:           output,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

func stringify(from, to reflect.Type, data any) (any, error) {
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return fmt.Sprint(data), nil
	}
	return data, nil
}
