package config

import (
	"fmt"
	"io/fs"
	"reflect"

	"gopkg.in/yaml.v3"

	formtreefs "github.com/hktouw/formtree/internal/fs"
)

// Merge deep-merges catalog documents in the order given. Mappings are merged
// key by key and keep the order keys were first seen in; any other value is
// replaced by the later document, or rejected when conflictError is set and
// the values differ.
func Merge(docs [][]byte, conflictError bool) ([]byte, error) {
	var merged *yaml.Node
	for i, bs := range docs {
		var doc yaml.Node
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal catalog document %d: %v", i, err)
		}
		if len(doc.Content) == 0 {
			continue // empty document
		}
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("catalog document %d: expected a mapping", i)
		}
		if merged == nil {
			merged = root
			continue
		}
		if err := merge(merged, root, "", conflictError); err != nil {
			return nil, err
		}
	}

	if merged == nil {
		return []byte("{}\n"), nil
	}

	bs, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged catalog: %v", err)
	}

	return bs, nil
}

// MergeFS merges every catalog file in fsys, in lexical path order.
func MergeFS(fsys fs.FS, conflictError bool) ([]byte, error) {
	paths, err := formtreefs.CatalogFiles(fsys)
	if err != nil {
		return nil, err
	}

	docs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		bs, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %v: %v", p, err)
		}
		docs = append(docs, bs)
	}

	return Merge(docs, conflictError)
}

func merge(dst, src *yaml.Node, path string, conflictError bool) error {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, value := src.Content[i], src.Content[i+1]
		j := mappingIndex(dst, key.Value)
		if j == -1 {
			dst.Content = append(dst.Content, key, value)
			continue
		}

		existing := dst.Content[j+1]
		if existing.Kind == yaml.MappingNode && value.Kind == yaml.MappingNode {
			if err := merge(existing, value, path+"/"+key.Value, conflictError); err != nil {
				return err
			}
			continue
		}

		if conflictError && !nodeEqual(existing, value) {
			return fmt.Errorf("conflict for catalog path %s", path+"/"+key.Value)
		}
		dst.Content[j+1] = value
	}
	return nil
}

func mappingIndex(n *yaml.Node, key string) int {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func nodeEqual(a, b *yaml.Node) bool {
	var x, y any
	if a.Decode(&x) != nil || b.Decode(&y) != nil {
		return false
	}
	return reflect.DeepEqual(x, y)
}
