package tree_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/hktouw/formtree/pkg/tree"
)

func smallTree(t *testing.T) *tree.Node {
	t.Helper()
	root, err := tree.Materialize(&tree.RawNode{
		Kind:  "title",
		Name:  "g",
		Extra: map[string]string{"id": "x"},
		Children: tree.ChildrenOf(
			kn("p", checkbox("Preschool", "p")),
			kn("e", checkbox("Elementary", "e")),
		),
	})
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestEncodeJSON(t *testing.T) {
	root := smallTree(t)

	bs, err := root.EncodeJSON(tree.TemplateKeys)
	if err != nil {
		t.Fatal(err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, bs); err != nil {
		t.Fatalf("invalid json %s: %v", bs, err)
	}
	exp := `{"partial":"title","name":"g","id":"x","templates":{` +
		`"p":{"label":"Preschool","partial":"basic_checkbox","name":"gradeLevels","value":"p"},` +
		`"e":{"label":"Elementary","partial":"basic_checkbox","name":"gradeLevels","value":"e"}}}`
	if diff := cmp.Diff(exp, compact.String()); diff != "" {
		t.Fatalf("json (-want, +got):\n%s", diff)
	}

	bs, err = json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(bs) {
		t.Fatalf("invalid json: %s", bs)
	}
	var generic map[string]any
	if err := json.Unmarshal(bs, &generic); err != nil {
		t.Fatal(err)
	}
	if generic["kind"] != "title" {
		t.Fatalf("expected default keys, got %v", generic)
	}
	if _, ok := generic["children"].(map[string]any)["e"]; !ok {
		t.Fatalf("expected children under default key, got %v", generic)
	}
}

func TestEncodeYAMLRoundtrip(t *testing.T) {
	root := smallTree(t)

	bs, err := root.EncodeYAML(tree.FilterKeys)
	if err != nil {
		t.Fatal(err)
	}

	var got any
	if err := yaml.UnmarshalWithOptions(bs, &got, yaml.UseOrderedMap()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(root.MapSlice(tree.FilterKeys), got); diff != "" {
		t.Fatalf("yaml (-want, +got):\n%s\n%s", diff, bs)
	}
}
