package config

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v6"
	schemareflector "github.com/swaggest/jsonschema-go"

	ext_config "github.com/hktouw/formtree/config"
)

var rootSchema *jsonschema.Schema

func init() {
	js, err := jsonschema.UnmarshalJSON(bytes.NewReader(ext_config.Schema()))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("schema.json", js); err != nil {
		panic(err)
	}

	rootSchema, err = compiler.Compile("schema.json")
	if err != nil {
		panic(err)
	}
}

func ReflectSchema() ([]byte, error) {
	reflector := schemareflector.Reflector{}

	s, err := reflector.Reflect(Root{})
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(s, "", "  ")
}

// A tree definition is any mapping; its shape depends on the tree keys and
// is checked while decoding.
func (*Tree) PrepareJSONSchema(schema *schemareflector.Schema) error {
	if prop, ok := schema.Properties["root"]; ok && prop.TypeObject != nil {
		prop.TypeObject.AddType(schemareflector.Object)
		prop.TypeObject.AddType(schemareflector.Null)
	}
	return nil
}

// We do this so that an empty patch set is valid:
//
//	patch_sets:
//	  disabled:
func (*PatchSet) PrepareJSONSchema(schema *schemareflector.Schema) error {
	schema.AddType(schemareflector.Null)
	return nil
}
