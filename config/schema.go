// Package config holds the JSON schema catalog files are validated against.
package config

import (
	_ "embed"
)

//go:generate go run ../build/gen-config-schema.go schema.json

//go:embed "schema.json"
var schema []byte

// Schema returns the embedded catalog schema.
func Schema() []byte {
	return schema
}
