package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hktouw/formtree/pkg/tree"
)

type outputFormat int

const (
	outputYAML outputFormat = iota
	outputJSON
)

var outputFormatNames = map[outputFormat][]string{
	outputYAML: {"yaml", "yml"},
	outputJSON: {"json"},
}

func (f outputFormat) ext() string {
	if f == outputJSON {
		return ".json"
	}
	return ".yaml"
}

// encode renders n in definition form, spelled with the keys of its tree.
func encode(n *tree.Node, keys tree.Keys, format outputFormat) ([]byte, error) {
	switch format {
	case outputJSON:
		bs, err := n.EncodeJSON(keys)
		if err != nil {
			return nil, err
		}
		return indentJSON(bs)
	case outputYAML:
		return n.EncodeYAML(keys)
	default:
		return nil, fmt.Errorf("unknown output format %d", format)
	}
}

// indentJSON keeps key order, unlike a round trip through a map.
func indentJSON(bs []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(bs), "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
