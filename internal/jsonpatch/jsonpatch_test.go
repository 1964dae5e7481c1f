package jsonpatch_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hktouw/formtree/internal/jsonpatch"
)

func TestDiffAndApply(t *testing.T) {
	base := json.RawMessage(`{"kind":"title","children":{"p":{"label":"Preschool"},"e":{"label":"Elementary"}}}`)
	variant := json.RawMessage(`{"kind":"title","children":{"p":{"label":"Preschool"},"e":{"label":"Elementary"},"s":{"label":"Super Senior"}}}`)

	patch, err := jsonpatch.Diff(base, variant)
	if err != nil {
		t.Fatal(err)
	}
	if !jsonpatch.Equal(patch, json.RawMessage(`{"children":{"s":{"label":"Super Senior"}}}`)) {
		t.Fatalf("unexpected patch: %s", patch)
	}

	out, err := jsonpatch.Apply(base, patch)
	if err != nil {
		t.Fatal(err)
	}
	if !jsonpatch.Equal(out, variant) {
		t.Fatalf("expected %s, got %s", variant, out)
	}

	same, err := jsonpatch.Diff(base, base)
	if err != nil {
		t.Fatal(err)
	}
	if string(same) != "{}" {
		t.Fatalf("expected empty patch, got %s", same)
	}
}

func TestInvalidInput(t *testing.T) {
	tests := []struct {
		note string
		call func() error
	}{
		{"diff base", func() error { _, err := jsonpatch.Diff(json.RawMessage(`{`), json.RawMessage(`{}`)); return err }},
		{"diff variant", func() error { _, err := jsonpatch.Diff(json.RawMessage(`{}`), json.RawMessage(`{"a":`)); return err }},
		{"diff empty", func() error { _, err := jsonpatch.Diff(nil, json.RawMessage(`{}`)); return err }},
		{"apply document", func() error { _, err := jsonpatch.Apply(json.RawMessage(`[`), json.RawMessage(`{}`)); return err }},
		{"apply patch", func() error { _, err := jsonpatch.Apply(json.RawMessage(`{}`), json.RawMessage(`{"a"}`)); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			err := tc.call()
			var pe *jsonpatch.PatchError
			if !errors.As(err, &pe) || !errors.Is(err, jsonpatch.ErrInvalidJSON) {
				t.Fatalf("expected invalid JSON patch error, got %v", err)
			}
		})
	}
}

func TestUnified(t *testing.T) {
	got := jsonpatch.Unified("base", "ca/oakland", "p: Preschool\n", "p: Preschool\ns: Super Senior\n")
	for _, exp := range []string{"--- base", "+++ ca/oakland", "+s: Super Senior"} {
		if !strings.Contains(got, exp) {
			t.Errorf("expected %q in:\n%s", exp, got)
		}
	}
	if jsonpatch.Unified("a", "b", "x\n", "x\n") != "" {
		t.Error("expected no diff for equal inputs")
	}
}
