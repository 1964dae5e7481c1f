package cmd_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hktouw/formtree/cmd"
	ext_config "github.com/hktouw/formtree/config"
	"github.com/hktouw/formtree/internal/config"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, stderr)
	}
	return stdout
}

// workdir moves into an empty directory so no settings file is picked up.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", s, err)
	}
	return m
}

func childKeysAt(t *testing.T, doc map[string]any, children string) []string {
	t.Helper()
	gl := doc[children].(map[string]any)["gradeLevels"].(map[string]any)
	return slices.Sorted(maps.Keys(gl[children].(map[string]any)))
}

func TestBuild(t *testing.T) {
	workdir(t)

	out := mustRun(t, "build", "filters", "--region", "CA/Oakland", "--format", "json")
	doc := decodeJSON(t, out)
	if doc["display_type"] != "filter_column_primary" {
		t.Fatalf("unexpected root: %v", doc)
	}
	if diff := cmp.Diff([]string{"e", "h", "m", "p", "s"}, childKeysAt(t, doc, "filters")); diff != "" {
		t.Fatalf("children (-want, +got):\n%s", diff)
	}

	out = mustRun(t, "build", "templates", "-f", "json")
	doc = decodeJSON(t, out)
	if diff := cmp.Diff([]string{"e", "h", "m", "p"}, childKeysAt(t, doc, "templates")); diff != "" {
		t.Fatalf("children (-want, +got):\n%s", diff)
	}

	out = mustRun(t, "build", "templates", "--region", "ca/san francisco")
	if !strings.Contains(out, "partial: basic_checkbox") || !strings.Contains(out, "Super Senior") {
		t.Fatalf("unexpected YAML output:\n%s", out)
	}
}

func TestBuildReport(t *testing.T) {
	workdir(t)

	_, stderr, err := run(t, "build", "filters", "-r", "ca/oakland", "--report")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "applied patch 0 at /") {
		t.Fatalf("expected report on stderr, got:\n%s", stderr)
	}
}

func TestBuildErrors(t *testing.T) {
	workdir(t)

	if _, _, err := run(t, "build", "nope"); !errors.Is(err, config.ErrUnknownTree) {
		t.Fatalf("expected unknown tree, got %v", err)
	}
	if _, _, err := run(t, "build"); err == nil {
		t.Fatal("expected an argument error")
	}
	if _, _, err := run(t, "--log-level", "loud", "build", "filters"); err == nil {
		t.Fatal("expected an invalid log level error")
	}
	if _, _, err := run(t, "--catalog", "missing", "build", "filters"); err == nil {
		t.Fatal("expected an error for a missing catalog source")
	}
}

func TestCatalogFlags(t *testing.T) {
	dir := workdir(t)

	catalog := filepath.Join(dir, "catalog.yaml")
	writeFile(t, catalog, `
trees:
  menu:
    policy: multi_apply
    root:
      kind: list
      children:
        a: {kind: item, label: A}
        b: {kind: item, label: B}
patch_sets:
  everywhere:
    regions: ["*/*"]
    patches:
      - conditions: [{key: kind, match: item}]
        kind: append_to_children
        payload:
          note: {kind: note, label: Note}
`)

	out := mustRun(t, "--builtin=false", "--catalog", catalog, "build", "menu", "-r", "ny/albany", "-f", "json")
	exp := map[string]any{
		"kind": "list",
		"children": map[string]any{
			"a": map[string]any{"label": "A", "kind": "item", "children": map[string]any{"note": map[string]any{"label": "Note", "kind": "note"}}},
			"b": map[string]any{"label": "B", "kind": "item", "children": map[string]any{"note": map[string]any{"label": "Note", "kind": "note"}}},
		},
	}
	if diff := cmp.Diff(exp, decodeJSON(t, out)); diff != "" {
		t.Fatalf("tree (-want, +got):\n%s", diff)
	}

	if _, _, err := run(t, "--builtin=false", "--catalog", catalog, "build", "filters"); !errors.Is(err, config.ErrUnknownTree) {
		t.Fatalf("expected builtin trees to be excluded, got %v", err)
	}
}

func TestSettingsFile(t *testing.T) {
	dir := workdir(t)
	writeFile(t, filepath.Join(dir, "formtree.yaml"), "builtin: false\n")

	if _, _, err := run(t, "build", "filters"); !errors.Is(err, config.ErrUnknownTree) {
		t.Fatalf("expected settings file to disable the builtin catalog, got %v", err)
	}
	mustRun(t, "--builtin", "build", "filters")
}

func TestDiff(t *testing.T) {
	workdir(t)

	out := mustRun(t, "diff", "filters", "--region", "ca/oakland")
	exp := map[string]any{
		"filters": map[string]any{
			"gradeLevels": map[string]any{
				"filters": map[string]any{
					"s": map[string]any{
						"label":        "Super Senior",
						"display_type": "basic_checkbox",
						"name":         "gradeLevels",
						"value":        "s",
					},
				},
			},
		},
	}
	if diff := cmp.Diff(exp, decodeJSON(t, out)); diff != "" {
		t.Fatalf("merge patch (-want, +got):\n%s", diff)
	}

	out = mustRun(t, "diff", "templates", "-r", "ca/oakland", "-f", "unified")
	if !strings.Contains(out, "+++ templates@ca/oakland") {
		t.Fatalf("unexpected unified diff:\n%s", out)
	}
	var added int
	for line := range strings.Lines(out) {
		if strings.Contains(line, "label: Super Senior") {
			if !strings.HasPrefix(line, "+") {
				t.Fatalf("expected %q to be an added line", line)
			}
			added++
		}
	}
	if added != 1 {
		t.Fatalf("expected one added label, got %d:\n%s", added, out)
	}

	out = mustRun(t, "diff", "templates", "-r", "ny/albany", "-f", "unified")
	if out != "" {
		t.Fatalf("expected no difference for an unpatched region, got:\n%s", out)
	}

	if _, _, err := run(t, "diff", "templates"); err == nil {
		t.Fatal("expected --region to be required")
	}
}

func TestRegions(t *testing.T) {
	workdir(t)

	out := mustRun(t, "regions")
	for _, s := range []string{"filters", "templates", "ca/oakland", "ca/san francisco", "exact", "first_match_consume"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in:\n%s", s, out)
		}
	}
}

func TestRenderAll(t *testing.T) {
	dir := workdir(t)
	out := filepath.Join(dir, "out")

	mustRun(t, "render-all", "--out", out)

	for _, f := range []string{
		"filters/no_state/no_city.yaml",
		"filters/ca/oakland.yaml",
		"filters/ca/san francisco.yaml",
		"templates/no_state/no_city.yaml",
		"templates/ca/oakland.yaml",
		"templates/ca/san francisco.yaml",
	} {
		bs, err := os.ReadFile(filepath.Join(out, f))
		if err != nil {
			t.Fatal(err)
		}
		patched := strings.HasPrefix(f, "filters/ca/") || strings.HasPrefix(f, "templates/ca/")
		if got := bytes.Contains(bs, []byte("Super Senior")); got != patched {
			t.Errorf("%s: expected patched=%v", f, patched)
		}
	}

	if _, _, err := run(t, "render-all"); err == nil {
		t.Fatal("expected --out to be required")
	}
}

func TestValidate(t *testing.T) {
	dir := workdir(t)

	good := filepath.Join(dir, "good.yaml")
	writeFile(t, good, "trees: {t: {root: {kind: column}}}\n")
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "trees: {t: {root: {kind: column}, colour: red}}\n")
	unknownKind := filepath.Join(dir, "unknown.yaml")
	writeFile(t, unknownKind, `
trees: {t: {root: {kind: column}}}
patch_sets:
  p:
    regions: [ca/oakland]
    patches: [{conditions: [], kind: explode}]
`)

	out := mustRun(t, "validate", good)
	if out != good+": ok\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err := run(t, "validate", good, bad, unknownKind)
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	if !strings.Contains(err.Error(), "2 of 3 files failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, bad+": ") || !strings.Contains(out, unknownKind+": ") || !strings.Contains(out, "explode") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out = mustRun(t, "validate")
	if out != "ok: 2 trees, 1 patch sets\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSchema(t *testing.T) {
	workdir(t)

	if out := mustRun(t, "schema"); out != string(ext_config.Schema()) {
		t.Fatal("expected the embedded schema")
	}
	out := mustRun(t, "schema", "--reflect")
	if doc := decodeJSON(t, out); doc["properties"] == nil {
		t.Fatalf("unexpected reflected schema:\n%s", out)
	}
}

func TestWatchOnce(t *testing.T) {
	workdir(t)

	out := mustRun(t, "watch", "templates", "--region", "ca/oakland", "--once")
	if !strings.HasPrefix(out, "---\n") || !strings.Contains(out, "Super Senior") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, _, err := run(t, "watch", "nope", "--once"); !errors.Is(err, config.ErrUnknownTree) {
		t.Fatalf("expected unknown tree, got %v", err)
	}

	out, _, err := run(t, "--builtin=false", "watch", "templates", "--once")
	if !errors.Is(err, config.ErrUnknownTree) {
		t.Fatalf("expected unknown tree for an empty catalog, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got:\n%s", out)
	}
}

func TestMetricsFile(t *testing.T) {
	dir := workdir(t)
	metricsFile := filepath.Join(dir, "metrics.prom")

	mustRun(t, "--metrics-file", metricsFile, "build", "filters", "-r", "ca/oakland")

	bs, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(bs, []byte("formtree_tree_build_total")) {
		t.Fatalf("expected build metrics in:\n%s", bs)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
