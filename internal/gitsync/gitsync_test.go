package gitsync

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	formtreefs "github.com/hktouw/formtree/internal/fs"
)

func TestNew(t *testing.T) {
	tests := []struct {
		source string
		repo   string
		ref    plumbing.ReferenceName
	}{
		{source: "git+https://example.com/catalogs.git", repo: "https://example.com/catalogs.git"},
		{source: "git+https://example.com/catalogs.git#main", repo: "https://example.com/catalogs.git", ref: "refs/heads/main"},
		{source: "git+file:///srv/catalogs#refs/tags/v1", repo: "file:///srv/catalogs", ref: "refs/tags/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if !IsGitURL(tt.source) {
				t.Fatalf("expected %q to be a git source", tt.source)
			}
			s := New(tt.source)
			if s.Repo() != tt.repo {
				t.Errorf("expected repo %q, got %q", tt.repo, s.Repo())
			}
			if got := s.referenceName(); got != tt.ref {
				t.Errorf("expected reference %q, got %q", tt.ref, got)
			}
		})
	}

	if IsGitURL("https://example.com/catalog.yaml") {
		t.Fatal("plain URLs are not git sources")
	}
}

func TestFetch(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"catalog.yaml":         "trees: {}\n",
		"regions/ca.yml":       "patch_sets: {}\n",
		"README.md":            "not a catalog\n",
		"regions/notes/x.json": "{}\n",
	})

	fsys, err := New("git+file://" + dir).Fetch(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	files, err := formtreefs.CatalogFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"catalog.yaml", "regions/ca.yml"}, files); diff != "" {
		t.Fatalf("catalog files (-want, +got):\n%s", diff)
	}
	bs, err := fs.ReadFile(fsys, "regions/ca.yml")
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != "patch_sets: {}\n" {
		t.Fatalf("unexpected content %q", bs)
	}

	if _, err := New("git+file://" + dir + "#missing").Fetch(t.Context()); err == nil {
		t.Fatal("expected an error for a missing branch")
	}
}

// initRepo commits files to a new repository on its default branch.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repository, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	w, err := repository.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	_, err = w.Commit("catalog", &git.CommitOptions{
		Author: &object.Signature{Name: "formtree", Email: "formtree@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dir
}
