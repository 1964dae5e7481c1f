// gitsync package reads catalog files out of a git repository. The repository
// is cloned into memory for every fetch: nothing is written to disk and no
// state is kept between fetches.
package gitsync

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	formtreefs "github.com/hktouw/formtree/internal/fs"
	"github.com/hktouw/formtree/internal/util"
)

const scheme = "git+"

// Synchronizer fetches the catalog files of one repository reference.
type Synchronizer struct {
	repo      string
	reference string
}

// IsGitURL reports whether a catalog source names a git repository, written
// as git+<url>[#<reference>].
func IsGitURL(source string) bool {
	return strings.HasPrefix(source, scheme)
}

// New parses a git+<url>[#<reference>] source. Without a reference the
// remote HEAD is used; a reference not starting with refs/ names a branch.
func New(source string) *Synchronizer {
	repo, ref, _ := strings.Cut(strings.TrimPrefix(source, scheme), "#")
	return &Synchronizer{repo: repo, reference: ref}
}

func (s *Synchronizer) Repo() string { return s.repo }

func (s *Synchronizer) referenceName() plumbing.ReferenceName {
	switch {
	case s.reference == "":
		return ""
	case strings.HasPrefix(s.reference, "refs/"):
		return plumbing.ReferenceName(s.reference)
	default:
		return plumbing.NewBranchReferenceName(s.reference)
	}
}

// Fetch clones the reference and returns its catalog files, keyed by their
// path in the repository.
func (s *Synchronizer) Fetch(ctx context.Context) (fs.FS, error) {
	repository, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:           s.repo,
		ReferenceName: s.referenceName(),
		SingleBranch:  true,
		Tags:          git.NoTags,
	})
	if err != nil {
		return nil, fmt.Errorf("git synchronizer: %v: %w", s.repo, err)
	}

	head, err := repository.Head()
	if err != nil {
		return nil, err
	}
	commit, err := repository.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	files := map[string]string{}
	err = tree.Files().ForEach(func(f *object.File) error {
		if !formtreefs.IsCatalogFile(f.Name) {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		files[f.Name] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return util.MapFS(files), nil
}
