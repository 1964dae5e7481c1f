package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/yalue/merged_fs"

	formtreefs "github.com/hktouw/formtree/internal/fs"
	"github.com/hktouw/formtree/internal/gitsync"
	"github.com/hktouw/formtree/internal/httpsync"
	"github.com/hktouw/formtree/internal/logging"
	"github.com/hktouw/formtree/internal/util"
)

// Loader reads catalogs from a stack of sources: directories, single files,
// HTTP URLs of catalog files or git+<url>[#<reference>] repositories. Later sources take priority over earlier
// ones, and all of them over the builtin catalog: a file with the same
// relative path replaces the lower one, other files are merged.
type Loader struct {
	paths         []string
	builtin       fs.FS
	conflictError bool
	headers       map[string]string
	log           *logging.Logger
}

func NewLoader(paths ...string) *Loader {
	return &Loader{paths: paths, log: logging.NewNoop()}
}

func (l *Loader) WithBuiltin(fsys fs.FS) *Loader {
	l.builtin = fsys
	return l
}

func (l *Loader) WithConflictError(yes bool) *Loader {
	l.conflictError = yes
	return l
}

// WithHeaders sets the headers sent when fetching URL sources.
func (l *Loader) WithHeaders(headers map[string]string) *Loader {
	l.headers = headers
	return l
}

func (l *Loader) WithLogger(log *logging.Logger) *Loader {
	l.log = log
	return l
}

// FS returns the merged catalog filesystem.
func (l *Loader) FS(ctx context.Context) (fs.FS, error) {
	var fses []fs.FS
	for _, p := range slices.Backward(l.paths) {
		fsys, err := l.sourceFS(ctx, p)
		if err != nil {
			return nil, err
		}
		ok, err := formtreefs.FSContainsFiles(fsys)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog source %s: %w", p, err)
		}
		if !ok {
			l.log.Warnf("catalog source %s contains no catalog files", p)
			continue
		}
		fses = append(fses, fsys)
	}
	if l.builtin != nil {
		fses = append(fses, l.builtin)
	}
	if len(fses) == 0 {
		return util.MapFS(nil), nil
	}

	merged := merged_fs.MergeMultiple(fses...)
	if l.log.Enabled(logging.Debug) {
		util.Walk(merged, l.log)
		return util.NewTraceFS(merged, l.log), nil
	}
	return merged, nil
}

// Load merges and parses the catalog.
func (l *Loader) Load(ctx context.Context) (*Root, error) {
	fsys, err := l.FS(ctx)
	if err != nil {
		return nil, err
	}
	return LoadFS(fsys, l.conflictError)
}

// LoadFS merges every catalog file in fsys and parses the result.
func LoadFS(fsys fs.FS, conflictError bool) (*Root, error) {
	bs, err := MergeFS(fsys, conflictError)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}

// sourceFS opens a catalog directory or git repository, or a single local or
// remote catalog file as a filesystem holding only that file.
func (l *Loader) sourceFS(ctx context.Context, p string) (fs.FS, error) {
	if gitsync.IsGitURL(p) {
		s := gitsync.New(p)
		fsys, err := s.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to clone catalog %s: %w", p, err)
		}
		l.log.Debugf("cloned catalog repository %s", s.Repo())
		return fsys, nil
	}
	if httpsync.IsURL(p) {
		s := httpsync.New(p).WithHeaders(l.headers)
		bs, err := s.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog %s: %w", p, err)
		}
		l.log.Debugf("fetched catalog %s (%d bytes)", p, len(bs))
		return util.MapFS(map[string]string{s.Name(): string(bs)}), nil
	}

	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog source: %w", err)
	}
	if fi.IsDir() {
		return os.DirFS(p), nil
	}
	bs, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", p, err)
	}
	return util.MapFS(map[string]string{filepath.Base(p): string(bs)}), nil
}
