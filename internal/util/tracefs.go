package util

import (
	"io/fs"

	"github.com/hktouw/formtree/internal/logging"
)

// TraceFS logs every Open at debug level. It is used to show which catalog
// files a merged filesystem resolves to.
type TraceFS struct {
	fsys fs.FS
	log  *logging.Logger
}

func NewTraceFS(fsys fs.FS, log *logging.Logger) fs.FS {
	return &TraceFS{fsys: fsys, log: log}
}

func (t *TraceFS) Open(p string) (fs.File, error) {
	f, err := t.fsys.Open(p)
	if err != nil {
		t.log.Debugf("open %s: %v", p, err)
		return f, err
	}
	fi, err := f.Stat()
	if err != nil {
		t.log.Debugf("stat %s: %v", p, err)
	} else if !fi.IsDir() {
		t.log.Debugf("open %s: size=%d", p, fi.Size())
	}
	return f, nil
}

// Walk logs the tree of fsys at debug level.
func Walk(fsys fs.FS, log *logging.Logger) {
	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			log.Debugf("+ %s/", path)
		} else {
			log.Debugf("- %s", path)
		}
		return nil
	}); err != nil {
		log.Debugf("walk: %v", err)
	}
}
