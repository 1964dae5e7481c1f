package progress_test

import (
	"bytes"
	"testing"

	"github.com/hktouw/formtree/internal/progress"
)

func TestHidden(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.New(&buf, 3, "building", false)
	bar.Add(1)
	bar.Finish()
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestVisible(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.New(&buf, 2, "building", true)
	bar.Add(1)
	bar.Add(1)
	bar.Finish()
	if !bytes.Contains(buf.Bytes(), []byte("building")) {
		t.Fatalf("expected description in output, got %q", buf.String())
	}
}
