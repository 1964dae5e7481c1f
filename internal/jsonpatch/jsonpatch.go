package jsonpatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akedrou/textdiff"
	jp "github.com/evanphx/json-patch/v5"
)

var ErrInvalidJSON = errors.New("invalid JSON")

type PatchError struct {
	msg string
	err error
}

func (p *PatchError) Error() string {
	return p.msg
}

func (p *PatchError) Unwrap() error {
	return p.err
}

// Diff returns the RFC 7386 merge patch that turns base into variant. Both
// documents must be JSON objects.
func Diff(base, variant json.RawMessage) (json.RawMessage, error) {
	if err := valid("base", base); err != nil {
		return nil, err
	}
	if err := valid("variant", variant); err != nil {
		return nil, err
	}
	patch, err := jp.CreateMergePatch(base, variant)
	if err != nil {
		return nil, &PatchError{msg: fmt.Sprintf("failed to create merge patch: %v", err), err: err}
	}
	return patch, nil
}

// Apply applies a merge patch to doc.
func Apply(doc, patch json.RawMessage) (json.RawMessage, error) {
	if err := valid("document", doc); err != nil {
		return nil, err
	}
	if err := valid("patch", patch); err != nil {
		return nil, err
	}
	out, err := jp.MergePatch(doc, patch)
	if err != nil {
		return nil, &PatchError{msg: fmt.Sprintf("failed to apply merge patch: %v", err), err: err}
	}
	return out, nil
}

// valid rejects malformed input up front: json-patch panics on it instead
// of returning an error.
func valid(name string, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return &PatchError{msg: fmt.Sprintf("invalid JSON %s", name), err: ErrInvalidJSON}
	}
	return nil
}

// Equal reports whether two JSON documents are semantically equal.
func Equal(a, b json.RawMessage) bool {
	return jp.Equal(a, b)
}

// Unified renders a unified text diff between two renderings, labelled with
// the given names. It is empty when they are equal.
func Unified(oldName, newName, oldText, newText string) string {
	return textdiff.Unified(oldName, newName, oldText, newText)
}
