package patchpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

const propsSegment = "props"

// ErrWholeView is returned when a patch replaces or drops an entire boundary view
// and therefore has no single-pointer RFC 6902 form.
var ErrWholeView = errors.New("patch addresses the whole boundary view")

// Join renders a relative node path with an optional prop name.
func Join(rel domain.Path, prop string) string {
	s := rel.String()
	if prop == "" {
		return s
	}
	if s == "" {
		return propsSegment + "." + prop
	}
	return s + "." + propsSegment + "." + prop
}

// Split parses a relative path produced by Join.
func Split(rel string) (domain.Path, string, error) {
	var steps, prop string
	switch {
	case strings.HasPrefix(rel, propsSegment+"."):
		prop = rel[len(propsSegment)+1:]
	case strings.Contains(rel, "."+propsSegment+"."):
		i := strings.Index(rel, "."+propsSegment+".")
		steps, prop = rel[:i], rel[i+len(propsSegment)+2:]
	default:
		steps = rel
	}
	p, err := domain.ParsePath(steps)
	if err != nil {
		return nil, "", fmt.Errorf("split %q: %w", rel, err)
	}
	return p, prop, nil
}

// Pointer converts a relative path to an RFC 6901 JSON pointer into the
// boundary view document.
func Pointer(rel string) (string, error) {
	steps, prop, err := Split(rel)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "/%s/%d", escape(s.List), s.Index)
	}
	if prop != "" {
		b.WriteString("/" + propsSegment + "/" + escape(prop))
	}
	return b.String(), nil
}

func escape(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~", "~0"), "/", "~1")
}

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON always writes the value of an "add", even when it is null.
func (o Operation) MarshalJSON() ([]byte, error) {
	m := map[string]any{"op": o.Op, "path": o.Path}
	if o.From != "" {
		m["from"] = o.From
	}
	if o.Op == "add" {
		m["value"] = o.Value
	}
	return json.Marshal(m)
}

// ToOperation converts a patch to its RFC 6902 form. Mount patches and the
// removal of the page root return ErrWholeView.
func ToOperation(p domain.Patch) (Operation, error) {
	if p.Op == domain.OpMount || (p.Op == domain.OpRemove && p.Path == "") {
		return Operation{}, ErrWholeView
	}
	ptr, err := Pointer(p.Path)
	if err != nil {
		return Operation{}, err
	}
	switch p.Op {
	case domain.OpSet, domain.OpInsert:
		return Operation{Op: "add", Path: ptr, Value: p.Value}, nil
	case domain.OpDelete, domain.OpRemove:
		return Operation{Op: "remove", Path: ptr}, nil
	case domain.OpMove:
		from, err := Pointer(p.From)
		if err != nil {
			return Operation{}, err
		}
		return Operation{Op: "move", Path: ptr, From: from}, nil
	}
	return Operation{}, fmt.Errorf("unsupported patch op %q", p.Op)
}
