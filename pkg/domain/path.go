package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Step selects one child: the child list of the current node and an index within it.
type Step struct {
	List  string `json:"list"`
	Index int    `json:"index"`
}

func (s Step) String() string {
	return s.List + "[" + strconv.Itoa(s.Index) + "]"
}

// Path addresses a node (or a child slot) by the steps taken from some origin.
// The zero Path addresses the origin itself.
type Path []Step

// Root is the empty path.
var Root = Path(nil)

// Child returns a new path extended by the i-th entry of the children list.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Step{List: ChildrenList, Index: i})
}

// Parent returns the path without its last step.
// The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final step and whether one exists.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

// Rel returns p relative to prefix. ok is false when prefix is not a prefix of p.
func (p Path) Rel(prefix Path) (Path, bool) {
	if len(prefix) > len(p) {
		return nil, false
	}
	for i := range prefix {
		if prefix[i] != p[i] {
			return nil, false
		}
	}
	return p[len(prefix):], true
}

// Equal reports whether both paths have identical steps.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the path in dotted/indexed form, e.g. "children[0].children[2]".
// The root path renders as "".
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePath parses the form produced by Path.String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Root, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		open := strings.IndexByte(part, '[')
		if open <= 0 || !strings.HasSuffix(part, "]") {
			return nil, fmt.Errorf("invalid path step %q", part)
		}
		idx, err := strconv.Atoi(part[open+1 : len(part)-1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid index in path step %q", part)
		}
		p = append(p, Step{List: part[:open], Index: idx})
	}
	return p, nil
}

// MarshalText encodes the path in its string form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a path produced by MarshalText.
func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
