package schema

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// Wildcard opens a kind to every prop name.
const Wildcard = "*"

// PropSchema maps the recognized prop names of one kind to their types.
type PropSchema map[string]Type

// Registry holds the recognized prop schema of every node kind.
// Kinds absent from the registry recognize no props at all.
type Registry map[domain.Kind]PropSchema

// Open returns a registry that recognizes every prop of every kind.
// It is meant for tooling and tests where no template schema exists.
func Open() Registry {
	return nil
}

// Recognized reports whether prop is declared for kind.
// A nil registry recognizes everything.
func (r Registry) Recognized(kind domain.Kind, prop string) bool {
	if r == nil {
		return true
	}
	ps, ok := r[kind]
	if !ok {
		return false
	}
	if _, ok := ps[prop]; ok {
		return true
	}
	_, open := ps[Wildcard]
	return open
}

// Filter returns the recognized subset of props.
func (r Registry) Filter(kind domain.Kind, props domain.Props) domain.Props {
	if r == nil || len(props) == 0 {
		return props
	}
	out := make(domain.Props, len(props))
	for name, v := range props {
		if r.Recognized(kind, name) {
			out[name] = v
		}
	}
	return out
}

// Validate checks the recognized props of every node in the tree against their
// declared types. Unrecognized props are ignored, just like the diff does.
func (r Registry) Validate(root *domain.Node) error {
	if r == nil || root == nil {
		return nil
	}
	var errs []error
	root.Walk(func(p domain.Path, n *domain.Node) bool {
		ps := r[n.Kind]
		for _, name := range n.PropNames() {
			t, ok := ps[name]
			if !ok {
				continue
			}
			if err := t.Validate(n.Props[name]); err != nil {
				errs = append(errs, &ValidationError{
					Path:   p.String(),
					Kind:   string(n.Kind),
					Prop:   name,
					Reason: err.Error(),
				})
			}
		}
		return true
	})
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
