package diff

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// Engine walks two tree versions and emits an ordered mutation list.
// It never mutates either tree.
type Engine struct {
	filter *Filter
}

// Option configures the Engine.
type Option func(*options)

type options struct {
	schema schema.Registry
	equal  Comparator
}

// WithSchema sets the recognized prop schema. Without it every prop is considered.
func WithSchema(reg schema.Registry) Option {
	return func(o *options) {
		o.schema = reg
	}
}

// WithComparator replaces the shallow prop comparison.
func WithComparator(c Comparator) Option {
	return func(o *options) {
		o.equal = c
	}
}

// New creates a diff engine.
func New(opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{filter: NewFilter(o.schema, o.equal)}
}

// Filter returns the prop change filter used by the engine.
func (e *Engine) Filter() *Filter {
	return e.filter
}

// Diff returns the mutations turning prev into next.
//
// A nil prev is a first mount: the whole tree is one ChildInserted at the root
// slot. A nil next unmounts everything with one ChildRemoved. Duplicate author
// keys in any visited sibling list abort the diff with a *domain.KeyCollisionError.
func (e *Engine) Diff(prev, next *domain.Node) ([]domain.Mutation, error) {
	w := &walker{filter: e.filter}
	switch {
	case prev == nil && next == nil:
		return nil, nil
	case prev == nil:
		if err := next.CheckKeys(); err != nil {
			return nil, err
		}
		return []domain.Mutation{{Kind: domain.ChildInserted, Path: domain.Root, Node: next}}, nil
	case next == nil:
		return []domain.Mutation{{Kind: domain.ChildRemoved, Path: domain.Root}}, nil
	case prev.Kind != next.Kind:
		if err := next.CheckKeys(); err != nil {
			return nil, err
		}
		return []domain.Mutation{
			{Kind: domain.ChildRemoved, Path: domain.Root},
			{Kind: domain.ChildInserted, Path: domain.Root, Node: next},
		}, nil
	}
	if err := w.node(domain.Root, prev, next); err != nil {
		return nil, err
	}
	return w.out, nil
}

type walker struct {
	filter *Filter
	out    []domain.Mutation
}

func (w *walker) node(path domain.Path, old, next *domain.Node) error {
	if old == next {
		// Reference-identical subtree: nothing below can have changed.
		return nil
	}
	w.out = append(w.out, w.filter.Changes(path, old, next)...)

	pairs, err := w.children(path, old.Children, next.Children)
	if err != nil {
		return err
	}
	for j, i := range pairs {
		if i < 0 {
			continue
		}
		if err := w.node(path.Child(j), old.Children[i], next.Children[j]); err != nil {
			return err
		}
	}
	return nil
}
