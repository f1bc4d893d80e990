package diff

import (
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// Filter decides which props of a paired node changed.
// Props absent from the kind's schema never produce a mutation.
type Filter struct {
	schema schema.Registry
	equal  Comparator
}

// NewFilter creates a filter over the given schema. A nil comparator means Shallow.
func NewFilter(reg schema.Registry, equal Comparator) *Filter {
	if equal == nil {
		equal = Shallow
	}
	return &Filter{schema: reg, equal: equal}
}

// Changes returns one PropChanged mutation per recognized prop that differs
// between old and next, in prop name order.
func (f *Filter) Changes(path domain.Path, old, next *domain.Node) []domain.Mutation {
	if len(old.Props) == 0 && len(next.Props) == 0 {
		return nil
	}
	names := make([]string, 0, len(next.Props)+len(old.Props))
	for name := range next.Props {
		names = append(names, name)
	}
	for name := range old.Props {
		if _, ok := next.Props[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var muts []domain.Mutation
	for _, name := range names {
		if !f.schema.Recognized(next.Kind, name) {
			continue
		}
		nv, present := next.Props[name]
		ov, had := old.Props[name]
		switch {
		case !present:
			muts = append(muts, domain.Mutation{Kind: domain.PropChanged, Path: path, Prop: name, Deleted: true})
		case !had || !f.equal(ov, nv):
			muts = append(muts, domain.Mutation{Kind: domain.PropChanged, Path: path, Prop: name, Value: nv})
		}
	}
	return muts
}

// Recognized returns the props of n the schema recognizes.
func (f *Filter) Recognized(n *domain.Node) domain.Props {
	return f.schema.Filter(n.Kind, n.Props)
}
