package domain

import "fmt"

// MutationKind enumerates the diff results.
type MutationKind int

const (
	PropChanged MutationKind = iota + 1
	ChildInserted
	ChildRemoved
	ChildMoved
)

func (k MutationKind) String() string {
	switch k {
	case PropChanged:
		return "PropChanged"
	case ChildInserted:
		return "ChildInserted"
	case ChildRemoved:
		return "ChildRemoved"
	case ChildMoved:
		return "ChildMoved"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

// Mutation is a single diff result against a tree-absolute path.
//
// For PropChanged, Path addresses the node whose prop changed. For the structural
// kinds, Path addresses the child slot in the parent's child list: the removed
// index, the inserted index, or the move destination. Paths are valid when the
// mutations of a pass are applied in emission order.
type Mutation struct {
	Kind MutationKind `json:"kind"`
	Path Path         `json:"path"`

	// PropChanged
	Prop    string `json:"prop,omitempty"`
	Value   any    `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`

	// ChildInserted
	Node *Node `json:"node,omitempty"`

	// ChildMoved: source index, interpreted before the move.
	From int `json:"from,omitempty"`
}

func (m Mutation) String() string {
	switch m.Kind {
	case PropChanged:
		if m.Deleted {
			return fmt.Sprintf("%s %s -%s", m.Kind, m.Path, m.Prop)
		}
		return fmt.Sprintf("%s %s %s=%v", m.Kind, m.Path, m.Prop, m.Value)
	case ChildMoved:
		return fmt.Sprintf("%s %s from %d", m.Kind, m.Path, m.From)
	default:
		return fmt.Sprintf("%s %s", m.Kind, m.Path)
	}
}
