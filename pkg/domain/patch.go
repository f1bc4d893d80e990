package domain

import "encoding/json"

// Op is the host-facing operation of a patch.
type Op string

const (
	OpSet    Op = "set"    // set a prop
	OpDelete Op = "delete" // drop a prop
	OpInsert Op = "insert" // insert a child subtree at the slot
	OpRemove Op = "remove" // remove the child at the slot
	OpMove   Op = "move"   // move the child at From to the slot
	OpMount  Op = "mount"  // (re)initialize the whole boundary view
)

// Patch is a mutation rewritten relative to its owning boundary.
// Path is relative to the boundary root node; "" addresses the root itself.
type Patch struct {
	BoundaryID BoundaryID `json:"boundary"`
	Op         Op         `json:"op"`
	Path       string     `json:"path"`
	From       string     `json:"from,omitempty"`
	Value      any        `json:"value,omitempty"`
}

// HostCall is the payload of one host update call: the ordered patches of a
// single boundary for a single pass.
type HostCall struct {
	BoundaryID BoundaryID `json:"boundary"`
	Patches    []Patch    `json:"patches"`
}

// PayloadSize returns the serialized size of the call in bytes, the unit the host
// charges for.
func (c HostCall) PayloadSize() int {
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	return len(b)
}

// Batch groups the patches of one pass by boundary.
// Patches of a boundary keep their emission order; boundaries are listed in order
// of first appearance, which is stable but carries no delivery guarantee.
type Batch struct {
	order   []BoundaryID
	patches map[BoundaryID][]Patch
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{patches: make(map[BoundaryID][]Patch)}
}

// Add appends patches to their boundaries' sequences.
func (b *Batch) Add(patches ...Patch) {
	for _, p := range patches {
		if _, ok := b.patches[p.BoundaryID]; !ok {
			b.order = append(b.order, p.BoundaryID)
		}
		b.patches[p.BoundaryID] = append(b.patches[p.BoundaryID], p)
	}
}

// Boundaries returns the boundaries with at least one patch.
func (b *Batch) Boundaries() []BoundaryID {
	out := make([]BoundaryID, len(b.order))
	copy(out, b.order)
	return out
}

// Patches returns the ordered patches of boundary id.
func (b *Batch) Patches(id BoundaryID) []Patch {
	return b.patches[id]
}

// Calls returns one host call per boundary, in first-appearance order.
func (b *Batch) Calls() []HostCall {
	calls := make([]HostCall, 0, len(b.order))
	for _, id := range b.order {
		calls = append(calls, HostCall{BoundaryID: id, Patches: b.patches[id]})
	}
	return calls
}

// Len returns the total number of patches.
func (b *Batch) Len() int {
	n := 0
	for _, ps := range b.patches {
		n += len(ps)
	}
	return n
}

// Empty reports whether the batch holds no patches.
func (b *Batch) Empty() bool {
	return len(b.order) == 0
}

// Reset drops every patch.
func (b *Batch) Reset() {
	b.order = nil
	b.patches = make(map[BoundaryID][]Patch)
}
