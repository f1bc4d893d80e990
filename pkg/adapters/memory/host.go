package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/patchpath"
	jsonpatch "github.com/evanphx/json-patch"
)

// Host simulates the host platform: it keeps one JSON document per boundary
// and applies every call as an RFC 6902 patch. A call is applied atomically;
// when any patch fails the boundary keeps its previous document. Removing a
// stub from a document drops the nested boundary's view along with every view
// below it. Safe for concurrent use.
type Host struct {
	mu    sync.Mutex
	views map[domain.BoundaryID][]byte
	calls []domain.HostCall
	fail  func(domain.HostCall) error
}

// HostOption configures the simulator.
type HostOption func(*Host)

// WithFailure makes the host reject calls for which fn returns an error.
func WithFailure(fn func(domain.HostCall) error) HostOption {
	return func(h *Host) {
		h.fail = fn
	}
}

// NewHost creates an empty host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{views: make(map[domain.BoundaryID][]byte)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Update implements ports.Host.
func (h *Host) Update(ctx context.Context, call domain.HostCall) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)

	if h.fail != nil {
		if err := h.fail(call); err != nil {
			return err
		}
	}

	doc, exists := h.views[call.BoundaryID]
	before := docStubs(doc, exists)
	for i, p := range call.Patches {
		var err error
		doc, exists, err = apply(doc, exists, p)
		if err != nil {
			return fmt.Errorf("boundary %d patch %d (%s %q): %w", call.BoundaryID, i, p.Op, p.Path, err)
		}
	}
	if exists {
		h.views[call.BoundaryID] = doc
	} else {
		delete(h.views, call.BoundaryID)
	}

	kept := make(map[domain.BoundaryID]bool)
	for _, id := range docStubs(doc, exists) {
		kept[id] = true
	}
	for _, id := range before {
		if !kept[id] {
			h.drop(id)
		}
	}
	return nil
}

// drop deletes the view of id and of every boundary stubbed below it.
// Caller holds h.mu.
func (h *Host) drop(id domain.BoundaryID) {
	doc, ok := h.views[id]
	if !ok {
		return
	}
	delete(h.views, id)
	for _, nested := range docStubs(doc, true) {
		h.drop(nested)
	}
}

func docStubs(doc []byte, exists bool) []domain.BoundaryID {
	if !exists {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil
	}
	return stubs(v)
}

func apply(doc []byte, exists bool, p domain.Patch) ([]byte, bool, error) {
	op, err := patchpath.ToOperation(p)
	if errors.Is(err, patchpath.ErrWholeView) {
		if p.Op != domain.OpMount || p.Value == nil {
			return nil, false, nil
		}
		b, err := json.Marshal(p.Value)
		return b, err == nil, err
	}
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, fmt.Errorf("no live view")
	}
	raw, err := json.Marshal([]patchpath.Operation{op})
	if err != nil {
		return nil, false, err
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, false, err
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// View decodes the current document of boundary id.
func (h *Host) View(id domain.BoundaryID) (map[string]any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.views[id]
	if !ok {
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Views decodes the documents reachable from the page through boundary stubs.
func (h *Host) Views() map[domain.BoundaryID]map[string]any {
	out := make(map[domain.BoundaryID]map[string]any)
	queue := []domain.BoundaryID{domain.PageBoundary}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := out[id]; seen {
			continue
		}
		v, ok := h.View(id)
		if !ok {
			continue
		}
		out[id] = v
		queue = append(queue, stubs(v)...)
	}
	return out
}

func stubs(v map[string]any) []domain.BoundaryID {
	if id, ok := v["boundary"].(float64); ok {
		return []domain.BoundaryID{domain.BoundaryID(id)}
	}
	children, _ := v["children"].([]any)
	var out []domain.BoundaryID
	for _, c := range children {
		if m, ok := c.(map[string]any); ok {
			out = append(out, stubs(m)...)
		}
	}
	return out
}

// Calls returns every call received so far, including rejected ones.
func (h *Host) Calls() []domain.HostCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.HostCall, len(h.calls))
	copy(out, h.calls)
	return out
}

// Forget drops the view of boundary id, as a host losing state would.
func (h *Host) Forget(id domain.BoundaryID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.views, id)
}
