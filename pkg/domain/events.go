package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPassStart         EventType = "pass_start"
	EventPassEnd           EventType = "pass_end"
	EventHostCall          EventType = "host_call"
	EventStaleDrop         EventType = "stale_drop"
	EventBoundaryCreated   EventType = "boundary_created"
	EventBoundaryDestroyed EventType = "boundary_destroyed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	PassID    uint64    `json:"pass_id"`
}

// PassEvent marks the start or the end of a reconciliation pass.
type PassEvent struct {
	EventBase
	Mutations int   `json:"mutations"`
	Patches   int   `json:"patches"`
	Calls     int   `json:"calls"`
	Err       error `json:"-"`
}

// HostCallEvent reports one delivered (or failed) host update call.
type HostCallEvent struct {
	EventBase
	BoundaryID  BoundaryID    `json:"boundary_id"`
	Patches     int           `json:"patches"`
	PayloadSize int           `json:"payload_size"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

// StaleEvent reports patches dropped because their boundary was unmounted.
type StaleEvent struct {
	EventBase
	BoundaryID BoundaryID `json:"boundary_id"`
	Patches    int        `json:"patches"`
}

// BoundaryEvent reports the creation or destruction of a boundary.
type BoundaryEvent struct {
	EventBase
	Boundary Boundary `json:"boundary"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnPassStart         func(context.Context, *PassEvent)
	OnPassEnd           func(context.Context, *PassEvent)
	OnHostCall          func(context.Context, *HostCallEvent)
	OnStaleDrop         func(context.Context, *StaleEvent)
	OnBoundaryCreated   func(context.Context, *BoundaryEvent)
	OnBoundaryDestroyed func(context.Context, *BoundaryEvent)
}

// Merge returns hooks that call h first and then o.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPassStart:         chain(h.OnPassStart, o.OnPassStart),
		OnPassEnd:           chain(h.OnPassEnd, o.OnPassEnd),
		OnHostCall:          chain(h.OnHostCall, o.OnHostCall),
		OnStaleDrop:         chain(h.OnStaleDrop, o.OnStaleDrop),
		OnBoundaryCreated:   chain(h.OnBoundaryCreated, o.OnBoundaryCreated),
		OnBoundaryDestroyed: chain(h.OnBoundaryDestroyed, o.OnBoundaryDestroyed),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
