package ports

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
)

// Host is the host platform primitive that applies a batch of path-addressed
// changes to one boundary's live instance.
type Host interface {
	// Update delivers the ordered patches of one boundary for one pass.
	// Implementations must apply them in order. A returned error means the host
	// state of that boundary is unknown; the pipeline never retries.
	Update(ctx context.Context, call domain.HostCall) error
}

// HostFunc adapts a plain function to the Host interface.
type HostFunc func(ctx context.Context, call domain.HostCall) error

// Update calls f.
func (f HostFunc) Update(ctx context.Context, call domain.HostCall) error {
	return f(ctx, call)
}

// Tee delivers every call to each host in turn. All hosts are attempted; their
// errors are joined.
func Tee(hosts ...Host) Host {
	return HostFunc(func(ctx context.Context, call domain.HostCall) error {
		var errs []error
		for _, h := range hosts {
			if err := h.Update(ctx, call); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
