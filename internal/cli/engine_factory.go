package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/schema"
)

// Options holds what every command shares.
type Options struct {
	Config config.Config
	Debug  bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NewNop()
}

// loadSchema reads the schema file named in the configuration, if any.
func loadSchema(cfg config.Config) (schema.Registry, error) {
	if cfg.Schema == "" {
		return schema.Open(), nil
	}
	data, err := os.ReadFile(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return schema.Load(data)
}

// engineOptions translates the configuration into engine options. A document
// schema wins over the configured one.
func engineOptions(opts Options, docSchema schema.Registry) ([]arbor.Option, error) {
	reg := docSchema
	if reg == nil {
		var err error
		if reg, err = loadSchema(opts.Config); err != nil {
			return nil, err
		}
	}
	cmp, ok := diff.ComparatorByName(opts.Config.Compare)
	if !ok {
		return nil, fmt.Errorf("unknown comparator %q", opts.Config.Compare)
	}

	logger := opts.logger()
	out := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithSchema(reg),
		arbor.WithThreshold(opts.Config.Threshold),
		arbor.WithComparator(cmp),
		arbor.WithParallelDispatch(opts.Config.ParallelDispatch),
	}
	if opts.Debug {
		out = append(out, arbor.WithLifecycleHooks(createDebugHooks(logger)))
	}
	return out, nil
}

// createEngine initializes an engine delivering to host with standard CLI conventions.
func createEngine(opts Options, docSchema schema.Registry, host ports.Host) (*arbor.Engine, error) {
	engineOpts, err := engineOptions(opts, docSchema)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts,
		arbor.WithHost(host),
		arbor.WithFlushMode(opts.Config.Flush),
	)
	return arbor.New(engineOpts...), nil
}

// createDebugHooks logs every pipeline event.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassStart: func(_ context.Context, e *domain.PassEvent) {
			logger.Debug("pass start", "pass", e.PassID)
		},
		OnPassEnd: func(_ context.Context, e *domain.PassEvent) {
			logger.Debug("pass end", "pass", e.PassID, "mutations", e.Mutations, "patches", e.Patches, "calls", e.Calls, "err", e.Err)
		},
		OnHostCall: func(_ context.Context, e *domain.HostCallEvent) {
			logger.Debug("host call", "boundary", e.BoundaryID, "patches", e.Patches, "bytes", e.PayloadSize, "duration", e.Duration)
		},
		OnBoundaryCreated: func(_ context.Context, e *domain.BoundaryEvent) {
			logger.Debug("boundary created", "boundary", e.Boundary.ID, "cause", e.Boundary.Cause, "root", e.Boundary.Root.String())
		},
		OnBoundaryDestroyed: func(_ context.Context, e *domain.BoundaryEvent) {
			logger.Debug("boundary destroyed", "boundary", e.Boundary.ID)
		},
	}
}
