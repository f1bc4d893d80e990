package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	arborhttp "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the serve command.
type ServeOptions struct {
	Options
	Addr string // overrides Config.HTTP.Addr when set
}

// RunServe exposes the page service over HTTP until ctx is done. Every page
// streams its update calls to its /events subscribers.
func RunServe(ctx context.Context, w io.Writer, opts ServeOptions) error {
	logger := opts.logger()
	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.HTTP.Addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	streams := arborhttp.NewStreamManager(logger)
	pb, err := newPageBackend(ctx, opts.Options, streams.Host, metrics.Hooks())
	if err != nil {
		return err
	}
	defer pb.Close()

	srv := &http.Server{
		Addr: addr,
		Handler: arborhttp.NewHandler(pb.Pages, streams,
			arborhttp.WithGatherer(reg),
			arborhttp.WithLogger(logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(w, "arbor server listening on %s", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		printSystemMessage(w, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	}
}
